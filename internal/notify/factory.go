package notify

import (
	"fmt"
	"log/slog"
	"strings"
)

// New builds the publisher named by c.Type: kafka, redis, or noop (default).
func New(c Config, logger *slog.Logger) (Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "kafka":
		p, err := NewKafka(c)
		if err != nil {
			return nil, err
		}
		logger.Info("notify: kafka publisher enabled", "brokers", strings.Join(c.Brokers, ","), "topic", c.Topic)
		return p, nil
	case "redis":
		p, err := NewRedis(c)
		if err != nil {
			return nil, err
		}
		logger.Info("notify: redis stream publisher enabled", "stream", c.Stream)
		return p, nil
	case "", "noop", "none":
		logger.Debug("notify: no queue configured; using noop")
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unsupported notify type %q", c.Type)
	}
}
