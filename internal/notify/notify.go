// Package notify announces finished validation runs on a message queue.
// Implementations are backed by Kafka, Redis Streams, or a no-op.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cuihairu/filacheck/internal/validation"
)

// Publisher sends run summaries.
type Publisher interface {
	Publish(ctx context.Context, s validation.Summary) error
	Close() error
}

// Config is the notify section of the configuration.
type Config struct {
	Type    string        `mapstructure:"type"`
	Brokers []string      `mapstructure:"brokers"`
	Topic   string        `mapstructure:"topic"`
	URL     string        `mapstructure:"url"`
	Stream  string        `mapstructure:"stream"`
	MaxLen  int64         `mapstructure:"max_len"`
	Approx  bool          `mapstructure:"approx"`
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	defaultTopic   = "filacheck.runs"
	defaultStream  = "filacheck:runs"
	defaultTimeout = 2 * time.Second
)

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func encode(s validation.Summary) ([]byte, error) {
	return json.Marshal(s)
}
