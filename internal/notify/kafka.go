package notify

import (
	"context"
	"errors"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/cuihairu/filacheck/internal/validation"
)

type kafkaPublisher struct {
	w       *kafka.Writer
	timeout time.Duration
}

// NewKafka returns a publisher writing one message per run, keyed by run id.
func NewKafka(c Config) (Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("notify.brokers required for kafka")
	}
	topic := c.Topic
	if topic == "" {
		topic = defaultTopic
	}
	// Writers are safe for concurrent use
	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &kafkaPublisher{w: w, timeout: c.timeout()}, nil
}

func message(s validation.Summary) (kafka.Message, error) {
	b, err := encode(s)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(s.RunID), Value: b}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, s validation.Summary) error {
	m, err := message(s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.w.WriteMessages(ctx, m)
}

func (p *kafkaPublisher) Close() error { return p.w.Close() }
