package notify

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/cuihairu/filacheck/internal/validation"
)

type redisPublisher struct {
	cli     *redis.Client
	stream  string
	maxLen  int64
	approx  bool
	timeout time.Duration
}

// NewRedis returns a publisher appending run summaries to a Redis stream.
func NewRedis(c Config) (Publisher, error) {
	url := c.URL
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	stream := c.Stream
	if stream == "" {
		stream = defaultStream
	}
	return &redisPublisher{
		cli:     redis.NewClient(opt),
		stream:  stream,
		maxLen:  c.MaxLen,
		approx:  c.Approx,
		timeout: c.timeout(),
	}, nil
}

// xaddArgs stores the summary as a single 'data' field with a JSON body,
// plus the run id and status for consumers that filter without decoding.
func (p *redisPublisher) xaddArgs(s validation.Summary) (*redis.XAddArgs, error) {
	b, err := encode(s)
	if err != nil {
		return nil, err
	}
	args := &redis.XAddArgs{Stream: p.stream, Values: map[string]any{
		"run_id": s.RunID,
		"failed": s.Failed,
		"data":   string(b),
	}}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = p.approx
	}
	return args, nil
}

func (p *redisPublisher) Publish(ctx context.Context, s validation.Summary) error {
	args, err := p.xaddArgs(s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.cli.XAdd(ctx, args).Err()
}

func (p *redisPublisher) Close() error { return p.cli.Close() }
