package objstore

import (
	"context"
	"fmt"
	"io"
	"time"

	oss "github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossStore struct {
	bk  *oss.Bucket
	ttl time.Duration
}

func openOSS(_ context.Context, c Config) (Store, error) {
	cli, err := oss.New(c.Endpoint, c.AccessKey, c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	bk, err := cli.Bucket(c.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", c.Bucket, err)
	}
	return &ossStore{bk: bk, ttl: c.ttl()}, nil
}

func (s *ossStore) Put(_ context.Context, key string, r io.ReadSeeker, _ int64, contentType string) error {
	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	return s.bk.PutObject(sanitizeKey(key), r, opts...)
}

func (s *ossStore) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.ttl
	}
	return s.bk.SignURL(sanitizeKey(key), oss.HTTPGet, int64(expiry/time.Second))
}

func (s *ossStore) Close() error { return nil }
