package objstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/s3blob"
)

// bucketStore adapts a gocloud bucket; it backs both the s3 and file drivers.
type bucketStore struct {
	bk  *blob.Bucket
	ttl time.Duration
}

func openS3(ctx context.Context, c Config) (Store, error) {
	bk, err := blob.OpenBucket(ctx, buildS3URL(c))
	if err != nil {
		return nil, fmt.Errorf("open s3 bucket %s: %w", c.Bucket, err)
	}
	return &bucketStore{bk: bk, ttl: c.ttl()}, nil
}

func (s *bucketStore) Put(ctx context.Context, key string, r io.ReadSeeker, _ int64, contentType string) error {
	key = sanitizeKey(key)
	w, err := s.bk.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *bucketStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.ttl
	}
	return s.bk.SignedURL(ctx, sanitizeKey(key), &blob.SignedURLOptions{Method: "GET", Expiry: expiry})
}

func (s *bucketStore) Close() error { return s.bk.Close() }
