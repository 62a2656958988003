package objstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gocloud.dev/blob/fileblob"
)

// fileStore keeps archives on the local filesystem. Signed URLs are plain
// file:// URLs.
type fileStore struct {
	*bucketStore
	base string
}

func openFile(_ context.Context, c Config) (Store, error) {
	base, err := filepath.Abs(c.BaseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("ensure base_dir: %w", err)
	}
	bk, err := fileblob.OpenBucket(base, &fileblob.Options{CreateDir: true})
	if err != nil {
		return nil, fmt.Errorf("open file bucket %s: %w", base, err)
	}
	return &fileStore{bucketStore: &bucketStore{bk: bk, ttl: c.ttl()}, base: base}, nil
}

func (s *fileStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.base, filepath.FromSlash(sanitizeKey(key))))}
	return u.String(), nil
}
