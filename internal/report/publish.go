package report

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/cuihairu/filacheck/internal/objstore"
	"github.com/cuihairu/filacheck/internal/validation"
)

const defaultPrefix = "reports"

// ArchiveKey is <prefix>/<YYYY>/<MM>/<DD>/<run-id>.json, dated by run start.
func ArchiveKey(prefix string, r *validation.Report) string {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return path.Join(prefix, r.StartedAt.UTC().Format("2006/01/02"), r.RunID+".json")
}

// Publish uploads the JSON report and returns its key.
func Publish(ctx context.Context, store objstore.Store, prefix string, r *validation.Report) (string, error) {
	b, err := Marshal(r)
	if err != nil {
		return "", err
	}
	key := ArchiveKey(prefix, r)
	if err := store.Put(ctx, key, bytes.NewReader(b), int64(len(b)), "application/json"); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}
