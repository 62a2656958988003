// Package objstore archives validation reports in object storage.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Store is the minimal object storage surface used for report archives.
type Store interface {
	Put(ctx context.Context, key string, r io.ReadSeeker, size int64, contentType string) error
	// SignedURL returns a time-limited GET link; expiry <= 0 uses the
	// configured TTL.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Close() error
}

// Config selects and configures a driver. It is filled from the publish
// section of the configuration.
type Config struct {
	Driver         string        `mapstructure:"driver"`
	Bucket         string        `mapstructure:"bucket"`
	Region         string        `mapstructure:"region"`
	Endpoint       string        `mapstructure:"endpoint"`
	AccessKey      string        `mapstructure:"access_key"`
	SecretKey      string        `mapstructure:"secret_key"`
	ForcePathStyle bool          `mapstructure:"force_path_style"`
	BaseDir        string        `mapstructure:"base_dir"`
	Prefix         string        `mapstructure:"prefix"`
	SignedURLTTL   time.Duration `mapstructure:"signed_url_ttl"`
}

const defaultTTL = 15 * time.Minute

func (c Config) ttl() time.Duration {
	if c.SignedURLTTL > 0 {
		return c.SignedURLTTL
	}
	return defaultTTL
}

// Validate checks that the driver has the settings it needs.
func Validate(c Config) error {
	switch strings.ToLower(c.Driver) {
	case "s3":
		if c.Bucket == "" {
			return errors.New("bucket required for s3 driver")
		}
		// credentials come from the AWS chain (env, shared config, IAM)
	case "oss":
		if c.Bucket == "" {
			return errors.New("bucket required for oss driver")
		}
		if c.Endpoint == "" {
			return errors.New("endpoint required for oss driver")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return errors.New("access_key/secret_key required for oss driver")
		}
	case "cos":
		if c.Bucket == "" {
			return errors.New("bucket required for cos driver")
		}
		if c.Region == "" && c.Endpoint == "" {
			return errors.New("region or endpoint required for cos driver")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return errors.New("access_key/secret_key required for cos driver")
		}
	case "file":
		if c.BaseDir == "" {
			return errors.New("base_dir required for file driver")
		}
	case "":
		return errors.New("publish.driver not set")
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Driver)
	}
	return nil
}

// Open validates c and opens the matching driver.
func Open(ctx context.Context, c Config) (Store, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Driver) {
	case "s3":
		return openS3(ctx, c)
	case "oss":
		return openOSS(ctx, c)
	case "cos":
		return openCOS(ctx, c)
	default:
		return openFile(ctx, c)
	}
}

// sanitizeKey prevents path traversal.
func sanitizeKey(key string) string {
	key = filepath.ToSlash(key)
	key = strings.TrimLeft(key, "/")
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}

// buildS3URL constructs a gocloud s3 URL with query params.
func buildS3URL(c Config) string {
	u := url.URL{Scheme: "s3", Host: c.Bucket}
	q := url.Values{}
	if c.Region != "" {
		q.Set("region", c.Region)
	}
	if c.Endpoint != "" {
		q.Set("endpoint", c.Endpoint)
	}
	if c.ForcePathStyle {
		q.Set("s3ForcePathStyle", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
