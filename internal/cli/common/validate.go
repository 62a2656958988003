package common

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/cuihairu/filacheck/internal/notify"
	"github.com/cuihairu/filacheck/internal/objstore"
	"github.com/cuihairu/filacheck/internal/report"
)

// ErrValidationFailed signals a completed run whose report failed. The
// report has already been printed, so callers only set the exit status.
var ErrValidationFailed = errors.New("validation failed")

func dirExists(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// ValidateConfig checks the effective configuration. In strict mode the
// catalog directories must exist as well.
func ValidateConfig(v *viper.Viper, strict bool) error {
	s, err := Decode(v)
	if err != nil {
		return err
	}
	if err := dirExists(s.Layout.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if strict {
		if err := dirExists(s.Layout.DataDir); err != nil {
			return fmt.Errorf("data_dir: %w", err)
		}
		if err := dirExists(s.Layout.StoresDir); err != nil {
			return fmt.Errorf("stores_dir: %w", err)
		}
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers: must not be negative, got %d", s.Workers)
	}
	if f := strings.ToLower(s.Format); !slices.Contains(report.Formats(), f) {
		return fmt.Errorf("format: unknown format %q", s.Format)
	}
	switch strings.ToLower(v.GetString("log.level")) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", v.GetString("log.level"))
	}
	if s.Publish.Driver != "" {
		if err := objstore.Validate(s.Publish); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	if s.Notify.Type != "" {
		p, err := notify.New(s.Notify, nil)
		if err != nil {
			return fmt.Errorf("notify: %w", err)
		}
		_ = p.Close()
	}
	if s.Telemetry.Enabled && s.Telemetry.Endpoint == "" {
		return errors.New("telemetry: endpoint required when enabled")
	}
	return nil
}
