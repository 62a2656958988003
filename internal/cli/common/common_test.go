package common

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newCommand(g *Globals) (*cobra.Command, *cobra.Command) {
	root := &cobra.Command{Use: "filacheck"}
	g.Bind(root)
	sub := &cobra.Command{Use: "validate", RunE: func(*cobra.Command, []string) error { return nil }}
	sub.Flags().Int("workers", 0, "")
	sub.Flags().Bool("strict", false, "")
	root.AddCommand(sub)
	return root, sub
}

func TestMergeMaps(t *testing.T) {
	a := map[string]any{"log": map[string]any{"level": "info", "format": "json"}, "root": "."}
	b := map[string]any{"log": map[string]any{"level": "debug"}, "workers": 2}
	got := mergeMaps(a, b)
	log := got["log"].(map[string]any)
	if log["level"] != "debug" || log["format"] != "json" || got["workers"] != 2 || got["root"] != "." {
		t.Fatalf("merged = %v", got)
	}
}

func TestLoad_IncludesProfileEnvFlags(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "filacheck.yaml")
	writeFile(t, base, `
root: /catalog
workers: 2
format: json
log:
  level: info
profiles:
  ci:
    strict: true
    format: yaml
`)
	inc := filepath.Join(dir, "publish.yaml")
	writeFile(t, inc, `
publish:
  driver: file
  base_dir: /tmp/reports
  signed_url_ttl: 5m
`)
	t.Setenv("FILACHECK_WORKERS", "6")

	g := &Globals{}
	root, sub := newCommand(g)
	root.SetArgs([]string{"validate", "--config", base, "--include", inc, "--profile", "ci", "--root", dir})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	v, err := g.Load(sub)
	if err != nil {
		t.Fatal(err)
	}
	s, err := Decode(v)
	if err != nil {
		t.Fatal(err)
	}
	if s.Layout.Root != dir {
		t.Errorf("root flag should win: %s", s.Layout.Root)
	}
	if s.Workers != 6 {
		t.Errorf("env should override config: workers=%d", s.Workers)
	}
	if !s.Strict || s.Format != "yaml" {
		t.Errorf("profile not applied: strict=%v format=%s", s.Strict, s.Format)
	}
	if s.Publish.Driver != "file" || s.Publish.BaseDir != "/tmp/reports" || s.Publish.SignedURLTTL.Minutes() != 5 {
		t.Errorf("publish = %+v", s.Publish)
	}
}

func TestLoad_LogFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "filacheck.yaml")
	writeFile(t, base, "workers: 3\nlog:\n  level: info\n  format: json\n")

	g := &Globals{}
	root, sub := newCommand(g)
	root.SetArgs([]string{"validate", "--config", base, "--log.level", "debug", "--workers", "9"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	v, err := g.Load(sub)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q, want flag value", got)
	}
	if got := v.GetString("log.format"); got != "json" {
		t.Errorf("log.format = %q, want config value", got)
	}
	if got := v.GetInt("workers"); got != 9 {
		t.Errorf("workers = %d", got)
	}

	t.Setenv("FILACHECK_LOG_FORMAT", "console")
	if v, err = g.Load(sub); err != nil {
		t.Fatal(err)
	}
	if got := v.GetString("log.format"); got != "console" {
		t.Errorf("env should override config: log.format = %q", got)
	}
}

func TestDecode_DirOverrides(t *testing.T) {
	v := viper.New()
	v.Set("root", "/cat")
	v.Set("stores_dir", "shops")
	v.Set("schemas_dir", "/etc/schemas")
	s, err := Decode(v)
	if err != nil {
		t.Fatal(err)
	}
	if s.Layout.DataDir != filepath.Join("/cat", "data") {
		t.Errorf("data dir = %s", s.Layout.DataDir)
	}
	if s.Layout.StoresDir != filepath.Join("/cat", "shops") || s.Layout.SchemasDir != "/etc/schemas" {
		t.Errorf("layout = %+v", s.Layout)
	}
}

func TestApplySectionAndProfile_Missing(t *testing.T) {
	v := viper.New()
	v.Set("root", ".")
	if _, err := ApplySectionAndProfile(v, "", "ci"); err == nil {
		t.Fatal("expected missing profile error")
	}
}

func TestValidateConfig(t *testing.T) {
	root := t.TempDir()
	v := viper.New()
	v.Set("root", root)
	v.Set("format", "text")
	if err := ValidateConfig(v, false); err != nil {
		t.Fatalf("non-strict: %v", err)
	}
	if err := ValidateConfig(v, true); err == nil {
		t.Fatal("strict mode should require data dir")
	}
	for _, d := range []string{"data", "stores"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := ValidateConfig(v, true); err != nil {
		t.Fatalf("strict: %v", err)
	}

	v.Set("format", "xml")
	if err := ValidateConfig(v, false); err == nil {
		t.Fatal("expected format error")
	}
	v.Set("format", "json")
	v.Set("publish.driver", "oss")
	if err := ValidateConfig(v, false); err == nil {
		t.Fatal("expected publish error")
	}
	v.Set("publish.driver", "")
	v.Set("notify.type", "carrier-pigeon")
	if err := ValidateConfig(v, false); err == nil {
		t.Fatal("expected notify error")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
