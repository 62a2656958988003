package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || strings.TrimSpace(out) != "filacheck dev" {
		t.Fatalf("version: %v %q", err, out)
	}
}

func TestConfigTest(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"data", "stores"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cfg := filepath.Join(root, "filacheck.yaml")
	if err := os.WriteFile(cfg, []byte("root: "+root+"\nformat: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "config", "test", "--config", cfg)
	if err != nil || !strings.Contains(out, "config OK") {
		t.Fatalf("config test: %v\n%s", err, out)
	}

	bad := filepath.Join(root, "bad.yaml")
	if err := os.WriteFile(bad, []byte("root: "+root+"\nformat: xml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "config", "test", "--config", bad); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestCompletion(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	if err != nil || !strings.Contains(out, "filacheck") {
		t.Fatalf("completion: %v", err)
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Fatal("expected unknown shell error")
	}
}
