package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cuihairu/filacheck/internal/objstore"
	"github.com/cuihairu/filacheck/internal/validation"
)

func sample() *validation.Report {
	return &validation.Report{
		RunID:     "3f2c",
		StartedAt: time.Date(2026, 3, 7, 22, 15, 0, 0, time.UTC),
		Passes:    []string{"json-files"},
		Tasks:     2,
		Issues: []validation.Issue{
			validation.Errorf("schema", "data/Acme/brand.json", "origin is required").At("$"),
			validation.Warnf("missing-logo", "stores/x/store.json", "Logo 'x.png' referenced by stores/x/store.json was not found in stores/x"),
		},
	}
}

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), FormatText, false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: %q", lines)
	}
	if lines[0] != "error   [schema] data/Acme/brand.json $: origin is required" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if strings.Count(lines[1], "stores/x/store.json") != 1 {
		t.Fatalf("path repeated: %q", lines[1])
	}
	if lines[2] != "validation failed: 1 error(s), 1 warning(s) in 2 task(s)" {
		t.Fatalf("summary = %q", lines[2])
	}
}

func TestRender_JSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), FormatJSON, false); err != nil {
		t.Fatal(err)
	}
	var got validation.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got.RunID != "3f2c" || len(got.Issues) != 2 || got.Issues[0].Pointer != "$" {
		t.Fatalf("decoded: %+v", got)
	}

	buf.Reset()
	if err := Render(&buf, sample(), FormatYAML, false); err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if doc["run_id"] != "3f2c" {
		t.Fatalf("yaml doc: %v", doc)
	}

	if err := Render(&buf, sample(), "xml", false); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestPublish(t *testing.T) {
	r := sample()
	if got := ArchiveKey("", r); got != "reports/2026/03/07/3f2c.json" {
		t.Fatalf("key = %s", got)
	}

	base := t.TempDir()
	store, err := objstore.Open(context.Background(), objstore.Config{Driver: "file", BaseDir: base})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	key, err := Publish(context.Background(), store, "ci/filacheck", r)
	if err != nil {
		t.Fatal(err)
	}
	if key != "ci/filacheck/2026/03/07/3f2c.json" {
		t.Fatalf("key = %s", key)
	}
	b, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(key)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"run_id": "3f2c"`)) {
		t.Fatalf("archived body: %s", b)
	}
}
