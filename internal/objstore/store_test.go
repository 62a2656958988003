package objstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"reports/2026/01/02/x.json": "reports/2026/01/02/x.json",
		"/abs/../x.json":            "abs/x.json",
		"./a//b/./c":                "a/b/c",
		"../../etc/passwd":          "etc/passwd",
	}
	for in, want := range cases {
		if got := sanitizeKey(in); got != want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildS3URL(t *testing.T) {
	u := buildS3URL(Config{Bucket: "reports", Region: "eu-west-1", ForcePathStyle: true})
	if !strings.HasPrefix(u, "s3://reports?") || !strings.Contains(u, "region=eu-west-1") || !strings.Contains(u, "s3ForcePathStyle=true") {
		t.Fatalf("url = %s", u)
	}
}

func TestValidate(t *testing.T) {
	bad := []Config{
		{},
		{Driver: "ftp"},
		{Driver: "s3"},
		{Driver: "oss", Bucket: "b"},
		{Driver: "cos", Bucket: "b", Region: "ap-guangzhou"},
		{Driver: "file"},
	}
	for _, c := range bad {
		if err := Validate(c); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
	good := []Config{
		{Driver: "s3", Bucket: "b"},
		{Driver: "OSS", Bucket: "b", Endpoint: "oss-cn-hangzhou.aliyuncs.com", AccessKey: "a", SecretKey: "s"},
		{Driver: "cos", Bucket: "b-125", Region: "ap-guangzhou", AccessKey: "a", SecretKey: "s"},
		{Driver: "file", BaseDir: t.TempDir()},
	}
	for _, c := range good {
		if err := Validate(c); err != nil {
			t.Errorf("unexpected error for %+v: %v", c, err)
		}
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := Open(ctx, Config{Driver: "file", BaseDir: base})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	body := `{"run_id":"x"}`
	if err := s.Put(ctx, "/reports/../2026/x.json", strings.NewReader(body), int64(len(body)), "application/json"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(base, "reports", "2026", "x.json"))
	if err != nil || string(got) != body {
		t.Fatalf("read back: %q %v", got, err)
	}
	u, err := s.SignedURL(ctx, "reports/2026/x.json", 0)
	if err != nil || !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/reports/2026/x.json") {
		t.Fatalf("signed url: %q %v", u, err)
	}
}
