package storecmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuihairu/filacheck/internal/catalog"
	common "github.com/cuihairu/filacheck/internal/cli/common"
)

func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	g := &common.Globals{}
	cmd := New(g)
	g.Bind(cmd)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--root", root, "--log.level", "error"))
	err := cmd.Execute()
	return out.String() + errOut.String(), err
}

func TestSaveListShowDelete(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "stores"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, root, "save", "--id", "amazon", "--name", "Amazon",
		"--storefront-url", "https://amazon.example", "--logo", "amazon.svg",
		"--ships-from", "US", "--ships-to", "US, CA")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(root, "stores", "amazon", "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "\n  \"ships_to\": [\n    \"US\",\n    \"CA\"\n  ]") {
		t.Fatalf("store.json:\n%s", raw)
	}

	// rename keeps values that were not given
	if _, err := run(t, root, "save", "--id", "amazon_us", "--old-id", "amazon"); err != nil {
		t.Fatal(err)
	}
	st, err := catalog.NewLayout(root).LoadStore("amazon_us")
	if err != nil {
		t.Fatal(err)
	}
	if st.Name != "Amazon" || st.StorefrontURL != "https://amazon.example" {
		t.Fatalf("store = %+v", st)
	}

	out, err := run(t, root, "list")
	if err != nil || !strings.Contains(out, "amazon_us") {
		t.Fatalf("list: %v\n%s", err, out)
	}
	out, err = run(t, root, "show", "amazon_us", "--format", "yaml")
	if err != nil || !strings.Contains(out, "storefront_url: https://amazon.example") {
		t.Fatalf("show: %v\n%s", err, out)
	}
	if _, err := run(t, root, "delete", "amazon_us"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, root, "show", "amazon_us"); !errors.Is(err, catalog.ErrStoreNotFound) {
		t.Fatalf("show after delete: %v", err)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	root := t.TempDir()
	out, err := run(t, root, "save", "--id", "shop", "--name", "Shop", "--storefront-url", "https://shop.example")
	if !errors.Is(err, common.ErrValidationFailed) {
		t.Fatalf("err = %v\n%s", err, out)
	}
	if _, statErr := os.Stat(filepath.Join(root, "stores", "shop")); !os.IsNotExist(statErr) {
		t.Fatal("invalid store was written")
	}
}
