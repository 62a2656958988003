package checks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/engine"
	"github.com/cuihairu/filacheck/internal/validation"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newCatalog builds a small catalog that passes every check.
func newCatalog(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	brand := filepath.Join(root, "data", "Acme")
	variant := filepath.Join(brand, "PLA", "Basic", "Red")
	write(t, filepath.Join(brand, "brand.json"), `{"brand":"Acme","website":"https://acme.example","logo":"logo.png","origin":"DE"}`)
	write(t, filepath.Join(brand, "logo.png"), "png")
	write(t, filepath.Join(brand, "PLA", "material.json"), `{"material":"PLA"}`)
	write(t, filepath.Join(brand, "PLA", "Basic", "filament.json"), `{"name":"Basic","diameter_tolerance":0.02,"density":1.24}`)
	write(t, filepath.Join(variant, "variant.json"), `{"color_name":"Red","color_hex":"#FF0000"}`)
	write(t, filepath.Join(variant, "sizes.json"), `[{"filament_weight":1000,"diameter":1.75,"ean":"4001234567890",
  "purchase_links":[{"store_id":"amazon","url":"https://amazon.example/x"}]}]`)
	write(t, filepath.Join(root, "stores", "amazon", "store.json"), `{"id":"amazon","name":"Amazon","storefront_url":"https://amazon.example",
  "logo":"logo.svg","ships_from":["US"],"ships_to":["US","CA"]}`)
	write(t, filepath.Join(root, "stores", "amazon", "logo.svg"), "<svg/>")
	return root
}

func variantDir(root string) string {
	return filepath.Join(root, "data", "Acme", "PLA", "Basic", "Red")
}

func run(t *testing.T, root string, passes ...string) *validation.Report {
	t.Helper()
	selected, err := Select(passes...)
	if err != nil {
		t.Fatal(err)
	}
	r, err := engine.New(selected, engine.WithWorkers(4)).Run(context.Background(), catalog.NewLayout(root))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return r
}

func byRule(r *validation.Report, rule string) []validation.Issue {
	var out []validation.Issue
	for _, i := range r.Issues {
		if i.Rule == rule {
			out = append(out, i)
		}
	}
	return out
}

func TestValidCatalog(t *testing.T) {
	r := run(t, newCatalog(t))
	if len(r.Issues) != 0 {
		t.Fatalf("unexpected issues: %+v", r.Issues)
	}
	if len(r.Passes) != 4 {
		t.Fatalf("passes = %v", r.Passes)
	}
}

func TestJSONFiles(t *testing.T) {
	root := newCatalog(t)
	material := filepath.Join(root, "data", "Acme", "PLA", "material.json")
	if err := os.Remove(material); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(variantDir(root), "variant.json"), `{"color_name": "Red",`)
	write(t, filepath.Join(root, "data", "Acme", "brand.json"), `{"brand":"Acme","website":"https://acme.example","logo":"logo.png"}`)

	r := run(t, root, PassJSONFiles)
	missing := byRule(r, RuleMissingFile)
	if len(missing) != 1 || missing[0].Message != "Missing "+material {
		t.Fatalf("missing-file: %+v", missing)
	}
	if invalid := byRule(r, RuleInvalidJSON); len(invalid) != 1 || !strings.HasSuffix(invalid[0].Path, "variant.json") {
		t.Fatalf("invalid-json: %+v", invalid)
	}
	schema := byRule(r, RuleSchema)
	if len(schema) != 1 || !strings.Contains(schema[0].Message, "origin") || schema[0].Pointer != "$" {
		t.Fatalf("schema: %+v", schema)
	}
	if !r.Failed(false) {
		t.Fatal("report should fail")
	}
}

func TestJSONFiles_MissingStoreFile(t *testing.T) {
	root := newCatalog(t)
	if err := os.MkdirAll(filepath.Join(root, "stores", "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	r := run(t, root, PassJSONFiles)
	if missing := byRule(r, RuleMissingFile); len(missing) != 1 || !strings.HasSuffix(missing[0].Path, filepath.Join("empty", "store.json")) {
		t.Fatalf("missing store.json: %+v", r.Issues)
	}
}

func TestFolderNames(t *testing.T) {
	root := newCatalog(t)
	dir := variantDir(root)
	write(t, filepath.Join(dir, "variant.json"), `{"color_name":"Red/Dark ","color_hex":"#AA0000"}`)
	write(t, filepath.Join(root, "stores", "amazon", "store.json"), `{"id":"amazon_us"}`)
	write(t, filepath.Join(root, "data", "Acme", "PLA", "Basic", "filament.json"), `{not json`)

	r := run(t, root, PassFolderNames)
	errs := byRule(r, RuleFolderName)
	if len(errs) != 1 {
		t.Fatalf("folder-name: %+v", r.Issues)
	}
	want := "The name of the folder " + dir + " does not match the value of 'color_name' (Red Dark) of variant.json"
	if errs[0].Message != want || errs[0].Severity != validation.SeverityError {
		t.Fatalf("message = %q", errs[0].Message)
	}
	warns := byRule(r, RuleStoreFolderName)
	if len(warns) != 1 || warns[0].Severity != validation.SeverityWarning {
		t.Fatalf("store-folder-name: %+v", warns)
	}
	if r.Failed(false) != true || r.Warnings() != 1 {
		t.Fatalf("errors=%d warnings=%d", r.Errors(), r.Warnings())
	}
}

func TestFolderNames_MissingKey(t *testing.T) {
	root := newCatalog(t)
	write(t, filepath.Join(root, "data", "Acme", "PLA", "material.json"), `{}`)
	r := run(t, root, PassFolderNames)
	errs := byRule(r, RuleFolderName)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "'material' () of material.json") {
		t.Fatalf("missing key: %+v", r.Issues)
	}
}

func TestStoreIDs(t *testing.T) {
	root := newCatalog(t)
	sizes := filepath.Join(variantDir(root), "sizes.json")
	write(t, sizes, `[{"filament_weight":1000,"diameter":1.75,"purchase_links":[
  {"store_id":"amazon","url":"https://a.example"},
  {"store_id":"ebay","url":"https://e.example"},
  {"store_id":42,"url":"https://n.example"}]}]`)
	nested := filepath.Join(variantDir(root), "archive", "sizes.json")
	write(t, nested, `[{"purchase_links":[{"store_id":"gone"}]}]`)
	write(t, filepath.Join(root, "data", "Acme", "PLA", "Other", "Blue", "sizes.json"), `{"store_id":"ebay"}`)
	// purchase_links that is not an array is a schema issue only
	write(t, filepath.Join(root, "data", "Acme", "PLA", "Other", "Green", "sizes.json"), `[{"purchase_links":{"store_id":"ebay"}}]`)
	write(t, filepath.Join(root, "stores", "amazon2", "store.json"), `{"id":"amazon"}`)

	r := run(t, root, PassStoreIDs)
	unknown := byRule(r, RuleUnknownStore)
	if len(unknown) != 2 {
		t.Fatalf("unknown-store: %+v", r.Issues)
	}
	var ebay validation.Issue
	for _, i := range unknown {
		if i.Path == sizes {
			ebay = i
		}
	}
	want := "'ebay' is not a valid store ID. Found in " + sizes + " at location $[0].purchase_links[1]"
	if ebay.Message != want || ebay.Pointer != "$[0].purchase_links[1]" {
		t.Fatalf("unknown-store issue: %+v", ebay)
	}
	dup := byRule(r, RuleDuplicateStoreID)
	if len(dup) != 1 || !strings.Contains(dup[0].Path, "amazon2") {
		t.Fatalf("duplicate-store-id: %+v", dup)
	}
}

func TestAssets(t *testing.T) {
	root := newCatalog(t)
	if err := os.Remove(filepath.Join(root, "data", "Acme", "logo.png")); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(root, "stores", "amazon", "store.json"), `{"id":"amazon","logo":"https://cdn.example/amazon.svg"}`)
	write(t, filepath.Join(variantDir(root), "sizes.json"), `[{"ean":"4001234567890"},{"ean":"012345678905"}]`)

	r := run(t, root, PassAssets)
	logos := byRule(r, RuleMissingLogo)
	if len(logos) != 1 || !strings.HasSuffix(logos[0].Path, "brand.json") || logos[0].Pointer != "$.logo" {
		t.Fatalf("missing-logo: %+v", r.Issues)
	}
	gtin := byRule(r, RuleGTINAsEAN)
	if len(gtin) != 1 || gtin[0].Pointer != "$[1].ean" {
		t.Fatalf("gtin-as-ean: %+v", gtin)
	}
	if r.Failed(false) || !r.Failed(true) {
		t.Fatal("assets only warns")
	}
}

func TestSelect(t *testing.T) {
	passes, err := Select(PassStoreIDs, PassJSONFiles)
	if err != nil {
		t.Fatal(err)
	}
	if len(passes) != 2 || passes[0].Name() != PassJSONFiles || passes[1].Name() != PassStoreIDs {
		t.Fatalf("order: %v, %v", passes[0].Name(), passes[1].Name())
	}
	if _, err := Select("nope"); !errors.Is(err, ErrUnknownPass) {
		t.Fatalf("err = %v", err)
	}
	all, _ := Select()
	if len(all) != 4 {
		t.Fatalf("all = %d", len(all))
	}
}
