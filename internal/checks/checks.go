// Package checks holds the validation passes run by the engine.
package checks

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/engine"
	"github.com/cuihairu/filacheck/internal/validation"
)

// Rule codes.
const (
	RuleMissingFile      = "missing-file"
	RuleInvalidJSON      = validation.RuleInvalidJSON
	RuleSchema           = validation.RuleSchema
	RuleFolderName       = "folder-name"
	RuleStoreFolderName  = "store-folder-name"
	RuleUnknownStore     = "unknown-store"
	RuleDuplicateStoreID = "duplicate-store-id"
	RuleMissingLogo      = "missing-logo"
	RuleGTINAsEAN        = "gtin-as-ean"
)

// Pass names.
const (
	PassJSONFiles   = "json-files"
	PassFolderNames = "folder-names"
	PassStoreIDs    = "store-ids"
	PassAssets      = "assets"
)

var ErrUnknownPass = errors.New("unknown pass")

// All returns every pass in its canonical order.
func All() []engine.Pass {
	return []engine.Pass{JSONFiles{}, FolderNames{}, StoreIDs{}, Assets{}}
}

// Names lists the pass names in canonical order.
func Names() []string {
	var out []string
	for _, p := range All() {
		out = append(out, p.Name())
	}
	return out
}

// Select returns the named passes in canonical order. No names selects all.
func Select(names ...string) ([]engine.Pass, error) {
	if len(names) == 0 {
		return All(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}
	var out []engine.Pass
	for _, p := range All() {
		if want[p.Name()] {
			out = append(out, p)
			delete(want, p.Name())
		}
	}
	if len(want) > 0 {
		var unknown []string
		for n := range want {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownPass,
			strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}
	return out, nil
}

// readIfValid loads a file that other passes may depend on. Absent and
// unparseable files are reported by json-files, so callers just skip them.
func readIfValid(path string) (catalog.Document, bool) {
	doc, err := catalog.ReadDocument(path)
	if err != nil {
		return catalog.Document{}, false
	}
	return doc, true
}
