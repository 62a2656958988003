package checks

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/engine"
	"github.com/cuihairu/filacheck/internal/validation"
)

// Assets warns about logos missing next to their brand or store file and
// about GTIN-12 codes filed under ean.
type Assets struct{}

func (Assets) Name() string { return PassAssets }

func (Assets) Plan(_ context.Context, c *engine.Catalog) ([]engine.Task, error) {
	var tasks []engine.Task
	for _, group := range [][]catalog.Node{c.Tree.Brands, c.Tree.Stores} {
		for _, n := range group {
			n := n
			tasks = append(tasks, engine.Task{
				Pass: PassAssets,
				Path: n.File(),
				Run: func(context.Context) []validation.Issue {
					return checkLogo(n)
				},
			})
		}
	}
	for _, n := range c.Tree.Sizes {
		n := n
		tasks = append(tasks, engine.Task{
			Pass: PassAssets,
			Path: n.File(),
			Run: func(context.Context) []validation.Issue {
				return checkEAN(n.File())
			},
		})
	}
	return tasks, nil
}

func checkLogo(n catalog.Node) []validation.Issue {
	doc, ok := readIfValid(n.File())
	if !ok {
		return nil
	}
	logo := doc.Get("logo")
	if logo.Type != gjson.String || logo.Str == "" {
		return nil
	}
	if u, err := url.Parse(logo.Str); err == nil && u.Scheme != "" {
		return nil
	}
	if catalog.Exists(filepath.Join(n.Dir, filepath.FromSlash(logo.Str))) {
		return nil
	}
	file := n.File()
	return []validation.Issue{validation.Warnf(RuleMissingLogo, file,
		"Logo '%s' referenced by %s was not found in %s", logo.Str, file, n.Dir).At("$.logo")}
}

func checkEAN(file string) []validation.Issue {
	doc, ok := readIfValid(file)
	if !ok {
		return nil
	}
	root := doc.Root()
	if !root.IsArray() {
		return nil
	}
	var out []validation.Issue
	for i, size := range root.Array() {
		ean := size.Get("ean")
		if ean.Type != gjson.String || len(ean.Str) != 12 {
			continue
		}
		out = append(out, validation.Warnf(RuleGTINAsEAN, file,
			"'%s' has 12 digits and is a GTIN-12/UPC; move it from 'ean' to 'gtin'", ean.Str).At(fmt.Sprintf("$[%d].ean", i)))
	}
	return out
}
