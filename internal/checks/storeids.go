package checks

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/engine"
	"github.com/cuihairu/filacheck/internal/validation"
)

// StoreIDs checks that every purchase link points at a declared store and
// that no two stores declare the same id.
type StoreIDs struct{}

func (StoreIDs) Name() string { return PassStoreIDs }

// StoreIndex maps store ids to the store.json files declaring them.
type StoreIndex map[string][]string

// Has reports whether id is declared by at least one store.
func (x StoreIndex) Has(id string) bool { return len(x[id]) > 0 }

// BuildStoreIndex reads every store.json with a string id. Unreadable
// files contribute nothing.
func BuildStoreIndex(stores []catalog.Node) StoreIndex {
	idx := make(StoreIndex, len(stores))
	for _, n := range stores {
		doc, ok := readIfValid(n.File())
		if !ok {
			continue
		}
		id := doc.Get("id")
		if id.Type != gjson.String {
			continue
		}
		idx[id.Str] = append(idx[id.Str], n.File())
	}
	return idx
}

func (StoreIDs) Plan(_ context.Context, c *engine.Catalog) ([]engine.Task, error) {
	idx := BuildStoreIndex(c.Tree.Stores)
	files, err := catalog.FindFiles(c.Layout.DataDir, catalog.EntitySizes.FileName())
	if err != nil {
		return nil, fmt.Errorf("find sizes files: %w", err)
	}

	tasks := make([]engine.Task, 0, len(files)+1)
	tasks = append(tasks, engine.Task{
		Pass: PassStoreIDs,
		Path: c.Layout.StoresDir,
		Run: func(context.Context) []validation.Issue {
			return duplicateStoreIDs(idx)
		},
	})
	for _, f := range files {
		f := f
		tasks = append(tasks, engine.Task{
			Pass: PassStoreIDs,
			Path: f,
			Run: func(context.Context) []validation.Issue {
				return unknownStores(idx, f)
			},
		})
	}
	return tasks, nil
}

func duplicateStoreIDs(idx StoreIndex) []validation.Issue {
	var out []validation.Issue
	for id, files := range idx {
		for _, f := range files[1:] {
			out = append(out, validation.Errorf(RuleDuplicateStoreID, f,
				"Store ID '%s' declared in %s is already declared in %s", id, f, files[0]))
		}
	}
	return out
}

func unknownStores(idx StoreIndex, file string) []validation.Issue {
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
		links := size.Get("purchase_links")
		if !links.IsArray() {
			continue
		}
		for j, link := range links.Array() {
			id := link.Get("store_id")
			if id.Type != gjson.String || idx.Has(id.Str) {
				continue
			}
			loc := fmt.Sprintf("$[%d].purchase_links[%d]", i, j)
			out = append(out, validation.Errorf(RuleUnknownStore, file,
				"'%s' is not a valid store ID. Found in %s at location %s", id.Str, file, loc).At(loc))
		}
	}
	return out
}
