package checks

import (
	"context"
	"path/filepath"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/engine"
	"github.com/cuihairu/filacheck/internal/validation"
)

// FolderNames checks that each folder is named after the cleansed value of
// its entity's name key. Store folders only produce warnings.
type FolderNames struct{}

func (FolderNames) Name() string { return PassFolderNames }

func (FolderNames) Plan(_ context.Context, c *engine.Catalog) ([]engine.Task, error) {
	nodes := c.Tree.Named()
	tasks := make([]engine.Task, 0, len(nodes))
	for _, n := range nodes {
		n := n
		tasks = append(tasks, engine.Task{
			Pass: PassFolderNames,
			Path: n.Dir,
			Run: func(context.Context) []validation.Issue {
				if issue, bad := checkFolderName(n); bad {
					return []validation.Issue{issue}
				}
				return nil
			},
		})
	}
	return tasks, nil
}

func checkFolderName(n catalog.Node) (validation.Issue, bool) {
	doc, ok := readIfValid(n.File())
	if !ok {
		return validation.Issue{}, false
	}
	key := n.Entity.NameKey()
	want := catalog.Cleanse(doc.Get(key).String())
	if n.Name() == want {
		return validation.Issue{}, false
	}
	const msg = "The name of the folder %s does not match the value of '%s' (%s) of %s"
	file := filepath.Base(n.File())
	if n.Entity == catalog.EntityStore {
		return validation.Warnf(RuleStoreFolderName, n.Dir, msg, n.Dir, key, want, file), true
	}
	return validation.Errorf(RuleFolderName, n.Dir, msg, n.Dir, key, want, file), true
}
