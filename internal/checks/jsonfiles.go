package checks

import (
	"context"
	"errors"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/engine"
	"github.com/cuihairu/filacheck/internal/validation"
)

// JSONFiles checks that every directory carries its entity file and that
// the file parses and satisfies the entity schema.
type JSONFiles struct{}

func (JSONFiles) Name() string { return PassJSONFiles }

func (JSONFiles) Plan(_ context.Context, c *engine.Catalog) ([]engine.Task, error) {
	nodes := c.Tree.Nodes()
	tasks := make([]engine.Task, 0, len(nodes))
	for _, n := range nodes {
		n := n
		tasks = append(tasks, engine.Task{
			Pass: PassJSONFiles,
			Path: n.File(),
			Run: func(context.Context) []validation.Issue {
				return checkFile(c.Schemas, n)
			},
		})
	}
	return tasks, nil
}

func checkFile(schemas *validation.SchemaSet, n catalog.Node) []validation.Issue {
	file := n.File()
	if !catalog.Exists(file) {
		return []validation.Issue{validation.Errorf(RuleMissingFile, file, "Missing %s", file)}
	}
	doc, err := catalog.ReadDocument(file)
	switch {
	case errors.Is(err, catalog.ErrInvalidJSON):
		return []validation.Issue{validation.Errorf(RuleInvalidJSON, file, "Failed to import JSON from file: %s", file)}
	case err != nil:
		return []validation.Issue{validation.Errorf(RuleInvalidJSON, file, "Failed to open the provided JSON file: %s", file)}
	}
	return schemas.Validate(n.Entity, file, doc.Raw)
}
