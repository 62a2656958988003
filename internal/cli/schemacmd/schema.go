package schemacmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuihairu/filacheck/internal/catalog"
	common "github.com/cuihairu/filacheck/internal/cli/common"
	"github.com/cuihairu/filacheck/internal/report"
	"github.com/cuihairu/filacheck/internal/validation"
)

func entityNames() []string {
	var out []string
	for _, e := range catalog.Entities() {
		out = append(out, string(e))
	}
	return out
}

// New returns the `filacheck schema` command group.
func New(g *common.Globals) *cobra.Command {
	cmd := &cobra.Command{Use: "schema", Short: "Work with entity schemas"}
	cmd.AddCommand(newCheck(g), newShow(g))
	return cmd
}

func newCheck(g *common.Globals) *cobra.Command {
	return &cobra.Command{
		Use:       "check <entity> <file>",
		Short:     "Validate one file against an entity schema",
		Args:      cobra.ExactArgs(2),
		ValidArgs: entityNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := g.Init(cmd)
			if err != nil {
				return err
			}
			s, err := common.Decode(v)
			if err != nil {
				return err
			}
			entity, err := catalog.ParseEntity(args[0])
			if err != nil {
				return err
			}
			schemas, err := validation.LoadSchemas(s.Layout.SchemasDir)
			if err != nil {
				return err
			}
			issues := check(schemas, entity, args[1])
			out := cmd.OutOrStdout()
			for _, i := range issues {
				fmt.Fprintln(out, report.Line(i))
			}
			if len(issues) > 0 {
				return common.ErrValidationFailed
			}
			fmt.Fprintf(out, "%s is a valid %s file\n", args[1], entity)
			return nil
		},
	}
}

func check(schemas *validation.SchemaSet, entity catalog.Entity, path string) []validation.Issue {
	doc, err := catalog.ReadDocument(path)
	switch {
	case errors.Is(err, catalog.ErrInvalidJSON):
		return []validation.Issue{validation.Errorf(validation.RuleInvalidJSON, path, "Failed to import JSON from file: %s", path)}
	case err != nil:
		return []validation.Issue{validation.Errorf(validation.RuleInvalidJSON, path, "Failed to open the provided JSON file: %s", path)}
	}
	return schemas.Validate(entity, path, doc.Raw)
}

func newShow(g *common.Globals) *cobra.Command {
	return &cobra.Command{
		Use:       "show <entity>",
		Short:     "Print the schema in effect for an entity",
		Args:      cobra.ExactArgs(1),
		ValidArgs: entityNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := g.Init(cmd)
			if err != nil {
				return err
			}
			s, err := common.Decode(v)
			if err != nil {
				return err
			}
			entity, err := catalog.ParseEntity(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(filepath.Join(s.Layout.SchemasDir, entity.SchemaFile()))
			if errors.Is(err, os.ErrNotExist) {
				raw, err = validation.BuiltinSchema(entity)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, err = fmt.Fprintln(out, strings.TrimRight(string(raw), "\n"))
			return err
		},
	}
}
