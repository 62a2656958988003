package migratecmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	common "github.com/cuihairu/filacheck/internal/cli/common"
	"github.com/cuihairu/filacheck/internal/migrate"
)

// New returns the `filacheck migrate` command group.
func New(g *common.Globals) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Bulk edits of sizes.json files"}
	cmd.PersistentFlags().String("dir", "", "directory to scan (default: the catalog data dir)")
	cmd.PersistentFlags().Bool("dry-run", false, "report changes without writing")
	cmd.PersistentFlags().Int("workers", 0, "number of files processed in parallel")
	cmd.AddCommand(newAffiliate(g), newGTIN(g))
	return cmd
}

func newAffiliate(g *common.Globals) *cobra.Command {
	var prefix, host string
	cmd := &cobra.Command{
		Use:   "affiliate",
		Short: "Route purchase links through an affiliate redirect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, opts, err := setup(g, cmd)
			if err != nil {
				return err
			}
			results, err := migrate.Affiliate(dir, prefix, host, opts)
			if err != nil {
				return err
			}
			return summarize(cmd.OutOrStdout(), "affiliate", results, opts.DryRun)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "redirect prefix the escaped URL is appended to (required)")
	cmd.Flags().StringVar(&host, "host", "", "only rewrite URLs containing this host")
	_ = cmd.MarkFlagRequired("prefix")
	return cmd
}

func newGTIN(g *common.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "gtin",
		Short: "Move 12 digit ean values to gtin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, opts, err := setup(g, cmd)
			if err != nil {
				return err
			}
			results, err := migrate.GTIN(dir, opts)
			if err != nil {
				return err
			}
			return summarize(cmd.OutOrStdout(), "gtin", results, opts.DryRun)
		},
	}
}

func setup(g *common.Globals, cmd *cobra.Command) (string, migrate.Options, error) {
	v, err := g.Init(cmd)
	if err != nil {
		return "", migrate.Options{}, err
	}
	s, err := common.Decode(v)
	if err != nil {
		return "", migrate.Options{}, err
	}
	dir := v.GetString("dir")
	if dir == "" {
		dir = s.Layout.DataDir
	}
	return dir, migrate.Options{Workers: s.Workers, DryRun: v.GetBool("dry-run")}, nil
}

func summarize(w io.Writer, name string, results []migrate.Result, dryRun bool) error {
	changed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "FAIL  %s: %v\n", r.Path, r.Err)
		case r.Changed > 0:
			changed++
			fmt.Fprintf(w, "EDIT  %s (%d)\n", r.Path, r.Changed)
		}
	}
	failed := migrate.Failed(results)
	slog.Info("migration finished", "migration", name, "files", len(results),
		"changed", changed, "failed", failed, "dry_run", dryRun)
	fmt.Fprintf(w, "%s: %d file(s) scanned, %d changed, %d failed\n", name, len(results), changed, failed)
	if failed > 0 {
		return fmt.Errorf("%s migration: %d file(s) failed", name, failed)
	}
	return nil
}
