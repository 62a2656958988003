package storecmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuihairu/filacheck/internal/catalog"
	common "github.com/cuihairu/filacheck/internal/cli/common"
	"github.com/cuihairu/filacheck/internal/report"
	"github.com/cuihairu/filacheck/internal/validation"
)

// New returns the `filacheck store` command group.
func New(g *common.Globals) *cobra.Command {
	cmd := &cobra.Command{Use: "store", Short: "Manage store entries"}
	cmd.PersistentFlags().String("format", report.FormatText, "output format: text|json|yaml")
	cmd.AddCommand(newList(g), newShow(g), newSave(g), newDelete(g))
	return cmd
}

func settings(g *common.Globals, cmd *cobra.Command) (common.Settings, error) {
	v, err := g.Init(cmd)
	if err != nil {
		return common.Settings{}, err
	}
	return common.Decode(v)
}

func newList(g *common.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings(g, cmd)
			if err != nil {
				return err
			}
			stores, err := s.Layout.ListStores()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.Format != report.FormatText {
				return encode(out, s.Format, stores)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTOREFRONT\tSHIPS FROM\tSHIPS TO")
			for _, st := range stores {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", st.ID, st.Name, st.StorefrontURL,
					strings.Join(st.ShipsFrom, ","), strings.Join(st.ShipsTo, ","))
			}
			return tw.Flush()
		},
	}
}

func newShow(g *common.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings(g, cmd)
			if err != nil {
				return err
			}
			st, err := s.Layout.LoadStore(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.Format == report.FormatYAML {
				return encode(out, s.Format, st)
			}
			b, err := st.Marshal()
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		},
	}
}

func newSave(g *common.Globals) *cobra.Command {
	var in catalog.Store
	var oldID, shipsFrom, shipsTo string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a store",
		Long: "Create or update stores/<id>/store.json. Existing values are kept for flags " +
			"that are not given. With --old-id the store folder is renamed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings(g, cmd)
			if err != nil {
				return err
			}
			st := catalog.Store{}
			lookup := oldID
			if lookup == "" {
				lookup = in.ID
			}
			if existing, err := s.Layout.LoadStore(lookup); err == nil {
				st = *existing
			} else if !errors.Is(err, catalog.ErrStoreNotFound) {
				return err
			}
			f := cmd.Flags()
			set := func(name string, dst *string, val string) {
				if f.Changed(name) {
					*dst = val
				}
			}
			set("id", &st.ID, in.ID)
			set("name", &st.Name, in.Name)
			set("storefront-url", &st.StorefrontURL, in.StorefrontURL)
			set("affiliate-link", &st.StorefrontAffiliateLink, in.StorefrontAffiliateLink)
			set("logo", &st.Logo, in.Logo)
			if f.Changed("ships-from") {
				st.ShipsFrom = catalog.SplitList(shipsFrom)
			}
			if f.Changed("ships-to") {
				st.ShipsTo = catalog.SplitList(shipsTo)
			}
			st.Normalize()

			if issues, err := checkStore(s.Layout, st, oldID); err != nil {
				return err
			} else if len(issues) > 0 {
				for _, i := range issues {
					fmt.Fprintln(cmd.ErrOrStderr(), report.Line(i))
				}
				return fmt.Errorf("store %q not saved: %w", st.ID, common.ErrValidationFailed)
			}
			dir, err := s.Layout.SaveStore(st, oldID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", dir)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.ID, "id", "", "store id (required)")
	f.StringVar(&oldID, "old-id", "", "previous id when renaming a store")
	f.StringVar(&in.Name, "name", "", "display name")
	f.StringVar(&in.StorefrontURL, "storefront-url", "", "storefront URL")
	f.StringVar(&in.StorefrontAffiliateLink, "affiliate-link", "", "storefront affiliate link")
	f.StringVar(&in.Logo, "logo", "", "logo file name inside the store folder")
	f.StringVar(&shipsFrom, "ships-from", "", "comma separated country codes")
	f.StringVar(&shipsTo, "ships-to", "", "comma separated country codes")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// checkStore validates the document that would be written.
func checkStore(l catalog.Layout, st catalog.Store, oldID string) ([]validation.Issue, error) {
	schemas, err := validation.LoadSchemas(l.SchemasDir)
	if err != nil {
		return nil, err
	}
	b, err := l.EncodeStore(st, oldID)
	if err != nil {
		return nil, err
	}
	return schemas.Validate(catalog.EntityStore, catalog.EntityStore.FileName(), b), nil
}

func newDelete(g *common.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a store folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings(g, cmd)
			if err != nil {
				return err
			}
			if err := s.Layout.DeleteStore(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", s.Layout.StoreDir(args[0]))
			return nil
		},
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case report.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case report.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
