package validatecmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuihairu/filacheck/internal/checks"
	common "github.com/cuihairu/filacheck/internal/cli/common"
	"github.com/cuihairu/filacheck/internal/engine"
	"github.com/cuihairu/filacheck/internal/notify"
	"github.com/cuihairu/filacheck/internal/objstore"
	"github.com/cuihairu/filacheck/internal/report"
	"github.com/cuihairu/filacheck/internal/telemetry"
	"github.com/cuihairu/filacheck/internal/validation"
)

// Options select what a run does beyond validating.
type Options struct {
	Passes  []string
	Publish bool
	Notify  bool
}

// New returns the `filacheck validate` command.
func New(g *common.Globals) *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the catalog",
		Long: "Validate the catalog. Without pass flags every pass runs: " +
			"json-files, folder-names, store-ids and assets.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := g.Init(cmd)
			if err != nil {
				return err
			}
			if err := common.ValidateConfig(v, false); err != nil {
				return err
			}
			s, err := common.Decode(v)
			if err != nil {
				return err
			}
			for _, name := range checks.Names() {
				if on, _ := cmd.Flags().GetBool(name); on {
					opts.Passes = append(opts.Passes, name)
				}
			}
			tp, err := telemetry.NewProvider(cmd.Context(), s.Telemetry)
			if err != nil {
				return err
			}
			defer shutdown(tp)

			r, _, err := Run(cmd.Context(), cmd.OutOrStdout(), s, opts)
			if err != nil {
				return err
			}
			if r.Failed(s.Strict) {
				return common.ErrValidationFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Bool(checks.PassJSONFiles, false, "validate JSON files against their schemas")
	f.Bool(checks.PassFolderNames, false, "validate folder names against JSON values")
	f.Bool(checks.PassStoreIDs, false, "validate store IDs referenced by purchase links")
	f.Bool(checks.PassAssets, false, "check logos and GTIN/EAN codes (warnings)")
	f.Bool("strict", false, "treat warnings as failures")
	f.Int("workers", 0, "parallel tasks (default: number of CPUs)")
	f.String("format", report.FormatText, "output format: text|json|yaml")
	f.BoolVar(&opts.Publish, "publish", false, "archive the JSON report in object storage (publish.*)")
	f.BoolVar(&opts.Notify, "notify", false, "send the run summary to the message queue (notify.*)")
	return cmd
}

// Run validates the catalog described by s, renders the report to out and
// optionally archives and announces it. The summary carries the archive
// key and link when the report was published.
func Run(ctx context.Context, out io.Writer, s common.Settings, opts Options) (*validation.Report, validation.Summary, error) {
	passes, err := checks.Select(opts.Passes...)
	if err != nil {
		return nil, validation.Summary{}, err
	}
	r, err := engine.New(passes, engine.WithWorkers(s.Workers)).Run(ctx, s.Layout)
	if err != nil {
		return nil, validation.Summary{}, err
	}
	if err := report.Render(out, r, s.Format, s.Strict); err != nil {
		return nil, validation.Summary{}, err
	}

	summary := r.Summarize(s.Strict)
	if opts.Publish {
		if summary.ArchiveKey, summary.ArchiveURL, err = publish(ctx, s.Publish, r); err != nil {
			return nil, summary, err
		}
	}
	if opts.Notify {
		if err := announce(ctx, s.Notify, summary); err != nil {
			return nil, summary, err
		}
	}
	return r, summary, nil
}

// publish uploads the report and returns its key and a signed link. A link
// that cannot be signed is logged and left empty.
func publish(ctx context.Context, c objstore.Config, r *validation.Report) (string, string, error) {
	store, err := objstore.Open(ctx, c)
	if err != nil {
		return "", "", fmt.Errorf("publish: %w", err)
	}
	defer store.Close()
	key, err := report.Publish(ctx, store, c.Prefix, r)
	if err != nil {
		return "", "", fmt.Errorf("publish: %w", err)
	}
	link, err := store.SignedURL(ctx, key, 0)
	if err != nil {
		slog.Warn("sign report link", "key", key, "error", err)
		link = ""
	}
	slog.Info("report archived", "driver", c.Driver, "key", key, "url", link)
	return key, link, nil
}

func announce(ctx context.Context, c notify.Config, s validation.Summary) error {
	p, err := notify.New(c, slog.Default())
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	defer p.Close()
	if err := p.Publish(ctx, s); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	slog.Debug("run summary sent", "type", c.Type, "run_id", s.RunID)
	return nil
}

func shutdown(tp *telemetry.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		slog.Warn("telemetry shutdown", "error", err)
	}
}
