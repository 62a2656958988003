package watchcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuihairu/filacheck/internal/checks"
	common "github.com/cuihairu/filacheck/internal/cli/common"
	"github.com/cuihairu/filacheck/internal/cli/validatecmd"
	"github.com/cuihairu/filacheck/internal/watch"
)

// New returns the `filacheck watch` command.
func New(g *common.Globals) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate, then re-validate whenever catalog JSON changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := g.Init(cmd)
			if err != nil {
				return err
			}
			if err := common.ValidateConfig(v, true); err != nil {
				return err
			}
			s, err := common.Decode(v)
			if err != nil {
				return err
			}
			var opts validatecmd.Options
			for _, name := range checks.Names() {
				if on, _ := cmd.Flags().GetBool(name); on {
					opts.Passes = append(opts.Passes, name)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			validate := func(ctx context.Context) {
				if _, _, err := validatecmd.Run(ctx, out, s, opts); err != nil && ctx.Err() == nil {
					slog.Error("validation run failed", "error", err)
				}
			}
			validate(ctx)

			cfg := watch.DefaultConfig(s.Layout.DataDir, s.Layout.StoresDir)
			if debounce > 0 {
				cfg.Debounce = debounce
			}
			w, err := watch.New(cfg, slog.Default())
			if err != nil {
				return err
			}
			return w.Run(ctx, func(ctx context.Context, changed []string) {
				slog.Info("catalog changed", "files", len(changed), "first", changed[0])
				fmt.Fprintln(out)
				validate(ctx)
			})
		},
	}
	f := cmd.Flags()
	for _, name := range checks.Names() {
		f.Bool(name, false, fmt.Sprintf("run only the %s pass (combinable)", name))
	}
	f.Bool("strict", false, "treat warnings as failures")
	f.Int("workers", 0, "parallel tasks (default: number of CPUs)")
	f.String("format", "text", "output format: text|json|yaml")
	f.DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before re-validating")
	return cmd
}
