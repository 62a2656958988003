package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	common "github.com/cuihairu/filacheck/internal/cli/common"
	migratecmd "github.com/cuihairu/filacheck/internal/cli/migratecmd"
	schemacmd "github.com/cuihairu/filacheck/internal/cli/schemacmd"
	storecmd "github.com/cuihairu/filacheck/internal/cli/storecmd"
	validatecmd "github.com/cuihairu/filacheck/internal/cli/validatecmd"
	watchcmd "github.com/cuihairu/filacheck/internal/cli/watchcmd"
)

var version = "dev"

func main() {
	root := newRoot()
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, common.ErrValidationFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	g := &common.Globals{}
	root := &cobra.Command{
		Use:           "filacheck",
		Short:         "Validate a filament catalog",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	g.Bind(root)

	root.AddCommand(validatecmd.New(g))
	root.AddCommand(schemacmd.New(g))
	root.AddCommand(watchcmd.New(g))
	root.AddCommand(storecmd.New(g))
	root.AddCommand(migratecmd.New(g))

	// completion
	comp := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	}
	comp.RunE = func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return root.GenBashCompletion(out)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(out)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	}
	root.AddCommand(comp)

	cfg := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	var strict bool
	cfgTest := &cobra.Command{
		Use:   "test",
		Short: "Validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := g.Load(cmd)
			if err != nil {
				return err
			}
			if err := common.ValidateConfig(v, strict); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config OK")
			return nil
		},
	}
	cfgTest.Flags().BoolVar(&strict, "strict", true, "also require the data and stores directories")
	cfg.AddCommand(cfgTest)
	root.AddCommand(cfg)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "filacheck", version)
		},
	})
	return root
}
