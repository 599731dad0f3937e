package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/internal/builtin/sqlitelog"
	"github.com/kestrelhq/kestrel/internal/loader"
	"github.com/kestrelhq/kestrel/internal/plugin"
)

func newPluginsCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List available plugins",
		Long:  "Lists the built-in plugins and every dynamic plugin found in the configured plugin paths.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := plugin.NewManager(log)

			if cfg.SQLiteLog.Enabled {
				if err := mgr.RegisterPlugin(sqlitelog.New(cfg.SQLiteLog.Path, log)); err != nil {
					return err
				}
			}
			loader.New(cfg.PluginPaths, log).ActivateAll(mgr)

			if len(mgr.Plugins()) == 0 {
				fmt.Println("no plugins found")
				return nil
			}
			if verbose {
				// Components and builtins only exist after pre-script init.
				mgr.InitPreScript()
				defer mgr.FinishPlugins()
			}
			fmt.Print(mgr.DescribePlugins(verbose))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include components, builtins, and hooks")
	return cmd
}
