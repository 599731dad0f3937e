// Package cli implements the kestrel command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/internal/config"
	"github.com/kestrelhq/kestrel/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	cfg *config.Config
	log *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kestrel",
		Short: "Kestrel — script-driven network event engine",
		Long:  "Kestrel runs Lua policy scripts over a network event stream and extends the engine through plugins hooked into its core loops.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			var err error
			cfg, err = config.Load(path)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log = logging.New(nil, cfg.LogLevel)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./kestrel.toml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, silent)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newPluginsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
