package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelhq/kestrel/internal/engine"
	"github.com/kestrelhq/kestrel/internal/loader"
)

func newRunCmd() *cobra.Command {
	var (
		scripts []string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "run [script...]",
		Short: "Start the engine",
		Long:  "Starts the engine: activates plugins, loads the configured scripts plus any given on the command line, and drives the event loop until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Scripts = append(cfg.Scripts, scripts...)
			cfg.Scripts = append(cfg.Scripts, args...)

			e, err := engine.New(cfg, log)
			if err != nil {
				return err
			}
			if err := e.Start(); err != nil {
				e.Shutdown()
				return err
			}
			defer e.Shutdown()

			if watch || cfg.WatchPlugins {
				w, err := loader.Watch(cfg.PluginPaths, log, func(dir string) {
					log.Info().Str("dir", dir).Msg("plugin changed on disk; restart to pick it up")
				})
				if err != nil {
					return err
				}
				defer w.Close()
			}

			return runLoop(e)
		},
	}

	cmd.Flags().StringSliceVar(&scripts, "script", nil, "additional script to load at startup")
	cmd.Flags().BoolVar(&watch, "watch", false, "watch plugin paths for changes")
	return cmd
}

// runLoop drives the engine clock from wall time and drains events once per
// tick, until interrupted. The engine is single-threaded; all engine calls
// stay on this goroutine.
func runLoop(e *engine.Engine) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	start := time.Now()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigs:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			return nil
		case <-ticker.C:
			e.AdvanceTime(time.Since(start).Seconds())
			e.Drain()
		}
	}
}
