package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process everything currently pending and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := checkEnvironment(cfg); err != nil {
				return err
			}
			applyLogLevel(cfg, logLevel)
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pipeline := buildPipeline(cfg, logger, dryRun)
			result, err := pipeline.Run(sigCtx)
			if err != nil {
				return err
			}
			if len(result.Unprocessed) > 0 {
				return fmt.Errorf("%d bundle(s) failed processing, see the log for details", len(result.Unprocessed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log what would happen without modifying files or calling AI services")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	return cmd
}
