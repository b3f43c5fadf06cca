package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kelno/audio-journal-transcriber/internal/daemon"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Watch the input tree and process recordings continuously",
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
			return daemon.New(cfg, pipeline, logger).Run(sigCtx)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log what would happen without modifying files or calling AI services")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	return cmd
}
