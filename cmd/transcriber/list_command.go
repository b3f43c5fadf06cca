package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show bundles with pending work",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := checkEnvironment(cfg); err != nil {
				return err
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			pipeline := buildPipeline(cfg, logger, true)
			pending, err := pipeline.Plan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "Nothing pending.")
				return nil
			}

			rows := make([][]string, 0, len(pending))
			for _, bundleJobs := range pending {
				b := bundleJobs.Bundle
				names := make([]string, 0, len(bundleJobs.Jobs))
				for _, job := range bundleJobs.Jobs {
					describe := job.Describe()
					// Trim the "(bundle name)" suffix, the row names the bundle.
					if idx := strings.Index(describe, "("); idx > 0 {
						describe = describe[:idx]
					}
					names = append(names, describe)
				}
				rows = append(rows, []string{
					b.Name,
					yesNo(b.HasAudio()),
					yesNo(b.HasTranscript()),
					yesNo(b.HasSummary()),
					strings.Join(names, ", "),
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Bundle", "Audio", "Transcript", "Summary", "Pending Jobs"},
				rows,
				nil,
			))
			return nil
		},
	}
}
