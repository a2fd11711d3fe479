package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"releasewatch/internal/daemonrun"
	"releasewatch/internal/pipeline"
	"releasewatch/internal/services"
)

func newOnceCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single discovery and announcement pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			components, err := daemonrun.Assemble(cmd.Context(), cfg, ctx.configPath, dryRun, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			passCtx := services.WithPassID(cmd.Context(), uuid.NewString())
			summary, err := components.Pipeline.RunPass(passCtx)
			printSummary(cmd.OutOrStdout(), summary, dryRun)
			if err != nil {
				return fmt.Errorf("pass failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render announcements without sending or recording them")
	return cmd
}

func printSummary(out io.Writer, summary pipeline.Summary, dryRun bool) {
	fields := []field{
		{"Discovered", strconv.Itoa(summary.Discovered)},
		{"Already announced", strconv.Itoa(summary.AlreadyAnnounced)},
		{"Ledger errors", strconv.Itoa(summary.LedgerErrors)},
		{"Enriched", strconv.Itoa(summary.Enriched)},
		{"Released", strconv.Itoa(summary.Released)},
	}
	if dryRun {
		fields = append(fields, field{"Previewed", strconv.Itoa(summary.Previewed)})
	} else {
		fields = append(fields,
			field{"Announced", strconv.Itoa(summary.Announced)},
			field{"Failed", strconv.Itoa(summary.Failed)},
			field{"Recorded", strconv.Itoa(summary.Recorded)},
			field{"Record failures", strconv.Itoa(summary.RecordFailures)},
		)
	}
	fields = append(fields, field{"Duration", summary.Duration.Round(time.Millisecond).String()})
	fmt.Fprintln(out, renderFields("Pass summary", fields, text.AlignRight))
}
