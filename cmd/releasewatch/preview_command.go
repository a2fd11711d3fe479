package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"releasewatch/internal/announce"
	"releasewatch/internal/catalog"
	"releasewatch/internal/classify"
	"releasewatch/internal/daemonrun"
	"releasewatch/internal/release"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <item-id>",
		Short: "Render the announcement for one item without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			components, err := daemonrun.Assemble(cmd.Context(), cfg, ctx.configPath, true, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			runCtx := cmd.Context()
			meta, ok := components.Fetcher.Fetch(runCtx, id)
			if !ok {
				return fmt.Errorf("metadata unavailable for item %d", id)
			}
			announced, err := components.Ledger.Has(runCtx, id)
			if err != nil {
				return err
			}

			category := classify.Classify(meta)
			channel := "not configured"
			if components.Live.Channel(string(category)) != "" {
				channel = "configured"
			}
			fields := []field{
				{"Item", fmt.Sprintf("%s (%d)", meta.DisplayName(), meta.ID)},
				{"Type", meta.Type},
				{"Release date", announce.FormatReleaseDate(meta.Release.Date)},
				{"Releasable", yesNo(release.Releasable(meta, time.Now()))},
				{"Category", category.Label()},
				{"Channel", channel},
				{"Already announced", yesNo(announced)},
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderFields("Preview", fields, text.AlignLeft))
			rendered := components.Dispatcher.Preview(meta)
			if rendered.ThreadName != "" {
				fmt.Fprintf(out, "\nThread: %s\n", rendered.ThreadName)
			}
			fmt.Fprintf(out, "\n%s\n", rendered.Content)
			if cfg.ThreadMode() {
				if trailers := announce.RenderTrailers(meta); trailers != "" {
					fmt.Fprintf(out, "\n%s\n", trailers)
				}
			}
			return nil
		},
	}
}

func parseItemID(value string) (catalog.ItemID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", value)
	}
	return catalog.ItemID(id), nil
}
