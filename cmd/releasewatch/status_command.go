package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"releasewatch/internal/daemon"
	"releasewatch/internal/ledger"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and ledger status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Status", colorize)

			state, err := daemon.Probe(cfg)
			switch {
			case err != nil:
				lines = append(lines, renderStatusLine("Daemon", statusWarn, err.Error(), colorize))
			case state.Running && state.PID > 0:
				lines = append(lines, renderStatusLine("Daemon", statusOK, "running (pid "+strconv.Itoa(state.PID)+")", colorize))
			case state.Running:
				lines = append(lines, renderStatusLine("Daemon", statusOK, "running", colorize))
			default:
				lines = append(lines, renderStatusLine("Daemon", statusInfo, "stopped", colorize))
			}

			store, err := ledger.Open(cmd.Context(), cfg)
			if err != nil {
				lines = append(lines, renderStatusLine("Ledger", statusError, err.Error(), colorize))
			} else {
				defer store.Close()
				if count, err := store.Count(cmd.Context()); err != nil {
					lines = append(lines, renderStatusLine("Ledger", statusError, err.Error(), colorize))
				} else {
					lines = append(lines, renderStatusLine("Ledger", statusOK, fmt.Sprintf("%s, %d announced", cfg.Ledger.Driver, count), colorize))
				}
			}

			lines = append(lines,
				renderStatusLine("Config", statusInfo, ctx.configPath, colorize),
				renderStatusLine("Media mode", statusInfo, cfg.Dispatch.MediaMode, colorize),
				renderStatusLine("Poll interval", statusInfo, fmt.Sprintf("%dm", cfg.Schedule.PollIntervalMinutes), colorize),
				renderStatusLine("Ntfy alerts", statusInfo, yesNo(cfg.Notifications.NtfyTopic != ""), colorize),
			)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}
