package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"releasewatch/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the announced-item ledger",
	}

	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerHasCommand(ctx))
	ledgerCmd.AddCommand(newLedgerCountCommand(ctx))
	return ledgerCmd
}

func withLedger(cmd *cobra.Command, ctx *commandContext, fn func(ledger.Ledger) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent announcements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, ctx, func(store ledger.Ledger) error {
				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No announced items")
					return nil
				}
				cfg, _ := ctx.ensureConfig()
				fmt.Fprintln(out, renderLedger(entries, cfg.Catalog.StoreURL))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func newLedgerHasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "has <item-id>",
		Short: "Report whether an item has been announced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return withLedger(cmd, ctx, func(store ledger.Ledger) error {
				present, err := store.Has(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), yesNo(present))
				return nil
			})
		},
	}
}

func newLedgerCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of announced items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, ctx, func(store ledger.Ledger) error {
				count, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), count)
				return nil
			})
		},
	}
}
