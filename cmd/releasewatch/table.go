package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"releasewatch/internal/catalog"
	"releasewatch/internal/ledger"
)

// field is one labelled line of a two-column report.
type field struct {
	label string
	value string
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

// renderLedger lists announced items newest first with their store pages.
func renderLedger(entries []ledger.Entry, storeURL string) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"#", "Item", "Announced", "Store page"})
	for _, entry := range entries {
		tw.AppendRow(table.Row{
			entry.RowID,
			int64(entry.ItemID),
			entry.AnnouncedOn,
			catalog.ItemURL(storeURL, entry.ItemID),
		})
	}
	tw.AppendFooter(table.Row{"", "", "Shown", strconv.Itoa(len(entries))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Name: "Item", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderFields prints a titled label/value report.
func renderFields(title string, fields []field, valueAlign text.Align) string {
	tw := newTableWriter()
	tw.SetTitle(title)
	for _, f := range fields {
		tw.AppendRow(table.Row{f.label, f.value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: valueAlign},
	})
	return tw.Render()
}
