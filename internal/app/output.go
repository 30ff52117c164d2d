package app

import (
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// newTable returns a borderless, left-aligned table. Headers are colored
// only when color output is enabled.
func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetBorder(false)
	t.SetHeaderLine(false)
	t.SetColumnSeparator("  ")
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	if len(headers) > 0 {
		t.SetHeader(headers)
		if !color.NoColor {
			colors := make([]tablewriter.Colors, len(headers))
			for i := range colors {
				colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
			}
			t.SetHeaderColor(colors...)
		}
	}
	return t
}

// kvTable renders two-column key/value rows without a header.
func kvTable(w io.Writer, rows [][]string) {
	t := newTable(w)
	t.AppendBulk(rows)
	t.Render()
}
