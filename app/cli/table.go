package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// property is a named value shown by commands that describe the store.
type property struct {
	Name, Value string
}

// writeProperties prints props as two left-aligned columns without borders,
// e.g. "Backend    badger".
func writeProperties(w io.Writer, props []property) {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("    ")
	table.SetNoWhiteSpace(true)

	for _, p := range props {
		table.Append([]string{p.Name, p.Value})
	}
	table.Render()
}
