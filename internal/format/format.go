// Package format renders product records into the text blocks carried in
// tool responses. Every record gets two shapes: a detail block with a title
// line, metadata and body, and a compact list table.
package format

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ListCellWidth is the truncation width for long text fields in list tables.
const ListCellWidth = 48

// Truncate shortens s to at most n runes, ending in an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Cell truncates to the standard list width and dashes out empty values.
func Cell(s string) string {
	return orDash(Truncate(strings.TrimSpace(s), ListCellWidth))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orUnassigned(s string) string {
	if s == "" {
		return "_Unassigned_"
	}
	return s
}

// renderTable draws an ASCII table with the given headers.
func renderTable(headers []string, rows [][]string) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.Options(
		tablewriter.WithHeader(headers),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(len(headers), tw.AlignLeft)),
	)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return sb.String()
		}
	}
	if err := table.Render(); err != nil {
		return sb.String()
	}
	return sb.String()
}

// metaLine joins "key: value" pairs with " | " separators.
func metaLine(pairs ...[2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, "**"+p[0]+":** "+orDash(p[1]))
	}
	return strings.Join(parts, " | ")
}
