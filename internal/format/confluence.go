package format

import (
	"fmt"
	"strings"

	"mcpatlas-go/internal/products/confluence"
)

// PageDetail renders one page with its storage body flattened to text.
func PageDetail(page confluence.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", page.Title)
	sb.WriteString(metaLine(
		[2]string{"ID", page.ID},
		[2]string{"Space", page.SpaceKey},
		[2]string{"Version", fmt.Sprintf("%d", page.Version)},
	))
	sb.WriteString("\n")
	sb.WriteString(metaLine(
		[2]string{"Author", page.Author},
		[2]string{"Created", page.Created},
		[2]string{"Updated", page.Updated},
	))
	sb.WriteString("\n")
	if page.Body != "" {
		sb.WriteString("\n### Content\n\n" + page.Body + "\n")
	}
	return sb.String()
}

// PageList renders a search result or child listing as a table.
func PageList(result confluence.SearchResult) string {
	rows := make([][]string, 0, len(result.Pages))
	for _, p := range result.Pages {
		rows = append(rows, []string{
			p.ID,
			Cell(p.Title),
			orDash(p.SpaceKey),
			fmt.Sprintf("%d", p.Version),
			orDash(p.Updated),
		})
	}
	header := fmt.Sprintf("Found %d page(s), showing %d:\n\n", result.Total, len(result.Pages))
	return header + renderTable([]string{"ID", "Title", "Space", "Version", "Updated"}, rows)
}

// SpaceList renders the space table.
func SpaceList(spaces []confluence.Space) string {
	rows := make([][]string, 0, len(spaces))
	for _, s := range spaces {
		rows = append(rows, []string{s.Key, Cell(s.Name), orDash(s.Type)})
	}
	return renderTable([]string{"Key", "Name", "Type"}, rows)
}
