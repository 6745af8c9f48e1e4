package format

import (
	"fmt"
	"sort"
	"strings"

	"mcpatlas-go/internal/vault"
)

// ResourceDetail renders one learning resource block.
func ResourceDetail(r vault.Resource) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", r.Title)
	sb.WriteString(metaLine(
		[2]string{"ID", r.ID},
		[2]string{"Type", string(r.Type)},
		[2]string{"Difficulty", r.Difficulty.String()},
		[2]string{"Freshness", r.Freshness.String()},
	))
	sb.WriteString("\n")
	official := "no"
	if r.Official {
		official = "yes"
	}
	free := "no"
	if r.Free {
		free = "yes"
	}
	sb.WriteString(metaLine(
		[2]string{"Official", official},
		[2]string{"Free", free},
		[2]string{"Author", r.Author},
	))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "**URL:** %s\n", orDash(r.URL))
	if len(r.Categories) > 0 || len(r.Concepts) > 0 {
		sb.WriteString("**Topics:** " + joinTopics(r.Categories, r.Concepts) + "\n")
	}
	if r.Description != "" {
		sb.WriteString("\n" + r.Description + "\n")
	}
	return sb.String()
}

// ResourceList renders a browse result as a table.
func ResourceList(resources []vault.Resource) string {
	rows := make([][]string, 0, len(resources))
	for _, r := range resources {
		rows = append(rows, []string{
			r.ID,
			Cell(r.Title),
			string(r.Type),
			r.Difficulty.String(),
			orDash(joinTopics(r.Categories, nil)),
		})
	}
	header := fmt.Sprintf("%d resource(s):\n\n", len(resources))
	return header + renderTable([]string{"ID", "Title", "Type", "Difficulty", "Categories"}, rows)
}

// VaultStats renders the collection counters.
func VaultStats(st vault.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Vault statistics\n\n")
	fmt.Fprintf(&sb, "**Total:** %d | **Official:** %d | **Free:** %d\n\n", st.Total, st.Official, st.Free)

	sb.WriteString("By category:\n")
	for _, line := range sortedCounts(st.ByCategory) {
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("By difficulty:\n")
	for _, line := range sortedCounts(st.ByDifficulty) {
		sb.WriteString("  " + line + "\n")
	}
	sb.WriteString("By type:\n")
	for _, line := range sortedCounts(st.ByType) {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

func sortedCounts[K comparable](m map[K]int) []string {
	lines := make([]string, 0, len(m))
	for k, n := range m {
		lines = append(lines, fmt.Sprintf("%v: %d", k, n))
	}
	sort.Strings(lines)
	return lines
}

func joinTopics(categories []vault.Category, concepts []vault.ConceptArea) string {
	parts := make([]string, 0, len(categories)+len(concepts))
	for _, c := range categories {
		parts = append(parts, string(c))
	}
	for _, c := range concepts {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}
