package format

import (
	"fmt"
	"strings"

	"mcpatlas-go/internal/products/jira"
)

// IssueDetail renders one issue as a markdown block. The title line carries
// the key and summary; an empty assignee renders as unassigned.
func IssueDetail(issue jira.Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s — %s\n\n", issue.Key, issue.Summary)
	sb.WriteString(metaLine(
		[2]string{"Type", issue.IssueType},
		[2]string{"Status", issue.Status},
		[2]string{"Priority", issue.Priority},
	))
	sb.WriteString("\n")
	sb.WriteString("**Assignee:** " + orUnassigned(issue.Assignee) +
		" | **Reporter:** " + orDash(issue.Reporter) + "\n")
	sb.WriteString(metaLine(
		[2]string{"Created", issue.Created},
		[2]string{"Updated", issue.Updated},
	))
	sb.WriteString("\n")
	if len(issue.Labels) > 0 {
		sb.WriteString("**Labels:** " + strings.Join(issue.Labels, ", ") + "\n")
	}
	if issue.Description != "" {
		sb.WriteString("\n### Description\n\n" + issue.Description + "\n")
	}
	return sb.String()
}

// IssueList renders a search result as a table headed by the match count.
func IssueList(result jira.SearchResult) string {
	rows := make([][]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		rows = append(rows, []string{
			issue.Key,
			Cell(issue.Summary),
			orDash(issue.Status),
			orDash(issue.IssueType),
			orUnassigned(issue.Assignee),
		})
	}
	header := fmt.Sprintf("Found %d issue(s), showing %d:\n\n", result.Total, len(result.Issues))
	return header + renderTable([]string{"Key", "Summary", "Status", "Type", "Assignee"}, rows)
}

// ProjectList renders the project table.
func ProjectList(projects []jira.Project) string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.Key, Cell(p.Name), orDash(p.Lead)})
	}
	return renderTable([]string{"Key", "Name", "Lead"}, rows)
}

// SprintDetail renders an active sprint block.
func SprintDetail(s jira.Sprint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Sprint: %s\n\n", s.Name)
	sb.WriteString(metaLine(
		[2]string{"State", s.State},
		[2]string{"Start", s.StartDate},
		[2]string{"End", s.EndDate},
	))
	sb.WriteString("\n")
	if s.Goal != "" {
		sb.WriteString("\n**Goal:** " + s.Goal + "\n")
	}
	return sb.String()
}

// CommentList renders issue comments oldest first.
func CommentList(issueKey string, comments []jira.Comment) string {
	if len(comments) == 0 {
		return fmt.Sprintf("No comments on %s.\n", issueKey)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Comments on %s\n\n", issueKey)
	for _, c := range comments {
		fmt.Fprintf(&sb, "**%s** (%s):\n%s\n\n", orDash(c.Author), orDash(c.Created), c.Body)
	}
	return sb.String()
}
