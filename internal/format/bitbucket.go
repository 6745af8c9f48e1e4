package format

import (
	"fmt"
	"strings"

	"mcpatlas-go/internal/products/bitbucket"
)

// RepositoryDetail renders one repository block.
func RepositoryDetail(repo bitbucket.Repository) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", repo.FullName)
	visibility := "public"
	if repo.IsPrivate {
		visibility = "private"
	}
	sb.WriteString(metaLine(
		[2]string{"Language", repo.Language},
		[2]string{"Main branch", repo.MainBranch},
		[2]string{"Visibility", visibility},
		[2]string{"Updated", repo.Updated},
	))
	sb.WriteString("\n")
	if repo.Description != "" {
		sb.WriteString("\n" + repo.Description + "\n")
	}
	return sb.String()
}

// RepositoryList renders the repository table.
func RepositoryList(repos []bitbucket.Repository) string {
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, []string{
			r.Slug,
			Cell(r.Description),
			orDash(r.Language),
			orDash(r.MainBranch),
		})
	}
	return renderTable([]string{"Slug", "Description", "Language", "Main"}, rows)
}

// PullRequestDetail renders one pull request block.
func PullRequestDetail(pr bitbucket.PullRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## PR #%d — %s\n\n", pr.ID, pr.Title)
	sb.WriteString(metaLine(
		[2]string{"State", pr.State},
		[2]string{"Author", pr.Author},
		[2]string{"Branch", pr.SourceBranch + " → " + pr.TargetBranch},
	))
	sb.WriteString("\n")
	sb.WriteString(metaLine(
		[2]string{"Created", pr.Created},
		[2]string{"Updated", pr.Updated},
	))
	sb.WriteString("\n")
	if pr.Description != "" {
		sb.WriteString("\n### Description\n\n" + pr.Description + "\n")
	}
	return sb.String()
}

// PullRequestList renders the pull-request table.
func PullRequestList(prs []bitbucket.PullRequest) string {
	rows := make([][]string, 0, len(prs))
	for _, pr := range prs {
		rows = append(rows, []string{
			fmt.Sprintf("#%d", pr.ID),
			Cell(pr.Title),
			orDash(pr.State),
			orDash(pr.Author),
			orDash(pr.SourceBranch),
		})
	}
	return renderTable([]string{"ID", "Title", "State", "Author", "Source"}, rows)
}

// BranchList renders refs with their head commit.
func BranchList(branches []bitbucket.Branch) string {
	rows := make([][]string, 0, len(branches))
	for _, b := range branches {
		rows = append(rows, []string{b.Name, Cell(b.Target)})
	}
	return renderTable([]string{"Branch", "Head"}, rows)
}

// CommitList renders history newest first, one line of message per commit.
func CommitList(commits []bitbucket.Commit) string {
	rows := make([][]string, 0, len(commits))
	for _, c := range commits {
		hash := c.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		msg := c.Message
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		rows = append(rows, []string{hash, Cell(msg), orDash(c.Author), orDash(c.Date)})
	}
	return renderTable([]string{"Hash", "Message", "Author", "Date"}, rows)
}

// CodeMatchList renders code-search hits.
func CodeMatchList(query string, matches []bitbucket.CodeMatch) string {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{Cell(m.Path), orDash(m.Repo), fmt.Sprintf("%d", m.Matches)})
	}
	header := fmt.Sprintf("Code matches for %q:\n\n", query)
	return header + renderTable([]string{"Path", "Repository", "Matches"}, rows)
}
