package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"mcpatlas-go/internal/products/bitbucket"
	"mcpatlas-go/internal/products/confluence"
	"mcpatlas-go/internal/products/jira"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly-10", Truncate("exactly-10", 10))
	assert.Equal(t, "exactl...", Truncate("exactly-10!", 9))
	assert.Equal(t, "ab", Truncate("abcdef", 2))

	long := strings.Repeat("x", 100)
	got := Truncate(long, ListCellWidth)
	assert.Len(t, got, ListCellWidth)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncateMultibyte(t *testing.T) {
	got := Truncate("héllö wörld with accénts and more text here", 10)
	assert.Equal(t, "héllö w...", got)
}

func TestIssueDetailTitleLine(t *testing.T) {
	out := IssueDetail(jira.Issue{
		Key: "ABC-1", Summary: "Fix login race", Status: "In Progress",
		IssueType: "Bug", Priority: "High", Reporter: "Lee",
		Description: "Two goroutines touch the session map.",
	})
	assert.True(t, strings.HasPrefix(out, "## ABC-1 — Fix login race\n"), out)
	assert.Contains(t, out, "**Status:** In Progress")
	assert.Contains(t, out, "**Assignee:** _Unassigned_")
	assert.Contains(t, out, "### Description")
}

func TestIssueListTableAndCounts(t *testing.T) {
	out := IssueList(jira.SearchResult{
		Total: 12,
		Issues: []jira.Issue{
			{Key: "ABC-1", Summary: strings.Repeat("long summary ", 10), Status: "Open", IssueType: "Task", Assignee: "Sam"},
			{Key: "ABC-2", Summary: "Short", Status: "Done", IssueType: "Bug"},
		},
	})
	assert.Contains(t, out, "Found 12 issue(s), showing 2:")
	assert.Contains(t, out, "ABC-1")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "_Unassigned_")
}

func TestPageDetail(t *testing.T) {
	out := PageDetail(confluence.Page{
		ID: "123", Title: "Runbook", SpaceKey: "OPS", Version: 4,
		Author: "Kim", Body: "Restart the worker first.",
	})
	assert.True(t, strings.HasPrefix(out, "## Runbook\n"), out)
	assert.Contains(t, out, "**Version:** 4")
	assert.Contains(t, out, "### Content")
	// Empty dates dash out rather than vanish.
	assert.Contains(t, out, "**Created:** -")
}

func TestPullRequestDetailAndList(t *testing.T) {
	pr := bitbucket.PullRequest{
		ID: 7, Title: "Add cache", State: "OPEN", Author: "Sam",
		SourceBranch: "feat/cache", TargetBranch: "main",
	}
	detail := PullRequestDetail(pr)
	assert.True(t, strings.HasPrefix(detail, "## PR #7 — Add cache\n"), detail)
	assert.Contains(t, detail, "feat/cache → main")

	list := PullRequestList([]bitbucket.PullRequest{pr})
	assert.Contains(t, list, "#7")
	assert.Contains(t, list, "OPEN")
}

func TestCommitListShortensHashAndMessage(t *testing.T) {
	out := CommitList([]bitbucket.Commit{
		{Hash: "0123456789abcdef0123", Message: "first line\nsecond line", Author: "Lee", Date: "2026-01-02"},
	})
	assert.Contains(t, out, "0123456789ab")
	assert.NotContains(t, out, "0123456789abcdef0123")
	assert.Contains(t, out, "first line")
	assert.NotContains(t, out, "second line")
}

func TestCommentListEmpty(t *testing.T) {
	assert.Equal(t, "No comments on ABC-9.\n", CommentList("ABC-9", nil))
}
