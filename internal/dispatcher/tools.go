package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mcpatlas-go/internal/apperrors"
	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/export"
	"mcpatlas-go/internal/format"
	"mcpatlas-go/internal/products/confluence"
	"mcpatlas-go/internal/products/jira"
	"mcpatlas-go/internal/vault"
)

func (d *Dispatcher) buildTable() map[string]toolSpec {
	table := map[string]toolSpec{}

	add := func(name string, product config.Product, required, numeric []string,
		handler func(ctx context.Context, args map[string]string) (string, error)) {
		table[name] = toolSpec{product: product, required: required, numeric: numeric, handler: handler}
	}

	// Jira
	add("jira_search", config.ProductJira, []string{"query"}, []string{"maxResults"}, d.jiraSearch)
	add("jira_get_issue", config.ProductJira, []string{"issueKey"}, nil, d.jiraGetIssue)
	add("jira_create_issue", config.ProductJira, []string{"projectKey", "issueType", "summary"}, nil, d.jiraCreateIssue)
	add("jira_update_issue", config.ProductJira, []string{"issueKey"}, nil, d.jiraUpdateIssue)
	add("jira_transition_issue", config.ProductJira, []string{"issueKey", "transition"}, nil, d.jiraTransitionIssue)
	add("jira_list_projects", config.ProductJira, nil, nil, d.jiraListProjects)
	add("jira_get_active_sprint", config.ProductJira, []string{"boardId"}, []string{"boardId"}, d.jiraGetActiveSprint)
	add("jira_list_sprint_issues", config.ProductJira, []string{"sprintId"}, []string{"sprintId"}, d.jiraListSprintIssues)
	add("jira_add_comment", config.ProductJira, []string{"issueKey", "body"}, nil, d.jiraAddComment)
	add("jira_get_comments", config.ProductJira, []string{"issueKey"}, nil, d.jiraGetComments)
	add("jira_assign_issue", config.ProductJira, []string{"issueKey", "assignee"}, nil, d.jiraAssignIssue)

	// Confluence
	add("confluence_search", config.ProductConfluence, []string{"query"}, []string{"limit"}, d.confluenceSearch)
	add("confluence_get_page", config.ProductConfluence, []string{"pageId"}, nil, d.confluenceGetPage)
	add("confluence_create_page", config.ProductConfluence, []string{"spaceKey", "title", "body"}, nil, d.confluenceCreatePage)
	add("confluence_update_page", config.ProductConfluence, []string{"pageId", "body"}, nil, d.confluenceUpdatePage)
	add("confluence_list_spaces", config.ProductConfluence, nil, []string{"limit"}, d.confluenceListSpaces)
	add("confluence_get_page_children", config.ProductConfluence, []string{"pageId"}, nil, d.confluenceGetPageChildren)
	add("confluence_delete_page", config.ProductConfluence, []string{"pageId"}, nil, d.confluenceDeletePage)

	// Bitbucket
	add("bitbucket_list_repositories", config.ProductBitbucket, nil, []string{"limit"}, d.bitbucketListRepositories)
	add("bitbucket_get_repository", config.ProductBitbucket, []string{"repoSlug"}, nil, d.bitbucketGetRepository)
	add("bitbucket_list_pull_requests", config.ProductBitbucket, []string{"repoSlug"}, nil, d.bitbucketListPullRequests)
	add("bitbucket_get_pull_request", config.ProductBitbucket, []string{"repoSlug", "prId"}, []string{"prId"}, d.bitbucketGetPullRequest)
	add("bitbucket_create_pull_request", config.ProductBitbucket, []string{"repoSlug", "title", "sourceBranch"}, nil, d.bitbucketCreatePullRequest)
	add("bitbucket_list_branches", config.ProductBitbucket, []string{"repoSlug"}, nil, d.bitbucketListBranches)
	add("bitbucket_get_commits", config.ProductBitbucket, []string{"repoSlug"}, []string{"limit"}, d.bitbucketGetCommits)
	add("bitbucket_search_code", config.ProductBitbucket, []string{"query"}, nil, d.bitbucketSearchCode)

	// Cross-product
	add("atlassian_unified_search", config.ProductSystem, []string{"query"}, nil, d.unifiedSearch)

	// Learning vault
	add("discover_resources", config.ProductLearning, []string{"query"}, []string{"limit"}, d.discoverResources)
	add("search_resources", config.ProductLearning, nil, []string{"limit"}, d.searchResources)
	add("get_resource", config.ProductLearning, []string{"id"}, nil, d.getResource)
	add("add_resource_from_url", config.ProductLearning, []string{"url"}, nil, d.addResourceFromURL)
	add("summarize_url", config.ProductLearning, []string{"url"}, nil, d.summarizeURL)
	add("export_results", config.ProductLearning, []string{"format"}, nil, d.exportResults)
	add("vault_stats", config.ProductLearning, nil, nil, d.vaultStats)

	return table
}

// --- Jira ---

func (d *Dispatcher) jiraSearch(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	result, err := d.jira.Search(ctx, args["query"], argInt(args, "maxResults", 25))
	if err != nil {
		return "", err
	}
	return format.IssueList(result), nil
}

func (d *Dispatcher) jiraGetIssue(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	issue, err := d.jira.GetIssue(ctx, args["issueKey"])
	if err != nil {
		return "", err
	}
	return format.IssueDetail(issue), nil
}

func (d *Dispatcher) jiraCreateIssue(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	issue, err := d.jira.CreateIssue(ctx, args["projectKey"], args["issueType"], args["summary"], args["description"])
	if err != nil {
		return "", err
	}
	return "Created " + issue.Key + "\n\n" + format.IssueDetail(issue), nil
}

func (d *Dispatcher) jiraUpdateIssue(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	fields := map[string]interface{}{}
	if s := strings.TrimSpace(args["summary"]); s != "" {
		fields["summary"] = s
	}
	if s := strings.TrimSpace(args["description"]); s != "" {
		fields["description"] = s
	}
	if len(fields) == 0 {
		return "", apperrors.New(apperrors.KindArgument, "nothing to update; pass summary or description")
	}
	if err := d.jira.UpdateIssue(ctx, args["issueKey"], fields); err != nil {
		return "", err
	}
	return "Updated " + args["issueKey"], nil
}

func (d *Dispatcher) jiraTransitionIssue(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	if err := d.jira.TransitionIssue(ctx, args["issueKey"], args["transition"]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Transitioned %s via %q", args["issueKey"], args["transition"]), nil
}

func (d *Dispatcher) jiraListProjects(ctx context.Context, _ map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	projects, err := d.jira.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	return format.ProjectList(projects), nil
}

func (d *Dispatcher) jiraGetActiveSprint(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	sprint, err := d.jira.GetActiveSprint(ctx, argInt(args, "boardId", 0))
	if err != nil {
		return "", err
	}
	return format.SprintDetail(sprint), nil
}

func (d *Dispatcher) jiraListSprintIssues(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	issues, err := d.jira.ListSprintIssues(ctx, argInt(args, "sprintId", 0))
	if err != nil {
		return "", err
	}
	return format.IssueList(jira.SearchResult{Total: len(issues), Issues: issues}), nil
}

func (d *Dispatcher) jiraAddComment(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	if err := d.jira.AddComment(ctx, args["issueKey"], args["body"]); err != nil {
		return "", err
	}
	return "Comment added to " + args["issueKey"], nil
}

func (d *Dispatcher) jiraGetComments(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	comments, err := d.jira.GetComments(ctx, args["issueKey"])
	if err != nil {
		return "", err
	}
	return format.CommentList(args["issueKey"], comments), nil
}

func (d *Dispatcher) jiraAssignIssue(ctx context.Context, args map[string]string) (string, error) {
	if d.jira == nil {
		return "", notConfigured(config.ProductJira)
	}
	if err := d.jira.AssignIssue(ctx, args["issueKey"], args["assignee"]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Assigned %s to %s", args["issueKey"], args["assignee"]), nil
}

// --- Confluence ---

func (d *Dispatcher) confluenceSearch(ctx context.Context, args map[string]string) (string, error) {
	if d.confluence == nil {
		return "", notConfigured(config.ProductConfluence)
	}
	result, err := d.confluence.Search(ctx, args["query"], argInt(args, "limit", 25))
	if err != nil {
		return "", err
	}
	return format.PageList(result), nil
}

func (d *Dispatcher) confluenceGetPage(ctx context.Context, args map[string]string) (string, error) {
	if d.confluence == nil {
		return "", notConfigured(config.ProductConfluence)
	}
	page, err := d.confluence.GetPage(ctx, args["pageId"])
	if err != nil {
		return "", err
	}
	return format.PageDetail(page), nil
}

func (d *Dispatcher) confluenceCreatePage(ctx context.Context, args map[string]string) (string, error) {
	if d.confluence == nil {
		return "", notConfigured(config.ProductConfluence)
	}
	page, err := d.confluence.CreatePage(ctx, args["spaceKey"], args["title"], args["body"])
	if err != nil {
		return "", err
	}
	return "Created page " + page.ID + "\n\n" + format.PageDetail(page), nil
}

func (d *Dispatcher) confluenceUpdatePage(ctx context.Context, args map[string]string) (string, error) {
	if d.confluence == nil {
		return "", notConfigured(config.ProductConfluence)
	}
	page, err := d.confluence.UpdatePage(ctx, args["pageId"], args["title"], args["body"])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated page %s to version %d", page.ID, page.Version), nil
}

func (d *Dispatcher) confluenceListSpaces(ctx context.Context, args map[string]string) (string, error) {
	if d.confluence == nil {
		return "", notConfigured(config.ProductConfluence)
	}
	spaces, err := d.confluence.ListSpaces(ctx, argInt(args, "limit", 25))
	if err != nil {
		return "", err
	}
	return format.SpaceList(spaces), nil
}

func (d *Dispatcher) confluenceGetPageChildren(ctx context.Context, args map[string]string) (string, error) {
	if d.confluence == nil {
		return "", notConfigured(config.ProductConfluence)
	}
	children, err := d.confluence.GetPageChildren(ctx, args["pageId"])
	if err != nil {
		return "", err
	}
	return format.PageList(confluence.SearchResult{Total: len(children), Pages: children}), nil
}

func (d *Dispatcher) confluenceDeletePage(ctx context.Context, args map[string]string) (string, error) {
	if d.confluence == nil {
		return "", notConfigured(config.ProductConfluence)
	}
	if err := d.confluence.DeletePage(ctx, args["pageId"]); err != nil {
		return "", err
	}
	return "Deleted page " + args["pageId"], nil
}

// --- Bitbucket ---

func (d *Dispatcher) bitbucketListRepositories(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	repos, err := d.bitbucket.ListRepositories(ctx, args["workspace"], argInt(args, "limit", 25))
	if err != nil {
		return "", err
	}
	return format.RepositoryList(repos), nil
}

func (d *Dispatcher) bitbucketGetRepository(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	repo, err := d.bitbucket.GetRepository(ctx, args["workspace"], args["repoSlug"])
	if err != nil {
		return "", err
	}
	return format.RepositoryDetail(repo), nil
}

func (d *Dispatcher) bitbucketListPullRequests(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	prs, err := d.bitbucket.ListPullRequests(ctx, args["workspace"], args["repoSlug"], args["state"])
	if err != nil {
		return "", err
	}
	return format.PullRequestList(prs), nil
}

func (d *Dispatcher) bitbucketGetPullRequest(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	pr, err := d.bitbucket.GetPullRequest(ctx, args["workspace"], args["repoSlug"], argInt(args, "prId", 0))
	if err != nil {
		return "", err
	}
	return format.PullRequestDetail(pr), nil
}

func (d *Dispatcher) bitbucketCreatePullRequest(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	pr, err := d.bitbucket.CreatePullRequest(ctx, args["workspace"], args["repoSlug"],
		args["title"], args["sourceBranch"], args["targetBranch"])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created PR #%d\n\n%s", pr.ID, format.PullRequestDetail(pr)), nil
}

func (d *Dispatcher) bitbucketListBranches(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	branches, err := d.bitbucket.ListBranches(ctx, args["workspace"], args["repoSlug"])
	if err != nil {
		return "", err
	}
	return format.BranchList(branches), nil
}

func (d *Dispatcher) bitbucketGetCommits(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	commits, err := d.bitbucket.GetCommits(ctx, args["workspace"], args["repoSlug"], argInt(args, "limit", 25))
	if err != nil {
		return "", err
	}
	return format.CommitList(commits), nil
}

func (d *Dispatcher) bitbucketSearchCode(ctx context.Context, args map[string]string) (string, error) {
	if d.bitbucket == nil {
		return "", notConfigured(config.ProductBitbucket)
	}
	matches, err := d.bitbucket.SearchCode(ctx, args["workspace"], args["query"])
	if err != nil {
		return "", err
	}
	return format.CodeMatchList(args["query"], matches), nil
}

// --- Learning vault ---

func (d *Dispatcher) discoverResources(_ context.Context, args map[string]string) (string, error) {
	res := d.discover.Discover(args["query"], argInt(args, "limit", 0))
	d.setLastResult(res)
	return res.Summary + "\n\n" + export.Markdown(res), nil
}

func (d *Dispatcher) searchResources(_ context.Context, args map[string]string) (string, error) {
	filter := vault.Filter{
		FreeOnly:     config.ParseBool(args["freeOnly"]),
		OfficialOnly: config.ParseBool(args["officialOnly"]),
	}
	if raw := strings.TrimSpace(args["category"]); raw != "" {
		c, ok := vault.ParseCategory(raw)
		if !ok {
			return "", apperrors.New(apperrors.KindArgument, "unknown category '%s'", raw)
		}
		filter.Category = c
	}
	if raw := strings.TrimSpace(args["concept"]); raw != "" {
		c, ok := vault.ParseConceptArea(raw)
		if !ok {
			return "", apperrors.New(apperrors.KindArgument, "unknown concept area '%s'", raw)
		}
		filter.Concept = c
	}
	if raw := strings.TrimSpace(args["type"]); raw != "" {
		filter.Type = vault.ParseResourceType(raw)
	}
	if raw := strings.TrimSpace(args["difficulty"]); raw != "" {
		diff, ok := vault.ParseDifficulty(raw)
		if !ok {
			return "", apperrors.New(apperrors.KindArgument, "unknown difficulty '%s'", raw)
		}
		filter.MinDifficulty = diff
		filter.MaxDifficulty = diff
	}
	return format.ResourceList(d.store.Browse(filter, argInt(args, "limit", 0))), nil
}

func (d *Dispatcher) getResource(_ context.Context, args map[string]string) (string, error) {
	r, err := d.store.Get(strings.TrimSpace(args["id"]))
	if err != nil {
		return "", err
	}
	return format.ResourceDetail(r), nil
}

func (d *Dispatcher) addResourceFromURL(ctx context.Context, args map[string]string) (string, error) {
	url := strings.TrimSpace(args["url"])
	cs, err := d.scraper.Summarize(ctx, url)
	if err != nil {
		return "", err
	}

	r := vault.Resource{
		ID:          "url-" + uuid.NewString()[:8],
		Title:       cs.Title,
		Description: cs.Summary,
		URL:         url,
		Type:        vault.ParseResourceType(args["type"]),
		Difficulty:  cs.Difficulty,
		Freshness:   vault.PeriodicallyUpdated,
		Free:        true,
	}
	if t := strings.TrimSpace(args["title"]); t != "" {
		r.Title = t
	}
	if raw := strings.TrimSpace(args["category"]); raw != "" {
		c, ok := vault.ParseCategory(raw)
		if !ok {
			return "", apperrors.New(apperrors.KindArgument, "unknown category '%s'", raw)
		}
		r.Categories = []vault.Category{c}
	} else {
		r.Categories = []vault.Category{vault.CategoryGeneral}
	}
	if err := d.store.Add(r); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added resource %s (session only).\n\n%s", r.ID, format.ResourceDetail(r)), nil
}

func (d *Dispatcher) summarizeURL(ctx context.Context, args map[string]string) (string, error) {
	cs, err := d.scraper.Summarize(ctx, strings.TrimSpace(args["url"]))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", cs.Title)
	fmt.Fprintf(&sb, "**URL:** %s\n", cs.URL)
	fmt.Fprintf(&sb, "**Words:** %d | **Reading time:** %d min | **Difficulty:** %s\n",
		cs.WordCount, cs.ReadingMinutes, cs.Difficulty)
	if cs.FromCache {
		sb.WriteString("**Source:** cache\n")
	}
	if cs.Summary != "" {
		sb.WriteString("\n" + cs.Summary + "\n")
	}
	return sb.String(), nil
}

func (d *Dispatcher) exportResults(ctx context.Context, args map[string]string) (string, error) {
	exportFormat, ok := export.ParseFormat(args["format"])
	if !ok {
		return "", apperrors.New(apperrors.KindArgument, "unknown export format '%s'", args["format"])
	}

	result, found := d.lastResult()
	if q := strings.TrimSpace(args["query"]); q != "" {
		result = d.discover.Discover(q, argInt(args, "limit", 0))
		d.setLastResult(result)
	} else if !found {
		return "", apperrors.New(apperrors.KindArgument,
			"no discovery result to export; run discover_resources first or pass a query")
	}
	return d.exporter.Export(ctx, result, exportFormat), nil
}

func (d *Dispatcher) vaultStats(_ context.Context, _ map[string]string) (string, error) {
	return format.VaultStats(d.store.Stats()), nil
}
