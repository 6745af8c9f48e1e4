// Package bitbucket wraps the Bitbucket Cloud 2.0 REST API.
package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"mcpatlas-go/internal/apperrors"
	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/httpengine"
)

// Client wraps one workspace-scoped Bitbucket account.
type Client struct {
	engine    *httpengine.Engine
	baseURL   string
	workspace string // default workspace from config
	logger    *zap.Logger
}

// New builds a client over the product block of the runtime profile.
func New(pc config.ProductConfig, engine *httpengine.Engine, logger *zap.Logger) *Client {
	return &Client{engine: engine, baseURL: pc.URL, workspace: pc.Workspace, logger: logger}
}

// ResolveWorkspace returns the explicit workspace or the configured default.
func (c *Client) ResolveWorkspace(workspace string) (string, error) {
	ws := strings.TrimSpace(workspace)
	if ws == "" {
		ws = c.workspace
	}
	if ws == "" {
		return "", apperrors.New(apperrors.KindArgument, "workspace must not be blank")
	}
	return ws, nil
}

// ListRepositories lists repositories in a workspace.
func (c *Client) ListRepositories(ctx context.Context, workspace string, limit int) ([]Repository, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}
	var page repoPageDTO
	u := fmt.Sprintf("%s/repositories/%s?pagelen=%d&sort=-updated_on", c.baseURL, url.PathEscape(ws), limit)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &page); err != nil {
		return nil, err
	}
	repos := make([]Repository, 0, len(page.Values))
	for _, d := range page.Values {
		repos = append(repos, d.record())
	}
	return repos, nil
}

// GetRepository fetches one repository.
func (c *Client) GetRepository(ctx context.Context, workspace, slug string) (Repository, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return Repository{}, err
	}
	if err := requireSlug(slug); err != nil {
		return Repository{}, err
	}
	var dto repoDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.repoURL(ws, slug), nil, &dto); err != nil {
		return Repository{}, err
	}
	return dto.record(), nil
}

// ListPullRequests lists pull requests, optionally filtered by state
// (OPEN, MERGED, DECLINED, SUPERSEDED).
func (c *Client) ListPullRequests(ctx context.Context, workspace, slug, state string) ([]PullRequest, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	if err := requireSlug(slug); err != nil {
		return nil, err
	}

	u := c.repoURL(ws, slug) + "/pullrequests"
	if s := strings.ToUpper(strings.TrimSpace(state)); s != "" {
		u += "?state=" + url.QueryEscape(s)
	}
	var page prPageDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &page); err != nil {
		return nil, err
	}
	prs := make([]PullRequest, 0, len(page.Values))
	for _, d := range page.Values {
		prs = append(prs, d.record())
	}
	return prs, nil
}

// GetPullRequest fetches one pull request by numeric id.
func (c *Client) GetPullRequest(ctx context.Context, workspace, slug string, id int) (PullRequest, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return PullRequest{}, err
	}
	if err := requireSlug(slug); err != nil {
		return PullRequest{}, err
	}
	if id <= 0 {
		return PullRequest{}, apperrors.New(apperrors.KindArgument, "prId must be a positive integer")
	}
	var dto prDTO
	u := fmt.Sprintf("%s/pullrequests/%d", c.repoURL(ws, slug), id)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &dto); err != nil {
		return PullRequest{}, err
	}
	return dto.record(), nil
}

// CreatePullRequest opens a pull request from source onto target branch.
func (c *Client) CreatePullRequest(ctx context.Context, workspace, slug, title, source, target string) (PullRequest, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return PullRequest{}, err
	}
	if err := requireSlug(slug); err != nil {
		return PullRequest{}, err
	}
	if strings.TrimSpace(title) == "" {
		return PullRequest{}, apperrors.New(apperrors.KindArgument, "title must not be blank")
	}
	if strings.TrimSpace(source) == "" {
		return PullRequest{}, apperrors.New(apperrors.KindArgument, "sourceBranch must not be blank")
	}
	if strings.TrimSpace(target) == "" {
		target = "main"
	}

	payload := map[string]interface{}{
		"title": title,
		"source": map[string]interface{}{
			"branch": map[string]string{"name": source},
		},
		"destination": map[string]interface{}{
			"branch": map[string]string{"name": target},
		},
	}
	var dto prDTO
	if err := c.engine.DoJSON(ctx, http.MethodPost, c.repoURL(ws, slug)+"/pullrequests", payload, &dto); err != nil {
		return PullRequest{}, err
	}
	return dto.record(), nil
}

// ListBranches lists branches of a repository.
func (c *Client) ListBranches(ctx context.Context, workspace, slug string) ([]Branch, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	if err := requireSlug(slug); err != nil {
		return nil, err
	}
	var page branchPageDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.repoURL(ws, slug)+"/refs/branches", nil, &page); err != nil {
		return nil, err
	}
	branches := make([]Branch, 0, len(page.Values))
	for _, d := range page.Values {
		branches = append(branches, Branch{Name: d.Name, Target: d.Target.Hash})
	}
	return branches, nil
}

// GetCommits lists recent commits of a repository.
func (c *Client) GetCommits(ctx context.Context, workspace, slug string, limit int) ([]Commit, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	if err := requireSlug(slug); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	var page commitPageDTO
	u := fmt.Sprintf("%s/commits?pagelen=%d", c.repoURL(ws, slug), limit)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &page); err != nil {
		return nil, err
	}
	commits := make([]Commit, 0, len(page.Values))
	for _, d := range page.Values {
		commits = append(commits, d.record())
	}
	return commits, nil
}

// SearchCode runs a code search across a workspace.
func (c *Client) SearchCode(ctx context.Context, workspace, query string) ([]CodeMatch, error) {
	ws, err := c.ResolveWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.New(apperrors.KindArgument, "query must not be blank")
	}
	q := url.Values{}
	q.Set("search_query", query)
	var dto codeSearchDTO
	u := fmt.Sprintf("%s/workspaces/%s/search/code?%s", c.baseURL, url.PathEscape(ws), q.Encode())
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &dto); err != nil {
		return nil, err
	}
	matches := make([]CodeMatch, 0, len(dto.Values))
	for _, v := range dto.Values {
		matches = append(matches, CodeMatch{
			Path:    v.File.Path,
			Repo:    ws,
			Matches: v.ContentMatchCount,
		})
	}
	return matches, nil
}

func (c *Client) repoURL(workspace, slug string) string {
	return fmt.Sprintf("%s/repositories/%s/%s", c.baseURL, url.PathEscape(workspace), url.PathEscape(slug))
}

func requireSlug(slug string) error {
	if strings.TrimSpace(slug) == "" {
		return apperrors.New(apperrors.KindArgument, "repoSlug must not be blank")
	}
	return nil
}
