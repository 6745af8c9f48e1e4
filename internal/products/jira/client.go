// Package jira wraps the Jira REST and Agile APIs behind typed operations.
// Every method validates its inputs, builds the URL, decodes the response
// into a record and passes engine errors through unchanged.
package jira

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

const (
	apiBase       = "/rest/api/2"
	agileBase     = "/rest/agile/1.0"
	maxSearchPage = 100
)

// Client is a stateless wrapper; all state lives in the engine and config.
type Client struct {
	engine  *httpengine.Engine
	baseURL string
	logger  *zap.Logger
}

// New builds a client over the product block of the runtime profile.
func New(pc config.ProductConfig, engine *httpengine.Engine, logger *zap.Logger) *Client {
	return &Client{engine: engine, baseURL: pc.URL, logger: logger}
}

// Search runs a JQL query, or wraps free text into a text match when the
// query does not look like JQL. maxResults is clamped to [1, 100].
func (c *Client) Search(ctx context.Context, query string, maxResults int) (SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, apperrors.New(apperrors.KindArgument, "query must not be blank")
	}
	jql := query
	if !looksLikeJQL(query) {
		jql = fmt.Sprintf("text ~ %q ORDER BY updated DESC", query)
	}
	if maxResults <= 0 {
		maxResults = 25
	}
	if maxResults > maxSearchPage {
		maxResults = maxSearchPage
	}

	q := url.Values{}
	q.Set("jql", jql)
	q.Set("maxResults", fmt.Sprint(maxResults))

	var dto searchDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.baseURL+apiBase+"/search?"+q.Encode(), nil, &dto); err != nil {
		return SearchResult{}, err
	}

	result := SearchResult{
		Total:      dto.Total,
		StartAt:    dto.StartAt,
		MaxResults: dto.MaxResults,
		Issues:     make([]Issue, 0, len(dto.Issues)),
	}
	for _, d := range dto.Issues {
		result.Issues = append(result.Issues, d.record())
	}
	return result, nil
}

// GetIssue fetches one issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (Issue, error) {
	if err := requireKey(key); err != nil {
		return Issue{}, err
	}
	var dto issueDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.issueURL(key), nil, &dto); err != nil {
		return Issue{}, err
	}
	return dto.record(), nil
}

// CreateIssue creates an issue and returns its assigned key.
func (c *Client) CreateIssue(ctx context.Context, projectKey, issueType, summary, description string) (Issue, error) {
	if strings.TrimSpace(projectKey) == "" {
		return Issue{}, apperrors.New(apperrors.KindArgument, "projectKey must not be blank")
	}
	if strings.TrimSpace(summary) == "" {
		return Issue{}, apperrors.New(apperrors.KindArgument, "summary must not be blank")
	}
	if strings.TrimSpace(issueType) == "" {
		issueType = "Task"
	}

	body := map[string]interface{}{
		"fields": map[string]interface{}{
			"project":     map[string]string{"key": projectKey},
			"issuetype":   map[string]string{"name": issueType},
			"summary":     summary,
			"description": description,
		},
	}
	var created createdDTO
	if err := c.engine.DoJSON(ctx, http.MethodPost, c.baseURL+apiBase+"/issue", body, &created); err != nil {
		return Issue{}, err
	}
	return c.GetIssue(ctx, created.Key)
}

// UpdateIssue applies field updates to an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if len(fields) == 0 {
		return apperrors.New(apperrors.KindArgument, "no fields to update")
	}
	body := map[string]interface{}{"fields": fields}
	return c.engine.DoJSON(ctx, http.MethodPut, c.issueURL(key), body, nil)
}

// TransitionIssue moves an issue through a workflow step. The transition may
// be given by id or by (case-insensitive) name.
func (c *Client) TransitionIssue(ctx context.Context, key, transition string) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(transition) == "" {
		return apperrors.New(apperrors.KindArgument, "transition must not be blank")
	}

	var available transitionsDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.issueURL(key)+"/transitions", nil, &available); err != nil {
		return err
	}
	id := ""
	for _, tr := range available.Transitions {
		if tr.ID == transition || strings.EqualFold(tr.Name, transition) {
			id = tr.ID
			break
		}
	}
	if id == "" {
		return apperrors.New(apperrors.KindNotFound, "transition %q is not available for %s", transition, key)
	}

	body := map[string]interface{}{
		"transition": map[string]string{"id": id},
	}
	return c.engine.DoJSON(ctx, http.MethodPost, c.issueURL(key)+"/transitions", body, nil)
}

// ListProjects returns all projects visible to the account.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var dtos []projectDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.baseURL+apiBase+"/project", nil, &dtos); err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(dtos))
	for _, d := range dtos {
		projects = append(projects, Project{
			ID:   d.ID,
			Key:  d.Key,
			Name: d.Name,
			Lead: d.Lead.DisplayName,
		})
	}
	return projects, nil
}

// GetActiveSprint returns the active sprint of an agile board.
func (c *Client) GetActiveSprint(ctx context.Context, boardID int) (Sprint, error) {
	if boardID <= 0 {
		return Sprint{}, apperrors.New(apperrors.KindArgument, "boardId must be a positive integer")
	}
	var page sprintPageDTO
	u := fmt.Sprintf("%s%s/board/%d/sprint?state=active", c.baseURL, agileBase, boardID)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &page); err != nil {
		return Sprint{}, err
	}
	if len(page.Values) == 0 {
		return Sprint{}, apperrors.New(apperrors.KindNotFound, "board %d has no active sprint", boardID)
	}
	d := page.Values[0]
	return Sprint(d), nil
}

// ListSprintIssues returns the issues in a sprint.
func (c *Client) ListSprintIssues(ctx context.Context, sprintID int) ([]Issue, error) {
	if sprintID <= 0 {
		return nil, apperrors.New(apperrors.KindArgument, "sprintId must be a positive integer")
	}
	var dto searchDTO
	u := fmt.Sprintf("%s%s/sprint/%d/issue", c.baseURL, agileBase, sprintID)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &dto); err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(dto.Issues))
	for _, d := range dto.Issues {
		issues = append(issues, d.record())
	}
	return issues, nil
}

// AddComment appends a comment to an issue.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		return apperrors.New(apperrors.KindArgument, "comment body must not be blank")
	}
	payload := map[string]string{"body": body}
	return c.engine.DoJSON(ctx, http.MethodPost, c.issueURL(key)+"/comment", payload, nil)
}

// GetComments lists the comments on an issue.
func (c *Client) GetComments(ctx context.Context, key string) ([]Comment, error) {
	if err := requireKey(key); err != nil {
		return nil, err
	}
	var page commentPageDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.issueURL(key)+"/comment", nil, &page); err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(page.Comments))
	for _, d := range page.Comments {
		comments = append(comments, Comment{
			ID:      d.ID,
			Author:  d.Author.DisplayName,
			Body:    plainText(d.Body),
			Created: d.Created,
		})
	}
	return comments, nil
}

// AssignIssue sets the assignee by account id or username.
func (c *Client) AssignIssue(ctx context.Context, key, assignee string) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(assignee) == "" {
		return apperrors.New(apperrors.KindArgument, "assignee must not be blank")
	}
	body := map[string]string{"accountId": assignee}
	return c.engine.DoJSON(ctx, http.MethodPut, c.issueURL(key)+"/assignee", body, nil)
}

func (c *Client) issueURL(key string) string {
	return c.baseURL + apiBase + "/issue/" + url.PathEscape(key)
}

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return apperrors.New(apperrors.KindArgument, "issueKey must not be blank")
	}
	return nil
}

// looksLikeJQL detects operators that only appear in real JQL.
func looksLikeJQL(q string) bool {
	upper := strings.ToUpper(q)
	for _, marker := range []string{"=", "~", " AND ", " OR ", "ORDER BY", " IN ", "!="} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
