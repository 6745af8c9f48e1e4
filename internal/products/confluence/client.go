// Package confluence wraps the Confluence content REST API.
package confluence

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
	apiBase    = "/rest/api"
	pageExpand = "body.storage,version,space,history"
)

// Client wraps the content API of one Confluence site.
type Client struct {
	engine  *httpengine.Engine
	baseURL string
	logger  *zap.Logger
}

// New builds a client over the product block of the runtime profile.
func New(pc config.ProductConfig, engine *httpengine.Engine, logger *zap.Logger) *Client {
	return &Client{engine: engine, baseURL: pc.URL, logger: logger}
}

// Search runs a CQL query, or wraps free text into a text match.
func (c *Client) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return SearchResult{}, apperrors.New(apperrors.KindArgument, "query must not be blank")
	}
	cql := query
	if !looksLikeCQL(query) {
		cql = fmt.Sprintf("text ~ %q", query)
	}
	if limit <= 0 {
		limit = 25
	}

	q := url.Values{}
	q.Set("cql", cql)
	q.Set("limit", fmt.Sprint(limit))
	q.Set("expand", pageExpand)

	var dto pageListDTO
	if err := c.engine.DoJSON(ctx, http.MethodGet, c.baseURL+apiBase+"/content/search?"+q.Encode(), nil, &dto); err != nil {
		return SearchResult{}, err
	}

	total := dto.TotalSize
	if total == 0 {
		total = dto.Size
	}
	result := SearchResult{Total: total, Pages: make([]Page, 0, len(dto.Results))}
	for _, d := range dto.Results {
		result.Pages = append(result.Pages, d.record())
	}
	return result, nil
}

// GetPage fetches one page with its storage body and version.
func (c *Client) GetPage(ctx context.Context, pageID string) (Page, error) {
	if err := requirePageID(pageID); err != nil {
		return Page{}, err
	}
	var dto pageDTO
	u := c.contentURL(pageID) + "?expand=" + url.QueryEscape(pageExpand)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &dto); err != nil {
		return Page{}, err
	}
	return dto.record(), nil
}

// CreatePage creates a page in the named space.
func (c *Client) CreatePage(ctx context.Context, spaceKey, title, body string) (Page, error) {
	if strings.TrimSpace(spaceKey) == "" {
		return Page{}, apperrors.New(apperrors.KindArgument, "spaceKey must not be blank")
	}
	if strings.TrimSpace(title) == "" {
		return Page{}, apperrors.New(apperrors.KindArgument, "title must not be blank")
	}

	payload := map[string]interface{}{
		"type":  "page",
		"title": title,
		"space": map[string]string{"key": spaceKey},
		"body": map[string]interface{}{
			"storage": map[string]string{
				"value":          body,
				"representation": "storage",
			},
		},
	}
	var dto pageDTO
	if err := c.engine.DoJSON(ctx, http.MethodPost, c.baseURL+apiBase+"/content", payload, &dto); err != nil {
		return Page{}, err
	}
	return dto.record(), nil
}

// UpdatePage replaces the page body, bumping the version monotonically.
func (c *Client) UpdatePage(ctx context.Context, pageID, title, body string) (Page, error) {
	if err := requirePageID(pageID); err != nil {
		return Page{}, err
	}

	current, err := c.GetPage(ctx, pageID)
	if err != nil {
		return Page{}, err
	}
	if strings.TrimSpace(title) == "" {
		title = current.Title
	}

	payload := map[string]interface{}{
		"type":    "page",
		"title":   title,
		"version": map[string]int{"number": current.Version + 1},
		"body": map[string]interface{}{
			"storage": map[string]string{
				"value":          body,
				"representation": "storage",
			},
		},
	}
	var dto pageDTO
	if err := c.engine.DoJSON(ctx, http.MethodPut, c.contentURL(pageID), payload, &dto); err != nil {
		return Page{}, err
	}
	return dto.record(), nil
}

// ListSpaces lists the spaces visible to the account.
func (c *Client) ListSpaces(ctx context.Context, limit int) ([]Space, error) {
	if limit <= 0 {
		limit = 25
	}
	var dto spaceListDTO
	u := fmt.Sprintf("%s%s/space?limit=%d", c.baseURL, apiBase, limit)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &dto); err != nil {
		return nil, err
	}
	spaces := make([]Space, 0, len(dto.Results))
	for _, d := range dto.Results {
		spaces = append(spaces, Space(d))
	}
	return spaces, nil
}

// GetPageChildren lists the direct child pages of a page.
func (c *Client) GetPageChildren(ctx context.Context, pageID string) ([]Page, error) {
	if err := requirePageID(pageID); err != nil {
		return nil, err
	}
	var dto pageListDTO
	u := c.contentURL(pageID) + "/child/page?expand=" + url.QueryEscape(pageExpand)
	if err := c.engine.DoJSON(ctx, http.MethodGet, u, nil, &dto); err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(dto.Results))
	for _, d := range dto.Results {
		pages = append(pages, d.record())
	}
	return pages, nil
}

// DeletePage removes a page.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	if err := requirePageID(pageID); err != nil {
		return err
	}
	return c.engine.DoJSON(ctx, http.MethodDelete, c.contentURL(pageID), nil, nil)
}

func (c *Client) contentURL(pageID string) string {
	return c.baseURL + apiBase + "/content/" + url.PathEscape(pageID)
}

func requirePageID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.New(apperrors.KindArgument, "pageId must not be blank")
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return apperrors.New(apperrors.KindArgument, "pageId must be a positive integer")
		}
	}
	return nil
}

// looksLikeCQL detects operators that only appear in real CQL.
func looksLikeCQL(q string) bool {
	upper := strings.ToUpper(q)
	for _, marker := range []string{"=", "~", " AND ", " OR ", "TYPE ", "SPACE "} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
