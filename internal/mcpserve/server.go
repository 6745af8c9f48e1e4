// Package mcpserve exposes the dispatcher's tools over standard MCP
// JSON-RPC stdio framing, for clients that speak the full protocol instead
// of the bare line-delimited envelope.
package mcpserve

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"mcpatlas-go/internal/dispatcher"
)

var toolDescriptions = map[string]string{
	"jira_search":              "Search Jira issues by JQL or free text.",
	"jira_get_issue":           "Fetch one Jira issue by key.",
	"jira_create_issue":        "Create a Jira issue in a project.",
	"jira_update_issue":        "Update the summary or description of a Jira issue.",
	"jira_transition_issue":    "Move a Jira issue through a workflow transition.",
	"jira_list_projects":       "List the visible Jira projects.",
	"jira_get_active_sprint":   "Fetch the active sprint of an agile board.",
	"jira_list_sprint_issues":  "List the issues in a sprint.",
	"jira_add_comment":         "Add a comment to a Jira issue.",
	"jira_get_comments":        "List the comments on a Jira issue.",
	"jira_assign_issue":        "Assign a Jira issue to a user.",
	"confluence_search":        "Search Confluence pages by CQL or free text.",
	"confluence_get_page":      "Fetch one Confluence page with its content.",
	"confluence_create_page":   "Create a Confluence page in a space.",
	"confluence_update_page":   "Update a Confluence page, bumping its version.",
	"confluence_list_spaces":   "List the visible Confluence spaces.",
	"confluence_get_page_children": "List the children of a Confluence page.",
	"confluence_delete_page":   "Delete a Confluence page.",
	"bitbucket_list_repositories":  "List repositories in a workspace.",
	"bitbucket_get_repository":     "Fetch one repository.",
	"bitbucket_list_pull_requests": "List pull requests, optionally filtered by state.",
	"bitbucket_get_pull_request":   "Fetch one pull request.",
	"bitbucket_create_pull_request": "Open a pull request.",
	"bitbucket_list_branches":  "List the branches of a repository.",
	"bitbucket_get_commits":    "List recent commits of a repository.",
	"bitbucket_search_code":    "Search code across a workspace.",
	"atlassian_unified_search": "Search every live Atlassian product in one call.",
	"discover_resources":       "Discover learning resources for a free-form query.",
	"search_resources":         "Browse the learning vault with exact filters.",
	"get_resource":             "Fetch one learning resource by id.",
	"add_resource_from_url":    "Scrape a URL and stage it as a session-local resource.",
	"summarize_url":            "Fetch a URL and summarize its content.",
	"export_results":           "Export the last discovery result as markdown, text, pdf or docx.",
	"vault_stats":              "Show learning vault counters.",
}

// Serve registers every dispatcher tool on an MCP server and blocks on the
// stdio transport until the client disconnects.
func Serve(d *dispatcher.Dispatcher, version string, logger *zap.Logger) error {
	s := server.NewMCPServer(
		"mcpatlas",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	for _, info := range d.ToolInfos() {
		opts := []mcp.ToolOption{mcp.WithDescription(describe(info))}
		numeric := map[string]bool{}
		for _, arg := range info.Numeric {
			numeric[arg] = true
		}
		for _, arg := range info.Required {
			if numeric[arg] {
				opts = append(opts, mcp.WithNumber(arg, mcp.Required()))
			} else {
				opts = append(opts, mcp.WithString(arg, mcp.Required()))
			}
		}

		name := info.Name
		s.AddTool(mcp.NewTool(name, opts...), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			resp := d.Dispatch(ctx, name, flatten(request.GetArguments()))
			if !resp.Success {
				return mcp.NewToolResultError(*resp.Error), nil
			}
			return mcp.NewToolResultText(resp.Content), nil
		})
	}

	logger.Info("serving MCP over stdio", zap.Int("tools", len(d.ToolInfos())))
	return server.ServeStdio(s)
}

func describe(info dispatcher.ToolInfo) string {
	if desc, ok := toolDescriptions[info.Name]; ok {
		return desc
	}
	return fmt.Sprintf("Invoke the %s tool on the %s surface.", info.Name, info.Product)
}

// flatten renders the JSON-typed MCP arguments into the dispatcher's
// string-keyed map. Floats that are whole numbers print without a decimal.
func flatten(args map[string]interface{}) map[string]string {
	out := make(map[string]string, len(args))
	for key, value := range args {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[key] = v
		case float64:
			if v == float64(int64(v)) {
				out[key] = fmt.Sprintf("%d", int64(v))
			} else {
				out[key] = strings.TrimRight(fmt.Sprintf("%f", v), "0")
			}
		case bool:
			if v {
				out[key] = "true"
			} else {
				out[key] = "false"
			}
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
