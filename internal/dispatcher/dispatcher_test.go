package dispatcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/export"
	"mcpatlas-go/internal/httpengine"
	"mcpatlas-go/internal/scrape"
	"mcpatlas-go/internal/vault"
)

// harness wires a dispatcher against httptest backends. Nil handlers leave
// the product unconfigured.
func newTestDispatcher(t *testing.T, jiraH, confH, bbH http.Handler) *Dispatcher {
	t.Helper()

	var products []config.ProductConfig
	serve := func(p config.Product, h http.Handler) {
		if h == nil {
			return
		}
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)
		products = append(products, config.ProductConfig{
			Product: p, Kind: config.ServerKindHTTP, URL: srv.URL,
			Enabled: true, Workspace: "acme",
		})
	}
	serve(config.ProductJira, jiraH)
	serve(config.ProductConfluence, confH)
	serve(config.ProductBitbucket, bbH)

	cfg := config.NewRuntimeConfig(products...)
	cfg.Credentials = config.Credentials{Email: "a@b.c", Secret: "tok", AuthType: config.AuthAPIToken}

	logger := zap.NewNop()
	engine := httpengine.New(cfg, logger)
	store, err := vault.NewStore(logger)
	require.NoError(t, err)
	scraper := scrape.New(engine, nil, logger)
	return New(cfg, engine, store, scraper, export.New(logger), logger)
}

func TestUnknownToolGetsListToolsHint(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	resp := d.Dispatch(context.Background(), "no_such_tool", nil)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "list-tools")
}

func TestMissingRequiredArgument(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	resp := d.Dispatch(context.Background(), "bitbucket_get_pull_request",
		map[string]string{"workspace": "acme", "repoSlug": "api"})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Missing required argument: 'prId'", *resp.Error)
}

func TestNonNumericArgumentRejected(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	resp := d.Dispatch(context.Background(), "bitbucket_get_pull_request",
		map[string]string{"repoSlug": "api", "prId": "seven"})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "'prId'")
	assert.Contains(t, *resp.Error, "seven")
}

func TestUnconfiguredProductFailsCleanly(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	resp := d.Dispatch(context.Background(), "jira_get_issue", map[string]string{"issueKey": "ABC-1"})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "jira: ConfigValidationError:")
}

func TestGetIssueRetriesThroughServerErrors(t *testing.T) {
	var calls atomic.Int32
	jiraH := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"1","key":"ABC-1","fields":{"summary":"Fix login race","status":{"name":"Open"}}}`))
	})
	d := newTestDispatcher(t, jiraH, nil, nil)

	resp := d.Dispatch(context.Background(), "jira_get_issue", map[string]string{"issueKey": "ABC-1"})
	require.True(t, resp.Success, resp.Error)
	assert.True(t, strings.HasPrefix(resp.Content, "## ABC-1 — "), resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorMessageHasProductAndKind(t *testing.T) {
	jiraH := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages":["Field 'summary' is required"]}`))
	})
	d := newTestDispatcher(t, jiraH, nil, nil)

	resp := d.Dispatch(context.Background(), "jira_get_issue", map[string]string{"issueKey": "ABC-1"})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "jira: ClientError:")
	assert.Contains(t, *resp.Error, "Field 'summary' is required")
}

func TestUnifiedSearchReportsPartialFailure(t *testing.T) {
	jiraH := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"total":1,"issues":[{"key":"ABC-1","fields":{"summary":"hit","status":{"name":"Open"}}}]}`))
	})
	confH := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad CQL"}`))
	})
	d := newTestDispatcher(t, jiraH, confH, nil)

	resp := d.Dispatch(context.Background(), "atlassian_unified_search", map[string]string{"query": "login"})
	require.True(t, resp.Success, resp.Error)
	assert.Contains(t, resp.Content, "ABC-1")
	assert.Contains(t, resp.Content, "confluence: ClientError:")
}

func TestUnifiedSearchNoLiveProducts(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	resp := d.Dispatch(context.Background(), "atlassian_unified_search", map[string]string{"query": "x"})
	assert.False(t, resp.Success)
}

func TestDiscoverThenExportWithoutPandoc(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	d.exporter = export.New(zap.NewNop())

	resp := d.Dispatch(context.Background(), "discover_resources", map[string]string{"query": "java concurrency"})
	require.True(t, resp.Success, resp.Error)
	assert.Contains(t, resp.Content, "Java Concurrency in Practice")

	resp = d.Dispatch(context.Background(), "export_results", map[string]string{"format": "text"})
	require.True(t, resp.Success, resp.Error)
	assert.Contains(t, resp.Content, "LEARNING RESOURCE DISCOVERY")
}

func TestExportWithoutPriorDiscoveryFails(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	resp := d.Dispatch(context.Background(), "export_results", map[string]string{"format": "markdown"})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "discover_resources")
}

func TestVaultToolsWorkOffline(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)

	resp := d.Dispatch(context.Background(), "get_resource", map[string]string{"id": "junit5-user-guide"})
	require.True(t, resp.Success, resp.Error)
	assert.Contains(t, resp.Content, "JUnit 5 User Guide")

	resp = d.Dispatch(context.Background(), "search_resources",
		map[string]string{"category": "JAVA", "concept": "CONCURRENCY"})
	require.True(t, resp.Success, resp.Error)
	assert.Contains(t, resp.Content, "java-concurrency-in-practice")

	resp = d.Dispatch(context.Background(), "vault_stats", nil)
	require.True(t, resp.Success, resp.Error)
	assert.Contains(t, resp.Content, "Vault statistics")
}

func TestSearchResourcesRejectsUnknownEnum(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	resp := d.Dispatch(context.Background(), "search_resources", map[string]string{"category": "COBOL"})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "learning: ArgumentError:")
}

func TestResponseLimitTruncatesContent(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	d.cfg.Preferences.ToolResponseLimit = 40

	resp := d.Dispatch(context.Background(), "vault_stats", nil)
	require.True(t, resp.Success)
	assert.LessOrEqual(t, len([]rune(resp.Content)), 40)
	assert.True(t, strings.HasSuffix(resp.Content, "..."))
}

func TestListToolsIsSortedAndComplete(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	names := d.ListTools()

	assert.True(t, sort.StringsAreSorted(names))
	for _, expected := range []string{
		"jira_search", "jira_get_issue", "jira_get_active_sprint",
		"confluence_search", "confluence_delete_page",
		"bitbucket_get_pull_request", "bitbucket_search_code",
		"atlassian_unified_search",
		"discover_resources", "search_resources", "get_resource",
		"add_resource_from_url", "summarize_url", "export_results", "vault_stats",
	} {
		assert.Contains(t, names, expected)
	}
}

func TestDemoRunsOffline(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	out, err := d.Demo(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "JUnit 5 User Guide")
	assert.Contains(t, out, "Vault statistics")
	assert.Contains(t, out, "LEARNING RESOURCE DISCOVERY")
}

// Every dispatch outcome is a well-formed envelope: success with content and
// nil error, or failure with a message.
func TestErrorContainment(t *testing.T) {
	d := newTestDispatcher(t, nil, nil, nil)
	calls := []struct {
		tool string
		args map[string]string
	}{
		{"discover_resources", map[string]string{"query": "docker"}},
		{"discover_resources", nil},
		{"get_resource", map[string]string{"id": "missing"}},
		{"jira_search", map[string]string{"query": "x"}},
		{"export_results", map[string]string{"format": "wat"}},
		{"", nil},
		{"summarize_url", map[string]string{"url": "::bad::"}},
	}
	for _, c := range calls {
		resp := d.Dispatch(context.Background(), c.tool, c.args)
		if resp.Success {
			assert.Nil(t, resp.Error, c.tool)
			assert.NotEmpty(t, resp.Content, c.tool)
		} else {
			require.NotNil(t, resp.Error, c.tool)
			assert.NotEmpty(t, *resp.Error, c.tool)
		}
	}
}
