package confluence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpatlas-go/internal/apperrors"
	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/httpengine"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.RuntimeConfig{
		Credentials: config.Credentials{Email: "a@b.c", Secret: "tok", AuthType: config.AuthAPIToken},
		Timeouts:    config.HTTPTimeouts{ConnectMs: 5000, ReadMs: 5000},
		Preferences: config.Preferences{MaxRetries: 3},
	}
	engine := httpengine.New(cfg, zap.NewNop())
	pc := config.ProductConfig{Product: config.ProductConfluence, Kind: config.ServerKindHTTP, URL: srv.URL, Enabled: true}
	return New(pc, engine, zap.NewNop())
}

func TestSearchWrapsFreeTextInCQL(t *testing.T) {
	var gotCQL string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCQL = r.URL.Query().Get("cql")
		w.Write([]byte(`{"results":[],"size":0}`))
	}))

	_, err := c.Search(context.Background(), "onboarding runbook", 10)
	require.NoError(t, err)
	assert.Equal(t, `text ~ "onboarding runbook"`, gotCQL)
}

func TestGetPageMapsRecord(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/content/12345", r.URL.Path)
		w.Write([]byte(`{
			"id": "12345",
			"title": "Team Handbook",
			"space": {"key": "ENG"},
			"version": {"number": 4, "when": "2026-08-01T10:00:00Z"},
			"body": {"storage": {"value": "<p>welcome</p>"}}
		}`))
	}))

	page, err := c.GetPage(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "Team Handbook", page.Title)
	assert.Equal(t, "ENG", page.SpaceKey)
	assert.Equal(t, 4, page.Version)
}

func TestGetPageRejectsNonNumericID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	_, err := c.GetPage(context.Background(), "abc")
	assert.Equal(t, apperrors.KindArgument, apperrors.KindOf(err))
}

func TestUpdatePageBumpsVersion(t *testing.T) {
	var putBody map[string]interface{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id":"9","title":"Old Title","version":{"number":7},"space":{"key":"ENG"}}`))
		case http.MethodPut:
			json.NewDecoder(r.Body).Decode(&putBody)
			w.Write([]byte(`{"id":"9","title":"Old Title","version":{"number":8},"space":{"key":"ENG"}}`))
		}
	}))

	page, err := c.UpdatePage(context.Background(), "9", "", "<p>new body</p>")
	require.NoError(t, err)
	assert.Equal(t, 8, page.Version)

	version := putBody["version"].(map[string]interface{})
	assert.Equal(t, float64(8), version["number"])
	// Blank title keeps the current one.
	assert.Equal(t, "Old Title", putBody["title"])
}

func TestDeletePage(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeletePage(context.Background(), "42"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/rest/api/content/42", gotPath)
}
