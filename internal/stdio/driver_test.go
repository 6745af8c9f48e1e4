package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpatlas-go/internal/config"
	"mcpatlas-go/internal/dispatcher"
	"mcpatlas-go/internal/export"
	"mcpatlas-go/internal/httpengine"
	"mcpatlas-go/internal/scrape"
	"mcpatlas-go/internal/vault"
)

func newTestDriver(t *testing.T, workers int) *Driver {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.NewRuntimeConfig()
	engine := httpengine.New(cfg, logger)
	store, err := vault.NewStore(logger)
	require.NoError(t, err)
	d := dispatcher.New(cfg, engine, store, scrape.New(engine, nil, logger), export.New(logger), logger)
	return New(d, workers, logger)
}

func decodeAll(t *testing.T, out []byte) []dispatcher.Response {
	t.Helper()
	var responses []dispatcher.Response
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)
	for scanner.Scan() {
		var resp dispatcher.Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp), scanner.Text())
		responses = append(responses, resp)
	}
	require.NoError(t, scanner.Err())
	return responses
}

func TestSingleRequestRoundTrip(t *testing.T) {
	drv := newTestDriver(t, 2)
	in := strings.NewReader(`{"tool":"get_resource","arguments":{"id":"junit5-user-guide"}}` + "\n")
	var out bytes.Buffer

	require.NoError(t, drv.Run(context.Background(), in, &out))

	responses := decodeAll(t, out.Bytes())
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Success)
	assert.Equal(t, "get_resource", responses[0].Tool)
	assert.Contains(t, responses[0].Content, "JUnit 5 User Guide")
}

func TestMalformedFrameAnsweredNotCrashed(t *testing.T) {
	drv := newTestDriver(t, 2)
	in := strings.NewReader("this is not json\n" +
		`{"tool":"vault_stats","arguments":{}}` + "\n")
	var out bytes.Buffer

	require.NoError(t, drv.Run(context.Background(), in, &out))

	responses := decodeAll(t, out.Bytes())
	require.Len(t, responses, 2)
	assert.False(t, responses[0].Success)
	require.NotNil(t, responses[0].Error)
	assert.Contains(t, *responses[0].Error, "ProtocolError")
	assert.True(t, responses[1].Success)
}

func TestResponsesPreserveRequestOrder(t *testing.T) {
	drv := newTestDriver(t, 8)

	var in bytes.Buffer
	const n = 60
	ids := []string{"junit5-user-guide", "go-tour", "mdn-web-docs", "cs50x", "pytest-docs"}
	for i := 0; i < n; i++ {
		frame := Request{Tool: "get_resource", Arguments: map[string]string{"id": ids[i%len(ids)]}}
		raw, err := json.Marshal(frame)
		require.NoError(t, err)
		in.Write(raw)
		in.WriteByte('\n')
	}

	var out bytes.Buffer
	require.NoError(t, drv.Run(context.Background(), &in, &out))

	responses := decodeAll(t, out.Bytes())
	require.Len(t, responses, n)
	for i, resp := range responses {
		require.True(t, resp.Success, fmt.Sprintf("response %d: %v", i, resp.Error))
		wantTitle := map[string]string{
			"junit5-user-guide": "JUnit 5 User Guide",
			"go-tour":           "A Tour of Go",
			"mdn-web-docs":      "MDN Web Docs",
			"cs50x":             "CS50x",
			"pytest-docs":       "pytest Documentation",
		}[ids[i%len(ids)]]
		assert.Contains(t, resp.Content, wantTitle, "response %d out of order", i)
	}
}

func TestEveryFrameParsesAsResponse(t *testing.T) {
	drv := newTestDriver(t, 4)
	in := strings.NewReader(strings.Join([]string{
		`{"tool":"discover_resources","arguments":{"query":"docker"}}`,
		`{"tool":"nope","arguments":{}}`,
		`{"tool":"jira_get_issue","arguments":{"issueKey":"ABC-1"}}`,
		`{`,
		`{"tool":"vault_stats"}`,
	}, "\n") + "\n")
	var out bytes.Buffer

	require.NoError(t, drv.Run(context.Background(), in, &out))

	responses := decodeAll(t, out.Bytes())
	require.Len(t, responses, 5)
	for i, resp := range responses {
		if !resp.Success {
			require.NotNil(t, resp.Error, "response %d", i)
			assert.NotEmpty(t, *resp.Error, "response %d", i)
		}
	}
}

func TestBlankLinesSkipped(t *testing.T) {
	drv := newTestDriver(t, 2)
	in := strings.NewReader("\n\n" + `{"tool":"vault_stats","arguments":{}}` + "\n\n")
	var out bytes.Buffer

	require.NoError(t, drv.Run(context.Background(), in, &out))
	responses := decodeAll(t, out.Bytes())
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Success)
}

func TestUnknownInputFieldsIgnored(t *testing.T) {
	drv := newTestDriver(t, 1)
	in := strings.NewReader(`{"tool":"vault_stats","arguments":{},"extra":42}` + "\n")
	var out bytes.Buffer

	require.NoError(t, drv.Run(context.Background(), in, &out))
	responses := decodeAll(t, out.Bytes())
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Success)
}
