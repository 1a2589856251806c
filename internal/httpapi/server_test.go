// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/agent"
	"github.com/pdiddy/deep-research/pkg/types"
)

// fakeResearcher replays scripted events into the sink and returns a fixed
// report.
type fakeResearcher struct {
	events   []agent.Event
	report   *types.ResearchReport
	err      error
	gotQuery string
}

func (f *fakeResearcher) Research(_ context.Context, query string, sink agent.EventSink) (*types.ResearchReport, error) {
	f.gotQuery = query
	for _, ev := range f.events {
		_ = sink.Emit(ev)
	}
	if f.err != nil {
		return f.report, f.err
	}
	return f.report, nil
}

func newTestServer(t *testing.T, researcher Researcher, cfg types.ServerConfig) *httptest.Server {
	t.Helper()
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = t.TempDir()
	}
	ts := httptest.NewServer(NewServer(researcher, cfg, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dialResearch(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/research"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeResearcher{}, types.ServerConfig{})

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestResearchStreamHappyPath(t *testing.T) {
	reportsDir := t.TempDir()
	researcher := &fakeResearcher{
		events: []agent.Event{
			agent.NewEvent(agent.EventStatus, "Starting research", nil),
			agent.NewEvent(agent.EventComplete, "Research complete!", agent.CompleteData{TotalSources: 2, Iterations: 1}),
		},
		report: &types.ResearchReport{
			Query:          "deep question",
			ReportMarkdown: "# Report\n\nBody.",
			Sources:        []types.SourceRecord{{URL: "https://a.com"}, {URL: "https://b.com"}},
			Iterations:     1,
		},
	}
	ts := newTestServer(t, researcher, types.ServerConfig{ReportsDir: reportsDir})

	conn := dialResearch(t, ts)
	require.NoError(t, conn.WriteJSON(map[string]string{"query": "deep question"}))

	first := readFrame(t, conn)
	assert.Equal(t, "status", first["event_type"])
	assert.Equal(t, "Starting research", first["message"])

	second := readFrame(t, conn)
	assert.Equal(t, "complete", second["event_type"])

	final := readFrame(t, conn)
	assert.Equal(t, "report", final["event_type"])
	assert.Equal(t, "# Report\n\nBody.", final["markdown"])
	assert.Equal(t, float64(2), final["total_sources"])
	assert.Equal(t, float64(1), final["iterations"])

	filename, _ := final["filename"].(string)
	require.NotEmpty(t, filename)
	_, err := os.Stat(reportsDir + "/" + filename)
	assert.NoError(t, err, "report persisted to the reports directory")

	assert.Equal(t, "deep question", researcher.gotQuery)
}

func TestResearchRejectsEmptyQuery(t *testing.T) {
	researcher := &fakeResearcher{report: &types.ResearchReport{}}
	ts := newTestServer(t, researcher, types.ServerConfig{})

	conn := dialResearch(t, ts)
	require.NoError(t, conn.WriteJSON(map[string]string{"query": "   "}))

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["event_type"])
	assert.Equal(t, "", researcher.gotQuery, "research must not start on an invalid query")
}

func TestResearchRejectsOverlongQuery(t *testing.T) {
	researcher := &fakeResearcher{report: &types.ResearchReport{}}
	ts := newTestServer(t, researcher, types.ServerConfig{MaxQueryLength: 10})

	conn := dialResearch(t, ts)
	require.NoError(t, conn.WriteJSON(map[string]string{"query": "this query is well past ten characters"}))

	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["event_type"])
	assert.Contains(t, frame["message"], "too long")
	assert.Equal(t, "", researcher.gotQuery)
}

func TestReportFrameCapsSources(t *testing.T) {
	sources := make([]types.SourceRecord, 60)
	for i := range sources {
		sources[i] = types.SourceRecord{URL: fmt.Sprintf("https://example.com/%d", i)}
	}
	researcher := &fakeResearcher{
		report: &types.ResearchReport{Query: "big run", ReportMarkdown: "x", Sources: sources, Iterations: 3},
	}
	ts := newTestServer(t, researcher, types.ServerConfig{})

	conn := dialResearch(t, ts)
	require.NoError(t, conn.WriteJSON(map[string]string{"query": "big run"}))

	final := readFrame(t, conn)
	require.Equal(t, "report", final["event_type"])
	assert.Equal(t, float64(60), final["total_sources"], "total reflects the full run")

	frameSources, ok := final["sources"].([]any)
	require.True(t, ok)
	assert.Len(t, frameSources, 50, "frame payload is capped")
}

func TestStaticDirServed(t *testing.T) {
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(staticDir+"/index.html", []byte("<html>ok</html>"), 0o644))

	ts := newTestServer(t, &fakeResearcher{}, types.ServerConfig{StaticDir: staticDir})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
