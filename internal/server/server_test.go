package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/config"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/pipeline"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/planner"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/reports"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/search"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/server/ratelimit"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

type fakeRunner struct {
	mu     sync.Mutex
	got    []types.ResearchRequest
	events []pipeline.ProgressEvent
	result *types.PipelineResult
	err    error
}

func (f *fakeRunner) RunWithProgress(_ context.Context, req types.ResearchRequest, onProgress pipeline.ProgressCallback) (*types.PipelineResult, error) {
	f.mu.Lock()
	f.got = append(f.got, req)
	f.mu.Unlock()
	for _, e := range f.events {
		if onProgress != nil {
			onProgress(e)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &types.PipelineResult{Status: types.StatusCompleted, Mode: req.Mode, Steps: []string{}}, nil
}

type fakeSearcher struct{}

func (fakeSearcher) Search(_ context.Context, query string, _ int) ([]types.SearchResult, error) {
	return []types.SearchResult{{Title: query + " docs", URL: "https://example.com/" + strings.ReplaceAll(query, " ", "-"), Snippet: "about " + query}}, nil
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ context.Context, req types.ResearchRequest, _ []types.ResultGroup) (*types.AnalysisResult, error) {
	a := &types.AnalysisResult{Summary: req.Objective() + " summary", KeyPoints: []string{"point"}}
	a.Normalize()
	return a, nil
}

type fakeHistory struct {
	runs  []*storage.RunRecord
	limit int
}

func (f *fakeHistory) SaveRun(_ context.Context, run *storage.RunRecord) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeHistory) ListRuns(_ context.Context, limit int) ([]*storage.RunRecord, error) {
	f.limit = limit
	return f.runs, nil
}

func (f *fakeHistory) Close() error { return nil }

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Reports == nil {
		cfg.Reports = reports.NewStore(t.TempDir())
	}
	if cfg.Runner == nil {
		cfg.Runner = &fakeRunner{}
	}
	s := New(cfg)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

// realServer wires the actual pipeline with fake search and analysis
// in a temporary working directory
func realServer(t *testing.T) (*Server, *reports.Store) {
	t.Helper()
	t.Chdir(t.TempDir())
	store := reports.NewStore("reports")
	orchestrator := pipeline.New(planner.New(), fakeSearcher{}, fakeAnalyzer{}, reports.NewGenerator(store), pipeline.Options{})
	return newTestServer(t, Config{Runner: orchestrator, Reports: store}), store
}

func do(s *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestResearchOverview(t *testing.T) {
	s, _ := realServer(t)

	rec := do(s, http.MethodPost, "/research/overview", `{"topic":"vector databases","depth":"short"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "overview", body["mode"])
	assert.Equal(t, "vector databases", body["topic"])
	assert.Equal(t, "short", body["depth"])
	assert.Nil(t, body["item_a"])
	assert.Nil(t, body["item_b"])
	assert.Nil(t, body["pdf_url"])
	assert.Regexp(t, `^reports/\d{14}_overview\.md$`, body["report_path"])
	assert.True(t, strings.HasPrefix(body["report_html"].(string), "<!DOCTYPE html>"))
	assert.NotEmpty(t, body["steps"])
	assert.NotEmpty(t, body["run_id"])

	name := filepath.Base(body["report_path"].(string))
	assert.Equal(t, "/reports/view/"+name, body["view_url"])
}

func TestResearchCompareAndCustom(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, Config{Runner: runner})

	rec := do(s, http.MethodPost, "/research/compare", `{"item_a":"Postgres","item_b":"MySQL","depth":"medium"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(s, http.MethodPost, "/research/custom", `{"query":"Rust vs Go"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, runner.got, 2)
	assert.Equal(t, types.ResearchRequest{Mode: types.ModeCompare, ItemA: "Postgres", ItemB: "MySQL", Depth: types.DepthMedium}, runner.got[0])
	assert.Equal(t, types.ResearchRequest{Mode: types.ModeCustom, Query: "Rust vs Go"}, runner.got[1])
}

func TestResearch_MalformedJSON(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, Config{Runner: runner})

	for _, body := range []string{"", "{", `{"topic": 5}`} {
		rec := do(s, http.MethodPost, "/research/overview", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, decode(t, rec)["detail"])
	}
	assert.Empty(t, runner.got)
}

func TestResearch_ValidationError(t *testing.T) {
	s, store := realServer(t)

	rec := do(s, http.MethodPost, "/research/overview", `{"topic":"","depth":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decode(t, rec)["detail"].(string)
	assert.Contains(t, detail, "topic")
	assert.NotContains(t, detail, "validate failed")

	rec = do(s, http.MethodPost, "/research/overview", `{"topic":"x","depth":"huge"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, http.MethodPost, "/research/overview", `{"topic":"vector\ndatabases","depth":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "single line")

	rec = do(s, http.MethodPost, "/research/compare", `{"item_a":"React","item_b":"Vue\r\n# Injected"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err), "nothing is written for rejected requests")
}

func TestResearch_UpstreamFailure(t *testing.T) {
	runner := &fakeRunner{err: &pipeline.StageError{
		Stage: pipeline.StageSearch,
		Err:   &search.UnavailableError{Provider: "tavily", Query: "x", Cause: errors.New("timeout")},
	}}
	s := newTestServer(t, Config{Runner: runner})

	rec := do(s, http.MethodPost, "/research/overview", `{"topic":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode(t, rec)["detail"], "search unavailable")
}

func TestViewReport(t *testing.T) {
	s := newTestServer(t, Config{})
	name, err := s.reports.Create("overview", reports.ExtMarkdown, []byte("# Overview Report: vector databases\n\nBody text.\n"))
	require.NoError(t, err)

	rec := do(s, http.MethodGet, "/reports/view/"+name, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Overview Report: vector databases", body["title"])
	assert.True(t, strings.HasPrefix(body["html"].(string), "<!DOCTYPE html>"))

	rec = do(s, http.MethodGet, "/reports/view/"+name+"?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<!DOCTYPE html>"))

	rec = do(s, http.MethodGet, "/reports/view/"+name+"?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewReport_NotFound(t *testing.T) {
	s := newTestServer(t, Config{})

	for _, name := range []string{"nonexistent.md", "notes.txt", ".hidden.md"} {
		rec := do(s, http.MethodGet, "/reports/view/"+name, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
		assert.Equal(t, map[string]any{"detail": "Report not found"}, decode(t, rec), name)
	}
}

func TestDownloadPDF(t *testing.T) {
	s := newTestServer(t, Config{})
	name, err := s.reports.Create("overview", reports.ExtMarkdown, []byte("# T\n"))
	require.NoError(t, err)
	pdfName, err := s.reports.WriteCompanion(name, reports.ExtPDF, []byte("%PDF-1.4"))
	require.NoError(t, err)

	rec := do(s, http.MethodGet, "/static/reports/"+pdfName, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), pdfName)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = do(s, http.MethodGet, "/static/reports/"+name, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "markdown is not served as a download")

	rec = do(s, http.MethodGet, "/static/reports/missing.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReports(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := do(s, http.MethodGet, "/reports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["reports"])

	name, err := s.reports.Create("compare", reports.ExtMarkdown, []byte("# T\n"))
	require.NoError(t, err)

	rec = do(s, http.MethodGet, "/reports", "")
	entries := decode(t, rec)["reports"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, name, entries[0].(map[string]any)["filename"])
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(s, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	history := &fakeHistory{runs: []*storage.RunRecord{{ID: "r1", Mode: "overview", Status: storage.StatusCompleted}}}
	s = newTestServer(t, Config{History: history})

	rec = do(s, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storage.DefaultListLimit, history.limit)
	runs := decode(t, rec)["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].(map[string]any)["id"])

	rec = do(s, http.MethodGet, "/runs?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, history.limit)

	for _, bad := range []string{"x", "0", "1000"} {
		rec = do(s, http.MethodGet, "/runs?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	return events
}

func TestStream(t *testing.T) {
	runner := &fakeRunner{
		events: []pipeline.ProgressEvent{
			{Stage: pipeline.StagePlan, Message: "Planning research steps"},
			{Stage: pipeline.StageSearch, Message: "Searching"},
		},
		result: &types.PipelineResult{Status: types.StatusCompleted, Mode: types.ModeOverview},
	}
	s := newTestServer(t, Config{Runner: runner})

	rec := do(s, http.MethodPost, "/research/stream", `{"mode":"overview","topic":"wasm"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, EventStep, events[0].name)
	assert.Contains(t, events[0].data, `"stage":"plan"`)
	assert.Equal(t, EventStep, events[1].name)
	assert.Equal(t, EventComplete, events[2].name)
	assert.Contains(t, events[2].data, `"status":"completed"`)

	assert.Equal(t, types.ResearchRequest{Mode: types.ModeOverview, Topic: "wasm"}, runner.got[0])
}

func TestStream_Error(t *testing.T) {
	runner := &fakeRunner{err: &pipeline.StageError{Stage: pipeline.StageValidate, Err: &types.ValidationError{Field: "mode", Message: "is required"}}}
	s := newTestServer(t, Config{Runner: runner})

	rec := do(s, http.MethodPost, "/research/stream", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].name)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &payload))
	assert.Equal(t, float64(http.StatusBadRequest), payload["status"])
	assert.Equal(t, "invalid mode: is required", payload["detail"])
}

func TestStream_MalformedJSON(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(s, http.MethodPost, "/research/stream", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestAuth(t *testing.T) {
	jwtService := NewJWTService(&config.JWTConfig{Secret: testSecret, ExpirationHours: 1})
	s := newTestServer(t, Config{JWT: jwtService})

	rec := do(s, http.MethodPost, "/research/overview", `{"topic":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["detail"])

	token, err := jwtService.GenerateToken("cli", 0)
	require.NoError(t, err)
	rec = do(s, http.MethodPost, "/research/overview", `{"topic":"x"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/reports", "")
	assert.Equal(t, http.StatusOK, rec.Code, "report browsing stays public")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Config{RateLimit: ratelimit.ResearchConfig(true, 1, 1)})

	rec := do(s, http.MethodPost, "/research/overview", `{"topic":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do(s, http.MethodPost, "/research/overview", `{"topic":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, decode(t, rec)["detail"])

	rec = do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := do(s, http.MethodOptions, "/research/overview", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, Config{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
