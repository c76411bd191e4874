package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/afkmon/internal/extsync"
	"github.com/theirongolddev/afkmon/internal/ingest"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/store"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details map[string]any  `json:"details"`
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	metrics := NewMetrics()
	now := func() time.Time { return testNow }
	ing := ingest.New(st, ingest.WithClock(now), ingest.WithObserver(metrics.ObserveIngest))
	client := extsync.NewClient(extsync.ClientConfig{Timeout: 2 * time.Second, RetryAttempts: 1}, logr.Discard())
	registry := extsync.NewRegistry(time.Hour, 8, nil)
	syncer := extsync.NewSyncer(client, registry, ing, st, extsync.SyncerConfig{}, logr.Discard(), metrics.ObserveSync)

	return New(Config{Version: "9.9.9"}, Deps{
		Stats:    pipeline.NewStats(st, now),
		Ingestor: ing,
		Syncer:   syncer,
		Metrics:  metrics,
		Log:      logr.Discard(),
		Now:      now,
	})
}

func do(t *testing.T, h http.Handler, method, target, owner string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if owner != "" {
		req.Header.Set(HeaderOwner, owner)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func payload(id, lang, project, start string, dur int64) ingest.Payload {
	return ingest.Payload{
		Session: ingest.Record{
			ID:               id,
			FilePath:         "/src/" + id,
			FileName:         id,
			Language:         lang,
			ProjectName:      project,
			SessionStartTime: start,
			TotalDuration:    dur,
			LinesAdded:       10,
			TotalEdits:       4,
		},
		SystemInfo: ingest.SystemInfo{Editor: "vscode", Platform: "linux"},
	}
}

func ingestAll(t *testing.T, h http.Handler, owner string, ps ...ingest.Payload) {
	t.Helper()
	for _, p := range ps {
		rec, env := do(t, h, http.MethodPost, "/api/sessions", owner, p)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.True(t, env.Success)
	}
}

func TestHealth(t *testing.T) {
	h := newTestService(t).Handler()
	rec, env := do(t, h, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got healthView
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "9.9.9", got.Version)
	assert.True(t, got.Timestamp.Equal(testNow))
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestService(t).Handler()

	rec, _ := do(t, h, http.MethodGet, "/api/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestIngestAndList(t *testing.T) {
	h := newTestService(t).Handler()

	rec, env := do(t, h, http.MethodPost, "/api/sessions", "", payload("s1", "Go", "web", "2024-03-15T08:00:00Z", 120))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res ingest.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "s1", res.SessionID)
	assert.True(t, res.Processed)

	ingestAll(t, h, "",
		payload("s2", "Python", "api", "2024-03-15T09:00:00+00:00", 60),
		payload("s1", "Go", "web", "2024-03-15T08:00:00Z", 120),
	)

	rec, env = do(t, h, http.MethodGet, "/api/sessions?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page sessionPageView
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, "s2", page.Sessions[0].ID)
	assert.Equal(t, int64(60), page.TotalDuration)
	assert.Equal(t, "vscode", page.Sessions[0].Editor)

	rec, env = do(t, h, http.MethodGet, "/api/sessions?projectName=web", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
}

func TestOwnersArePartitioned(t *testing.T) {
	h := newTestService(t).Handler()
	ingestAll(t, h, "alice", payload("s1", "Go", "web", "2024-03-15T08:00:00Z", 120))

	_, env := do(t, h, http.MethodGet, "/api/sessions", "bob", nil)
	var page sessionPageView
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Sessions)

	_, env = do(t, h, http.MethodGet, "/api/sessions", "alice", nil)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
}

func TestIngestValidation(t *testing.T) {
	h := newTestService(t).Handler()

	p := payload("bad", "Go", "web", "2024-03-15T08:00:00Z", 10)
	p.Session.LinesAdded = -1
	p.SystemInfo.Editor = "emacs"
	rec, env := do(t, h, http.MethodPost, "/api/sessions", "", p)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
	fields, ok := env.Details["fields"].(map[string]any)
	require.True(t, ok, "details: %v", env.Details)
	assert.Contains(t, fields, "linesAdded")
	assert.Contains(t, fields, "systemInfo.editor")

	_, env = do(t, h, http.MethodGet, "/api/sessions", "", nil)
	var page sessionPageView
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 0, page.Total)
}

func TestIngestMalformedBody(t *testing.T) {
	h := newTestService(t).Handler()
	for _, body := range []string{"", "{not json"} {
		rec, env := do(t, h, http.MethodPost, "/api/sessions", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Equal(t, "VALIDATION_FAILED", env.Code)
	}
}

func TestListQueryValidation(t *testing.T) {
	h := newTestService(t).Handler()
	for _, q := range []string{"limit=0", "limit=101", "limit=x", "offset=-1", "from=yesterday"} {
		rec, env := do(t, h, http.MethodGet, "/api/sessions?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, "INVALID_QUERY", env.Code, q)
	}
}

func TestStatsEndpoints(t *testing.T) {
	h := newTestService(t).Handler()
	ingestAll(t, h, "",
		payload("a", "Go", "web", "2024-03-15T08:00:00Z", 3600),
		payload("b", "Go", "web", "2024-03-14T13:00:00Z", 7200),
		payload("c", "Python", "api", "2024-03-15T09:30:00Z", 3600),
		payload("d", "Rust", "old", "2024-01-02T09:00:00Z", 500),
	)

	rec, env := do(t, h, http.MethodGet, "/api/sessions/stats?time_filter=today", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sum summaryView
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, 2, sum.TotalSessions)
	assert.Equal(t, int64(7200), sum.TotalDuration)
	assert.Equal(t, float64(3600), sum.AverageSessionDuration)

	_, env = do(t, h, http.MethodGet, "/api/sessions/stats?time_filter=custom&start_date=2024-03-14&end_date=2024-03-14T23:59:59Z", "", nil)
	require.NoError(t, json.Unmarshal(env.Data, &sum))
	assert.Equal(t, 1, sum.TotalSessions)

	// Bounds only apply with time_filter=custom and both ends set.
	for _, q := range []string{
		"start_date=2024-03-14&end_date=2024-03-14T23:59:59Z",
		"time_filter=custom&start_date=2024-03-14",
	} {
		_, env = do(t, h, http.MethodGet, "/api/sessions/stats?"+q, "", nil)
		require.NoError(t, json.Unmarshal(env.Data, &sum))
		assert.Equal(t, 4, sum.TotalSessions, q)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/sessions/stats?time_filter=custom&start_date=1500-01-01&end_date=2024-01-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, env = do(t, h, http.MethodGet, "/api/sessions/stats/hourly", "", nil)
	var hours []hourlyView
	require.NoError(t, json.Unmarshal(env.Data, &hours))
	require.Len(t, hours, 24)
	assert.Equal(t, "08", hours[8].Hour)
	assert.Equal(t, int64(3600), hours[8].Duration)

	_, env = do(t, h, http.MethodGet, "/api/sessions/stats/daily", "", nil)
	var days []dailyView
	require.NoError(t, json.Unmarshal(env.Data, &days))
	require.Len(t, days, 2)
	assert.Equal(t, "2024-03-14", days[0].Date)
	assert.Equal(t, "2024-03-15", days[1].Date)

	_, env = do(t, h, http.MethodGet, "/api/sessions/stats/languages?time_filter=last_7_days", "", nil)
	var langs []languageView
	require.NoError(t, json.Unmarshal(env.Data, &langs))
	require.Len(t, langs, 2)
	assert.Equal(t, "Go", langs[0].Name)
	assert.Equal(t, 75.0, langs[0].Value)
	assert.Equal(t, 25.0, langs[1].Value)
	assert.NotEmpty(t, langs[0].Color)

	_, env = do(t, h, http.MethodGet, "/api/sessions/stats/projects?language=Go", "", nil)
	var projects []projectView
	require.NoError(t, json.Unmarshal(env.Data, &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "web", projects[0].Name)
	assert.Equal(t, 2, projects[0].Sessions)

	_, env = do(t, h, http.MethodGet, "/api/sessions/projects", "", nil)
	var names []string
	require.NoError(t, json.Unmarshal(env.Data, &names))
	assert.ElementsMatch(t, []string{"api", "old", "web"}, names)

	rec, env = do(t, h, http.MethodGet, "/api/sessions/stats?time_filter=fortnight", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_QUERY", env.Code)
}

func TestExtensionRegistrationAndSync(t *testing.T) {
	ext := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/export", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = fmt.Fprint(w, `{"sessions":[
			{"id":"x1","filePath":"/p/x.go","fileName":"x.go","language":"Go","sessionStartTime":"2024-03-15T07:00:00Z","totalDuration":30},
			{"id":"x2","filePath":"/p/y.go","fileName":"y.go","language":"Go","sessionStartTime":"2024-03-15T07:30:00Z","totalDuration":-5}
		],"hasMore":false,"lastSyncTime":"2024-03-15T07:30:00Z"}`)
	}))
	defer ext.Close()

	h := newTestService(t).Handler()

	rec, env := do(t, h, http.MethodGet, "/api/extensions", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/extensions", "u1", registerRequest{URL: "ftp://nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, h, http.MethodPost, "/api/extensions", "u1",
		registerRequest{URL: ext.URL, Editor: "cursor", Platform: "darwin", Token: "tok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, string(env.Data), "tok\"")

	rec, env = do(t, h, http.MethodGet, "/api/extensions", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ep extsync.Endpoint
	require.NoError(t, json.Unmarshal(env.Data, &ep))
	assert.Equal(t, "cursor", ep.Editor)
	assert.True(t, ep.Active)

	rec, env = do(t, h, http.MethodPost, "/api/sessions/sync", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report syncView
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "x2")

	_, env = do(t, h, http.MethodGet, "/api/sessions", "u1", nil)
	var page sessionPageView
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "cursor", page.Sessions[0].Editor)
	assert.Equal(t, "darwin", page.Sessions[0].Platform)
}

func TestSyncUnreachableExtension(t *testing.T) {
	ext := httptest.NewServer(http.NotFoundHandler())
	url := ext.URL
	ext.Close()

	h := newTestService(t).Handler()
	rec, _ := do(t, h, http.MethodPost, "/api/extensions", "u1", registerRequest{URL: url})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodPost, "/api/sessions/sync", "u1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "EXTENSION_UNREACHABLE", env.Code)

	_, env = do(t, h, http.MethodGet, "/api/extensions", "u1", nil)
	var ep extsync.Endpoint
	require.NoError(t, json.Unmarshal(env.Data, &ep))
	assert.False(t, ep.Active)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h := newTestService(t).Handler()

	rec, env := do(t, h, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, h, http.MethodDelete, "/api/sessions", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestService(t).Handler()
	ingestAll(t, h, "", payload("s1", "Go", "web", "2024-03-15T08:00:00Z", 1))
	bad := payload("s2", "Go", "web", "2024-03-15T08:00:00Z", -1)
	do(t, h, http.MethodPost, "/api/sessions", "", bad)

	rec, _ := do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `afkmon_sessions_ingested_total{result="ok"} 1`)
	assert.Contains(t, body, `afkmon_sessions_ingested_total{result="rejected"} 1`)
	assert.Contains(t, body, `afkmon_http_requests_total{code="200",route="/api/sessions"} 1`)
	assert.Contains(t, body, `afkmon_http_requests_total{code="400",route="/api/sessions"} 1`)
	assert.Contains(t, body, "afkmon_http_request_duration_seconds")
}

func TestStatusAndLoop(t *testing.T) {
	s := newTestService(t)
	s.sweepOnce()
	s.syncOnce(t.Context())

	_, env := do(t, s.Handler(), http.MethodGet, "/api/status", "", nil)
	var st Status
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, int64(2), st.TickCount)
	assert.Equal(t, "9.9.9", st.Version)
	assert.Empty(t, st.LastSyncError)
	assert.True(t, st.LastSyncAt.Equal(testNow))
}
