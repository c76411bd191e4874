package extsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/afkmon/internal/apperr"
)

func newTestClient(attempts int) (*Client, *[]time.Duration) {
	c := NewClient(ClientConfig{RetryAttempts: attempts, Backoff: 100 * time.Millisecond, Timeout: 2 * time.Second, Token: "default-token"}, logr.Discard())
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestClientExport_Success(t *testing.T) {
	var gotAuth, gotUA string
	var gotBody ExportRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions/export", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"sessions":[{"id":"s1","filePath":"/a","fileName":"a","sessionStartTime":"2024-03-15T09:00:00Z"}],"hasMore":false,"lastSyncTime":"2024-03-15T10:00:00Z"}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(3)
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	resp, err := c.Export(context.Background(), Endpoint{OwnerID: "u1", URL: srv.URL + "/"}, ExportRequest{Since: &since, Limit: 25})
	require.NoError(t, err)

	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "s1", resp.Sessions[0].ID)
	assert.False(t, resp.HasMore)
	assert.Equal(t, "2024-03-15T10:00:00Z", resp.LastSyncTime)
	assert.Equal(t, "Bearer default-token", gotAuth)
	assert.Contains(t, gotUA, "afkmon")
	assert.Equal(t, 25, gotBody.Limit)
	require.NotNil(t, gotBody.Since)
	assert.True(t, gotBody.Since.Equal(since))
}

func TestClientExport_EndpointTokenWins(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"sessions":[],"hasMore":false}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(1)
	_, err := c.Export(context.Background(), Endpoint{URL: srv.URL, Token: "ep-token"}, ExportRequest{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "Bearer ep-token", gotAuth)
}

func TestClientExport_RetriesWithBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"sessions":[],"hasMore":false}`))
	}))
	defer srv.Close()

	c, slept := newTestClient(3)
	_, err := c.Export(context.Background(), Endpoint{URL: srv.URL}, ExportRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestClientExport_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, slept := newTestClient(3)
	_, err := c.Export(context.Background(), Endpoint{URL: srv.URL}, ExportRequest{Limit: 10})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConnection))
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, *slept, 2, "no sleep after the last attempt")
}

func TestClientExport_StopStatuses(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusNotFound} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(code)
		}))

		c, slept := newTestClient(3)
		_, err := c.Export(context.Background(), Endpoint{URL: srv.URL}, ExportRequest{Limit: 10})
		srv.Close()

		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindConnection), "status %d", code)
		assert.Equal(t, int32(1), calls.Load(), "status %d should not be retried", code)
		assert.Empty(t, *slept)
	}
}

func TestClientExport_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, _ := newTestClient(2)
	_, err := c.Export(context.Background(), Endpoint{URL: url}, ExportRequest{Limit: 10})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConnection))
}
