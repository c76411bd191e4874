// Package extsync pulls session batches from registered editor extensions
// and feeds them through the ingestor.
package extsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/theirongolddev/afkmon/internal/apperr"
)

const (
	exportPath  = "/api/sessions/export"
	maxBodySize = 8 << 20 // 8 MB
	userAgent   = "github.com/theirongolddev/afkmon/1.0"
)

var (
	// ErrUnauthorized indicates the extension rejected the bearer token.
	ErrUnauthorized = errors.New("extsync: unauthorized")
	// ErrNotFound indicates the extension does not serve the export endpoint.
	ErrNotFound = errors.New("extsync: export endpoint not found")
)

// ClientConfig holds retry and timeout settings.
type ClientConfig struct {
	Timeout       time.Duration // per attempt
	RetryAttempts int
	Backoff       time.Duration // base delay, doubled after each attempt
	Token         string        // used when an endpoint carries none
}

// Client posts export requests to extensions.
type Client struct {
	cfg   ClientConfig
	http  *http.Client
	log   logr.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client. Zero config fields take defaults.
func NewClient(cfg ClientConfig, log logr.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{},
		log:   log,
		sleep: sleepCtx,
	}
}

// Export fetches one page of sessions from ep. Failed attempts are retried
// with exponential backoff; 401 and 404 stop retrying. When every attempt
// fails the error is an apperr.Connection.
func (c *Client) Export(ctx context.Context, ep Endpoint, req ExportRequest) (*ExportResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("extsync: encoding request: %w", err)
	}

	token := ep.Token
	if token == "" {
		token = c.cfg.Token
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < c.cfg.RetryAttempts; attempt++ {
		attempts++
		resp, err := c.post(ctx, strings.TrimRight(ep.URL, "/")+exportPath, token, body)
		if err == nil {
			c.log.V(1).Info("fetched sessions", "owner", ep.OwnerID, "count", len(resp.Sessions), "hasMore", resp.HasMore)
			return resp, nil
		}
		lastErr = err
		c.log.Info("export attempt failed", "owner", ep.OwnerID, "endpoint", ep.URL, "attempt", attempt+1, "error", err.Error())

		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			break
		}
		if attempt < c.cfg.RetryAttempts-1 {
			if err := c.sleep(ctx, c.cfg.Backoff<<attempt); err != nil {
				break
			}
		}
	}

	return nil, apperr.Connection(
		fmt.Sprintf("extension at %s unreachable after %d attempt(s)", ep.URL, attempts), lastErr).
		WithDetail("endpoint", ep.URL)
}

func (c *Client) post(ctx context.Context, url, token string, body []byte) (*ExportResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("extsync: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	//nolint:gosec // URL comes from an explicitly registered endpoint
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extsync: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extsync: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("extsync: reading response: %w", err)
	}
	var out ExportResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("extsync: parsing response: %w", err)
	}
	return &out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
