package extsync

import (
	"time"

	"github.com/theirongolddev/afkmon/internal/ingest"
)

// ExportRequest is the body of POST {endpoint}/api/sessions/export.
type ExportRequest struct {
	Since *time.Time `json:"since,omitempty"`
	Limit int        `json:"limit"`
}

// ExportResponse is the extension's answer to an export request.
type ExportResponse struct {
	Sessions []ingest.Record `json:"sessions"`
	HasMore  bool            `json:"hasMore"`
	// LastSyncTime is kept raw; extensions are not consistent about offsets.
	LastSyncTime string `json:"lastSyncTime"`
}

// Endpoint is a registered extension for one owner.
type Endpoint struct {
	OwnerID  string    `json:"ownerId"`
	URL      string    `json:"url"`
	Editor   string    `json:"editor"`
	Platform string    `json:"platform"`
	Token    string    `json:"-"`
	LastSeen time.Time `json:"lastSeen"`
	Active   bool      `json:"active"`
}

// Report summarizes one sync run for an owner.
type Report struct {
	OwnerID      string    `json:"ownerId"`
	Pages        int       `json:"pages"`
	Fetched      int       `json:"fetched"`
	Synced       int       `json:"synced"`
	Failed       int       `json:"failed"`
	LastSyncTime time.Time `json:"lastSyncTime"`
	// Err aggregates per-record failures.
	Err error `json:"-"`
}
