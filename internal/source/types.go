package source

import "github.com/theirongolddev/afkmon/internal/ingest"

// Format is the layout of an export file.
type Format int

// Export file layouts.
const (
	// FormatJSON holds one payload object or an array of them.
	FormatJSON Format = iota
	// FormatJSONL holds one payload object per line.
	FormatJSONL
)

// DiscoveredFile is an export file found by ScanDir.
type DiscoveredFile struct {
	Path   string
	Format Format
}

// ParseResult holds the payloads read from one file.
type ParseResult struct {
	Payloads []ingest.Payload
	// Duplicates counts payloads dropped because a later line carried the same session id.
	Duplicates int
	// ParseErrors counts JSONL lines that were not valid JSON.
	ParseErrors int
	Err         error
}
