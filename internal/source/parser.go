// Package source reads session payloads from extension export files.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/ingest"
)

// Decode reads one payload object or a JSON array of payloads.
func Decode(r io.Reader) ([]ingest.Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, apperr.Validation("input is empty", nil)
	}

	if data[0] == '[' {
		var payloads []ingest.Payload
		if err := json.Unmarshal(data, &payloads); err != nil {
			return nil, apperr.Validation("malformed JSON array", err)
		}
		return payloads, nil
	}
	var p ingest.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperr.Validation("malformed JSON payload", err)
	}
	return []ingest.Payload{p}, nil
}

// DecodeLines reads one payload per line. Blank lines are ignored and
// malformed lines are counted rather than failing the read.
func DecodeLines(r io.Reader) (payloads []ingest.Payload, parseErrors int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var p ingest.Payload
		if err := json.Unmarshal(line, &p); err != nil {
			parseErrors++
			continue
		}
		payloads = append(payloads, p)
	}
	return payloads, parseErrors, scanner.Err()
}

// ParseFile reads df and deduplicates payloads by session id, keeping the
// last one seen so a re-exported session carries its final counters.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var res ParseResult
	switch df.Format {
	case FormatJSONL:
		res.Payloads, res.ParseErrors, res.Err = DecodeLines(f)
	default:
		res.Payloads, res.Err = Decode(f)
	}
	if res.Err != nil {
		res.Err = fmt.Errorf("%s: %w", df.Path, res.Err)
		return res
	}

	before := len(res.Payloads)
	res.Payloads = dedupe(res.Payloads)
	res.Duplicates = before - len(res.Payloads)
	return res
}

// ParseAll parses every file and concatenates the payloads. Per-file
// failures are returned alongside whatever was read from the others.
func ParseAll(files []DiscoveredFile) (ParseResult, []error) {
	var (
		total ParseResult
		errs  []error
	)
	for _, df := range files {
		res := ParseFile(df)
		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		total.Payloads = append(total.Payloads, res.Payloads...)
		total.Duplicates += res.Duplicates
		total.ParseErrors += res.ParseErrors
	}
	before := len(total.Payloads)
	total.Payloads = dedupe(total.Payloads)
	total.Duplicates += before - len(total.Payloads)
	return total, errs
}

// dedupe keeps the last payload per session id, in first-seen order.
// Payloads without an id are kept so validation can reject them.
func dedupe(payloads []ingest.Payload) []ingest.Payload {
	pos := make(map[string]int, len(payloads))
	out := payloads[:0:0]
	for _, p := range payloads {
		id := p.Session.ID
		if id == "" {
			out = append(out, p)
			continue
		}
		if i, ok := pos[id]; ok {
			out[i] = p
			continue
		}
		pos[id] = len(out)
		out = append(out, p)
	}
	return out
}
