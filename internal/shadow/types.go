// Package shadow compares the JSON responses of an old and a new implementation
// of the same API and keeps the outcome of every comparison for reporting.
package shadow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Document is a decoded JSON payload. A nil *Document means the side is absent,
// which is different from a Document holding JSON null.
type Document struct {
	value any
}

// ParseDocument decodes raw JSON. Numbers are kept as json.Number so their
// literal text survives the round trip.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode json: unexpected data after top-level value")
	}
	return &Document{value: v}, nil
}

// NewDocument converts an arbitrary Go value into a Document by round-tripping it
// through JSON, so the tree only ever holds the generic decoded types.
func NewDocument(v any) (*Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return ParseDocument(data)
}

// Value returns the decoded JSON tree.
func (d *Document) Value() any {
	if d == nil {
		return nil
	}
	return d.value
}

// MarshalJSON encodes the original payload.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Value())
}

// UnmarshalJSON decodes a payload, keeping number literals.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	d.value = parsed.value
	return nil
}

// Target is a single old/new endpoint pair to compare.
type Target struct {
	Name    string            `json:"name"`
	OldURL  string            `json:"old_url"`
	NewURL  string            `json:"new_url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Result is the outcome of one comparison. A Result with a non-empty Error is
// the error variant: it carries no status, timing, match or payload data.
type Result struct {
	Name            string    `json:"name"`
	OldStatus       *int      `json:"old_status"`
	NewStatus       *int      `json:"new_status"`
	OldResponseTime *float64  `json:"old_response_time,omitempty"`
	NewResponseTime *float64  `json:"new_response_time,omitempty"`
	Match           bool      `json:"data_match"`
	Old             *Document `json:"old_data,omitempty"`
	New             *Document `json:"new_data,omitempty"`
	Diff            []string  `json:"diff,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// seconds returns d in seconds as a pointer so a zero latency is still reported.
func seconds(d time.Duration) *float64 {
	s := d.Seconds()
	return &s
}

// Failed reports whether r is the error variant.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Summary counts results. Mismatched includes errored comparisons.
type Summary struct {
	Total      int `json:"total"`
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
	Errors     int `json:"errors"`
}

// Summarize counts matched, mismatched and errored results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Failed():
			s.Errors++
		case r.Match:
			s.Matched++
		}
	}
	s.Mismatched = s.Total - s.Matched
	return s
}
