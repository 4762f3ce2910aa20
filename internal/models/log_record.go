package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal container images
)

// Kind says how a record was produced.
type Kind string

const (
	KindPixel  Kind = "pixel"
	KindScript Kind = "js"
)

// UnknownSession is stored when a pixel beacon carries no session parameter.
const UnknownSession = "unknown"

// TimestampLayout renders record timestamps as "2025-01-31 14:05:09 CET".
const TimestampLayout = "2006-01-02 15:04:05 MST"

// LogRecord is a single tracked beacon as persisted in the store.
//
// Header-derived fields are pointers because the headers may be absent;
// absent values serialise as JSON null.
type LogRecord struct {
	Kind      Kind            `json:"type"`
	Timestamp string          `json:"time"`
	ClientIP  *string         `json:"ip"`
	UserAgent *string         `json:"ua"`
	Referer   *string         `json:"referer"`
	Origin    *string         `json:"origin,omitempty"`
	Session   *string         `json:"session,omitempty"`
	Section   *string         `json:"section,omitempty"`
	Action    *string         `json:"action,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// StringPtr returns nil for the empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FormatTimestamp renders t in loc using TimestampLayout.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}

// HasBody reports whether the record carries a body worth showing. Bodies
// that are null, false, "" or zero count as absent.
func (r *LogRecord) HasBody() bool {
	b := strings.TrimSpace(string(r.Body))
	switch b {
	case "", "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(b, 64); err == nil && f == 0 {
		return false
	}
	return true
}

// Searchable builds the lower-cased text the dashboard filter matches against.
// Absent fields contribute empty strings so the field positions stay stable.
func (r *LogRecord) Searchable() string {
	body := ""
	if r.HasBody() {
		body = string(r.Body)
	}

	parts := []string{
		string(r.Kind),
		r.Timestamp,
		Deref(r.Session),
		Deref(r.Action),
		Deref(r.Section),
		Deref(r.ClientIP),
		Deref(r.UserAgent),
		Deref(r.Referer),
		Deref(r.Origin),
		body,
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Marshal serialises the record for storage. HTML characters in the body
// are kept as written so the stored text matches what the client sent.
func (r *LogRecord) Marshal() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("failed to marshal log record: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// UnmarshalLogRecord parses a stored value.
func UnmarshalLogRecord(value string) (*LogRecord, error) {
	var rec LogRecord
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal log record: %w", err)
	}
	return &rec, nil
}
