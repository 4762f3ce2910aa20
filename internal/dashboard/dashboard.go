// Package dashboard renders stored log records as a self-contained HTML page
// with client-side filtering.
package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"beacon_collector/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

const notAvailable = "N/A"

// Options controls page-level content.
type Options struct {
	// SiteURL is linked from the empty-state block.
	SiteURL string
	// Query pre-fills the filter box; entries that do not match start hidden.
	Query string
}

type page struct {
	Total    int
	Visible  int
	Query    string
	SiteURL  string
	SiteName string
	Entries  []entry
	NoMatch  bool
}

type entry struct {
	Kind       string
	Label      string
	Timestamp  string
	Session    string
	Action     string
	Section    string
	UserAgent  string
	Referer    string
	Body       string
	Searchable string
	Hidden     bool
}

// Matches reports whether a record's searchable text passes the filter.
// The query is trimmed and lower-cased; an empty query matches everything.
func Matches(searchable, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(searchable, q)
}

// Render writes the dashboard for records, which are shown in the order given.
func Render(w io.Writer, records []*models.LogRecord, opts Options) error {
	p := page{
		Total:    len(records),
		Query:    strings.TrimSpace(opts.Query),
		SiteURL:  opts.SiteURL,
		SiteName: siteName(opts.SiteURL),
		Entries:  make([]entry, 0, len(records)),
	}

	for _, rec := range records {
		e := newEntry(rec)
		e.Hidden = !Matches(e.Searchable, p.Query)
		if !e.Hidden {
			p.Visible++
		}
		p.Entries = append(p.Entries, e)
	}
	p.NoMatch = p.Visible == 0 && p.Total > 0 && p.Query != ""

	// Render into a buffer so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "dashboard.html", p); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func newEntry(rec *models.LogRecord) entry {
	e := entry{
		Kind:       string(rec.Kind),
		Label:      strings.ToUpper(string(rec.Kind)),
		Timestamp:  rec.Timestamp,
		Session:    orNA(models.Deref(rec.Session)),
		Action:     models.Deref(rec.Action),
		Section:    models.Deref(rec.Section),
		UserAgent:  orNA(models.Deref(rec.UserAgent)),
		Referer:    models.Deref(rec.Referer),
		Searchable: rec.Searchable(),
	}
	if rec.HasBody() {
		e.Body = prettyJSON(rec.Body)
	}
	return e
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func siteName(siteURL string) string {
	name := strings.TrimPrefix(siteURL, "https://")
	name = strings.TrimPrefix(name, "http://")
	return strings.TrimSuffix(name, "/")
}
