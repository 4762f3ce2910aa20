package dashboard

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon_collector/internal/models"
)

func pixel(session string) *models.LogRecord {
	return &models.LogRecord{
		Kind:      models.KindPixel,
		Timestamp: "2025-03-01 10:00:00 CET",
		UserAgent: models.StringPtr("Mozilla/5.0"),
		Session:   models.StringPtr(session),
	}
}

func render(t *testing.T, records []*models.LogRecord, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records, opts))
	return buf.String()
}

func TestMatches(t *testing.T) {
	searchable := pixel("abc123").Searchable()

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"ABC", true},
		{"  abc1 ", true},
		{"pixel", true},
		{"mozilla", true},
		{"zzz-not-there", false},
	}

	for _, tt := range tests {
		if got := Matches(searchable, tt.query); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestRender_EscapesClientValues(t *testing.T) {
	rec := pixel("<script>alert(1)</script>")
	rec.Action = models.StringPtr(`"><img src=x onerror=alert(2)>`)

	out := render(t, []*models.LogRecord{rec}, Options{})

	assert.NotContains(t, out, "<script>alert")
	assert.NotContains(t, out, "<img src=x")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestRender_OrderAndCount(t *testing.T) {
	records := []*models.LogRecord{pixel("newest"), pixel("middle"), pixel("oldest")}
	out := render(t, records, Options{})

	assert.Equal(t, 3, strings.Count(out, `class="log-entry`))
	assert.Contains(t, out, `id="totalCount">3<`)
	assert.Contains(t, out, `id="visibleCount">3<`)

	newest := strings.Index(out, "newest")
	middle := strings.Index(out, "middle")
	oldest := strings.Index(out, "oldest")
	assert.True(t, newest < middle && middle < oldest, "entries out of order")
	assert.NotContains(t, out, "No Tracking Logs Yet")
}

func TestRender_QueryHidesNonMatching(t *testing.T) {
	records := []*models.LogRecord{pixel("abc123"), pixel("xyz789")}
	out := render(t, records, Options{Query: "ABC"})

	assert.Contains(t, out, `id="totalCount">2<`)
	assert.Contains(t, out, `id="visibleCount">1<`)
	assert.Equal(t, 1, strings.Count(out, `class="log-entry hidden"`))
	assert.Contains(t, out, `value="ABC"`)
	assert.NotContains(t, out, `no-results show`)

	out = render(t, records, Options{Query: "nothing-matches"})
	assert.Contains(t, out, `id="visibleCount">0<`)
	assert.Contains(t, out, `no-results show`)
}

func TestRender_Empty(t *testing.T) {
	out := render(t, nil, Options{SiteURL: "https://example.org/site/"})

	assert.Contains(t, out, "No Tracking Logs Yet")
	assert.Contains(t, out, `href="https://example.org/site/"`)
	assert.Contains(t, out, ">example.org/site<")
	assert.Contains(t, out, `id="totalCount">0<`)
	assert.NotContains(t, out, `class="log-entry`)
}

func TestRender_ConditionalBlocks(t *testing.T) {
	bare := pixel("s1")
	bare.UserAgent = nil

	full := pixel("s2")
	full.Action = models.StringPtr("click-cta")
	full.Section = models.StringPtr("projects")
	full.Referer = models.StringPtr("https://example.org/")

	event := &models.LogRecord{
		Kind:      models.KindScript,
		Timestamp: "2025-03-01 10:00:00 CET",
		Body:      json.RawMessage(`{"event":"click"}`),
	}

	out := render(t, []*models.LogRecord{bare}, Options{})
	assert.NotContains(t, out, "<strong>Action:</strong>")
	assert.NotContains(t, out, "<strong>Section:</strong>")
	assert.NotContains(t, out, "<strong>Referer:</strong>")
	assert.NotContains(t, out, "<pre>")
	assert.Contains(t, out, "<strong>User-Agent:</strong> N/A")

	out = render(t, []*models.LogRecord{full}, Options{})
	assert.Contains(t, out, `<span class="action-tag">click-cta</span>`)
	assert.Contains(t, out, `<span class="section-tag">projects</span>`)
	assert.Contains(t, out, "<strong>Referer:</strong> https://example.org/")

	out = render(t, []*models.LogRecord{event}, Options{})
	assert.Contains(t, out, ">JS<")
	assert.Contains(t, out, "<strong>Session:</strong> <span class=\"session-id\">N/A</span>")
	assert.Contains(t, out, "&#34;event&#34;: &#34;click&#34;")
}

func TestRender_QueryMatchesBodyWithHTMLCharacters(t *testing.T) {
	event := &models.LogRecord{
		Kind:      models.KindScript,
		Timestamp: "2025-03-01 10:00:00 CET",
		Body:      json.RawMessage(`{"q":"rock&roll <b>"}`),
	}

	out := render(t, []*models.LogRecord{event, pixel("other")}, Options{Query: "Rock&Roll"})
	assert.Contains(t, out, `id="visibleCount">1<`)
	assert.Contains(t, out, "rock&amp;roll &lt;b&gt;")
}
