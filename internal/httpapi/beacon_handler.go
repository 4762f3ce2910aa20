package httpapi

import (
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"beacon_collector/internal/tracking"
	"beacon_collector/internal/utils"
)

// pixelGIF is a 1x1 transparent GIF.
var pixelGIF = []byte{
	71, 73, 70, 56, 57, 97, 1, 0, 1, 0, 128, 0, 0,
	0, 0, 0, 255, 255, 255, 33, 249, 4, 1, 0, 0,
	1, 0, 44, 0, 0, 0, 0, 1, 0, 1, 0, 0, 2, 2,
	68, 1, 0, 59,
}

// handlePixel records a page view and always answers with the GIF, even
// when the record could not be stored.
func (d *Dependencies) handlePixel(w http.ResponseWriter, r *http.Request) {
	if _, err := d.Writer.WritePixel(r.Context(), d.beacon(r, nil)); err != nil {
		d.Logger.Error("Failed to store pixel record", "error", err, "request_id", requestID(r))
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(pixelGIF)))
	w.WriteHeader(http.StatusOK)
	w.Write(pixelGIF)
}

// handleLog records a script event sent with POST and answers preflight
// requests. Other methods are rejected before it runs.
func (d *Dependencies) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.MaxBodyBytes))
	if err != nil {
		// An unreadable or oversized body is stored like any other non-JSON body
		d.Logger.Debug("Failed to read event body", "error", err, "request_id", requestID(r))
		body = nil
	}

	if _, err := d.Writer.WriteEvent(r.Context(), d.beacon(r, body)); err != nil {
		d.Logger.Error("Failed to store event record", "error", err, "request_id", requestID(r))
	}

	utils.RespondWithText(w, http.StatusOK, "logged")
}

func (d *Dependencies) beacon(r *http.Request, body []byte) tracking.Beacon {
	return tracking.Beacon{
		ClientIP:  clientIP(r, d.ClientIPHeaders),
		UserAgent: r.Header.Get("User-Agent"),
		Referer:   r.Header.Get("Referer"),
		Origin:    r.Header.Get("Origin"),
		Query:     r.URL.Query(),
		Body:      body,
	}
}

// clientIP returns the first non-empty value of headers, or the host part of
// the connection's remote address. X-Forwarded-For contributes its first hop.
func clientIP(r *http.Request, headers []string) string {
	for _, name := range headers {
		value := strings.TrimSpace(r.Header.Get(name))
		if value == "" {
			continue
		}
		if http.CanonicalHeaderKey(name) == "X-Forwarded-For" {
			value, _, _ = strings.Cut(value, ",")
			value = strings.TrimSpace(value)
		}
		if value != "" {
			return value
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
