package httpapi

import (
	"net/http"

	"beacon_collector/internal/dashboard"
	"beacon_collector/internal/models"
	"beacon_collector/internal/utils"
)

func (d *Dependencies) handleDashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := d.Reader.Records(r.Context())
	if err != nil {
		d.Logger.Error("Failed to load records", "error", err, "request_id", requestID(r))
		utils.RespondWithText(w, http.StatusInternalServerError, "Failed to load logs")
		return
	}

	records := make([]*models.LogRecord, len(entries))
	for i, entry := range entries {
		records[i] = entry.Record
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err = dashboard.Render(w, records, dashboard.Options{
		SiteURL: d.SiteURL,
		Query:   r.URL.Query().Get("q"),
	})
	if err != nil {
		d.Logger.Error("Failed to render dashboard", "error", err, "request_id", requestID(r))
		utils.RespondWithText(w, http.StatusInternalServerError, "Failed to render dashboard")
	}
}
