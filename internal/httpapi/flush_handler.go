package httpapi

import (
	"errors"
	"net/http"

	"beacon_collector/internal/tracking"
	"beacon_collector/internal/utils"
)

type flushResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
	Archive string `json:"archive,omitempty"`
}

// handleFlush deletes every record when the password query parameter
// matches the configured secret.
func (d *Dependencies) handleFlush(w http.ResponseWriter, r *http.Request) {
	result, err := d.Flusher.Flush(r.Context(), r.URL.Query().Get("password"))
	switch {
	case errors.Is(err, tracking.ErrUnauthorized):
		d.Logger.Warn("Rejected flush with invalid password", "request_id", requestID(r))
		utils.RespondWithErrorDetail(w, http.StatusUnauthorized, "Unauthorized",
			"Invalid password. Use: /flush?password=YOUR_PASSWORD")

	case err != nil:
		d.Logger.Error("Flush failed", "error", err, "request_id", requestID(r))
		utils.RespondWithErrorDetail(w, http.StatusInternalServerError, "Flush failed", err.Error())

	case result.Deleted == 0:
		utils.RespondWithJSON(w, http.StatusOK, flushResponse{
			Success: true,
			Message: "No logs to delete",
		})

	default:
		utils.RespondWithJSON(w, http.StatusOK, flushResponse{
			Success: true,
			Message: "All logs deleted successfully",
			Deleted: result.Deleted,
			Archive: result.Archive,
		})
	}
}
