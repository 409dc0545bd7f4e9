package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// GetMediaVersions lists every recorded version of a message's media. The
// list is empty for a message no transcode has finished for yet.
func (h *Handlers) GetMediaVersions(w http.ResponseWriter, r *http.Request) {
	msgID := mux.Vars(r)["msgID"]
	if msgID == "" {
		writeJSONError(w, "message id is required", http.StatusBadRequest)
		return
	}

	versions, err := h.versions.VersionsFor(r.Context(), msgID)
	if err != nil {
		logger.Error("failed to look up versions for message %s: %v", msgID, err)
		writeJSONError(w, "failed to look up versions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"msg_id":   msgID,
		"versions": versions,
	})
}
