package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"transcode-service/internal/coordinator"
	"transcode-service/internal/mediatypes"
)

// SubmitTranscode accepts a transcode request and enqueues it. The request
// kind may be omitted, in which case it is inferred from the file
// extension. Enqueueing is acknowledged with 202; everything after that is
// asynchronous and reported via the event stream.
func (h *Handlers) SubmitTranscode(w http.ResponseWriter, r *http.Request) {
	var req mediatypes.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		kind, err := mediatypes.KindForExt(filepath.Ext(req.Path))
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Kind = kind
	}

	if err := h.pipeline.Transcode(req); err != nil {
		switch {
		case errors.Is(err, mediatypes.ErrUnknownMediaKind):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, coordinator.ErrShuttingDown):
			writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			logger.Error("failed to schedule transcode for %s: %v", req, err)
			writeJSONError(w, "failed to schedule transcode", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]interface{}{
		"status": "accepted",
		"type":   req.Kind,
		"path":   req.Path,
		"msg_id": req.MsgID,
	})
}
