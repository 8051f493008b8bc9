package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bierlingm/worldview-extractor/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors to HTTP statuses. Unrecognized
// errors are reported as fallback with status 500.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrWorldviewNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidWorldview),
		errors.Is(err, service.ErrSlugRequired),
		errors.Is(err, service.ErrNoWorldviews):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorldviewConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
