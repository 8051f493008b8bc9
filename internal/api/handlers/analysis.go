package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bierlingm/worldview-extractor/internal/service"
	"github.com/bierlingm/worldview-extractor/internal/synthesis"
	"github.com/go-chi/chi/v5"
)

type AnalysisHandler struct {
	svc *service.AnalysisService
}

func NewAnalysisHandler(svc *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

func (h *AnalysisHandler) Diff(w http.ResponseWriter, r *http.Request) {
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "a and b are required")
		return
	}

	diff, err := h.svc.Diff(r.Context(), a, b)
	if err != nil {
		writeServiceError(w, err, "failed to diff worldviews")
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (h *AnalysisHandler) Blindspots(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	others := splitSlugs(r.URL.Query().Get("others"))

	spots, err := h.svc.Blindspots(r.Context(), slug, others)
	if err != nil {
		writeServiceError(w, err, "failed to find blindspots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slug": slug, "blindspots": spots})
}

type movementRequest struct {
	Slugs  []string `json:"slugs"`
	Title  string   `json:"title"`
	Format string   `json:"format"`
}

// Movement synthesizes stored worldviews. The response is JSON unless the
// requested format is markdown or both.
func (h *AnalysisHandler) Movement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.svc.Movement(r.Context(), req.Slugs, req.Title)
	if err != nil {
		writeServiceError(w, err, "failed to synthesize movement")
		return
	}

	switch req.Format {
	case synthesis.FormatMarkdown, synthesis.FormatBoth:
		out, err := synthesis.Render(m, req.Format)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to render movement")
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
	default:
		writeJSON(w, http.StatusOK, m)
	}
}

func splitSlugs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
