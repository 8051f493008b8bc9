package handlers

import (
	"io"
	"net/http"

	"github.com/bierlingm/worldview-extractor/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxWorldviewBytes caps an ingested worldview document.
const maxWorldviewBytes = 4 << 20

type WorldviewHandler struct {
	svc      *service.WorldviewService
	criteria service.EvalCriteria
}

func NewWorldviewHandler(svc *service.WorldviewService) *WorldviewHandler {
	return &WorldviewHandler{svc: svc, criteria: service.DefaultStrictCriteria()}
}

func (h *WorldviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWorldviewBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wv, err := h.svc.Ingest(r.Context(), body)
	if err != nil {
		writeServiceError(w, err, "failed to save worldview")
		return
	}

	writeJSON(w, http.StatusCreated, wv)
}

func (h *WorldviewHandler) List(w http.ResponseWriter, r *http.Request) {
	metas, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list worldviews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"worldviews": metas})
}

func (h *WorldviewHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	metas, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeServiceError(w, err, "failed to search worldviews")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "worldviews": metas})
}

func (h *WorldviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	wv, err := h.svc.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, err, "failed to get worldview")
		return
	}
	writeJSON(w, http.StatusOK, wv)
}

func (h *WorldviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeServiceError(w, err, "failed to delete worldview")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type evalResponse struct {
	Slug       string                      `json:"slug"`
	Passed     bool                        `json:"passed"`
	Criteria   service.EvalCriteria        `json:"criteria"`
	Violations []service.CriteriaViolation `json:"violations"`
}

func (h *WorldviewHandler) Eval(w http.ResponseWriter, r *http.Request) {
	wv, err := h.svc.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, err, "failed to get worldview")
		return
	}

	violations := h.criteria.Evaluate(wv)
	writeJSON(w, http.StatusOK, evalResponse{
		Slug:       wv.Slug,
		Passed:     len(violations) == 0,
		Criteria:   h.criteria,
		Violations: violations,
	})
}
