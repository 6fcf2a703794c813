package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lectio/internal/apperr"
	"github.com/starford/lectio/internal/courseservice"
	"github.com/starford/lectio/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *courseservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *courseservice.Service) *Handler {
	return &Handler{svc: svc}
}

// summaryPath extracts the summary path from the URL (everything after
// /api/summaries/). Supports encoded slashes from OpenAPI clients.
func summaryPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListCourses handles GET /api/courses.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.svc.ListCourses(r.Context())
	if err != nil {
		slog.Error("list courses failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if courses == nil {
		courses = []courseservice.CourseInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"courses": courses,
		"total":   len(courses),
	})
}

// CourseHistory handles GET /api/courses/{code}/history.
func (h *Handler) CourseHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	records, err := h.svc.CourseHistory(r.Context(), code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("course not found"))
		} else {
			slog.Error("course history failed", slog.String("course", code), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if records == nil {
		records = []models.HistoryContextRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"course":  code,
		"records": records,
	})
}

// CourseIndex handles GET /api/courses/{code}/index.
func (h *Handler) CourseIndex(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	doc, err := h.svc.CourseIndex(r.Context(), code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("course index not found"))
		} else {
			slog.Error("course index failed", slog.String("course", code), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GlobalIndex handles GET /api/index.
func (h *Handler) GlobalIndex(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GlobalIndex(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("global index not found"))
		} else {
			slog.Error("global index failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetSummary handles GET /api/summaries/*.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	path := summaryPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	detail, err := h.svc.GetSummary(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get summary failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ListSummaries handles GET /api/summaries.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	metas, err := h.svc.ListSummaries(r.Context(), dir)
	if err != nil {
		slog.Error("list summaries failed", slog.String("dir", dir), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if metas == nil {
		metas = []models.ArtifactMetadata{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summaries": metas,
		"total":     len(metas),
	})
}
