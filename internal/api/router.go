package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lectio/internal/courseservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *courseservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Courses and their index views.
	r.Get("/courses", h.ListCourses)
	r.Get("/courses/{code}/history", h.CourseHistory)
	r.Get("/courses/{code}/index", h.CourseIndex)

	// Global master index and aggregate stats.
	r.Get("/index", h.GlobalIndex)
	r.Get("/stats", h.Stats)

	// Summary artifacts.
	r.Get("/summaries", h.ListSummaries)
	r.Get("/summaries/*", h.GetSummary)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
