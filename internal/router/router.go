// Package router wires the HTTP routes and middleware chains for the
// shopcore API. Routes split into a public storefront group and an admin
// group with a stricter rate limit.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shopcore/internal/handlers"
	"shopcore/internal/middleware"
)

// New creates the configured chi router with all middleware and route
// groups wired up. Stop the returned rate limiter on shutdown.
func New(admin *handlers.Admin, public *handlers.Public) (chi.Router, *middleware.RateLimiter) {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check.
	r.Get("/health", healthHandler)

	// Public storefront API.
	r.Route("/api/collections", func(r chi.Router) {
		r.Get("/", public.List)
		r.Get("/handle/{handle}", public.GetByHandle)
		r.Get("/path/*", public.GetByPath)
		r.Get("/{id}", public.Get)
		r.Get("/{id}/breadcrumbs", public.Breadcrumbs)
		r.Get("/{id}/products", public.Products)
	})

	// Admin API. Mutations are cheap to abuse, so the limiter is tighter
	// than anything the storefront would ever need.
	limiter := middleware.NewRateLimiter(60, time.Minute)
	r.Route("/admin/api/collections", func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Get("/", admin.List)
		r.Get("/tree", admin.Tree)
		r.Post("/", admin.Create)
		r.Get("/{id}", admin.Get)
		r.Put("/{id}", admin.Update)
		r.Delete("/{id}", admin.Delete)
		r.Post("/{id}/move", admin.Move)
		r.Post("/{id}/publish", admin.SetPublished(true))
		r.Post("/{id}/unpublish", admin.SetPublished(false))
	})

	return r, limiter
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
