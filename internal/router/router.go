// Package router sets up all HTTP routes and middleware chains for the
// bandsite API. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"time"

	"github.com/go-chi/chi/v5"

	"bandsite/internal/handlers"
	"bandsite/internal/middleware"
)

// Options carries the route-level policy knobs.
type Options struct {
	AdminToken     string
	AllowedOrigins []string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(public *handlers.Public, admin *handlers.Admin, images *handlers.Images, ogCards *handlers.OGCards, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health check, no auth.
	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints.
		r.Route("/public", func(r chi.Router) {
			r.Get("/site-data", public.SiteData)

			// Reservations sit behind a per-IP limiter; the form has no
			// other abuse brake besides the honeypot.
			r.Group(func(r chi.Router) {
				limiter := middleware.NewRateLimiter(10, time.Minute)
				r.Use(limiter.Middleware)
				r.Post("/ticket-reservations", public.CreateReservation)
			})
		})

		// Admin endpoints, shared-token guarded.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(opts.AdminToken))

			r.Get("/site-data", admin.GetSiteData)
			r.Put("/site-data", admin.PutSiteData)

			r.Get("/ticket-reservations", admin.ListReservations)
			r.Get("/ticket-reservations.csv", admin.ExportReservationsCSV)
			r.Post("/ticket-reservations/{id}/status", admin.UpdateReservationStatus)

			r.Route("/live/{id}", func(r chi.Router) {
				r.Post("/post-x", admin.PostX)
				r.Post("/preview-x", admin.PreviewX)
				r.Post("/schedule-x", admin.ScheduleX)
			})

			r.Get("/x-posts", admin.ListXPosts)
			r.Post("/x-posts/{id}/cancel", admin.CancelXPost)
			r.Get("/verify-x", admin.VerifyX)

			r.Post("/upload-image", admin.UploadImage)
		})
	})

	// Uploaded images and share cards are fetched by browsers and crawlers
	// directly, outside the /api prefix.
	r.Get("/images/*", images.Serve)
	r.Get("/og/live/{id}", ogCards.Live)

	return r
}
