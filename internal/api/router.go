/**
 * @description
 * This file sets up the HTTP router for the quote-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication and rate limiting.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS for the public quote widget.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions carries the cross-cutting settings the router wires into
// middleware.
type RouterOptions struct {
	AdminJWTSecret          string
	AdminTokenMaxAge        time.Duration
	RateLimiter             RateLimiter
	QuoteRateLimitPerMinute int
	LeadRateLimitPerMinute  int
}

// QuoteRoutes creates and returns a new router for the quote service.
func QuoteRoutes(h *QuoteHandlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// The quote form is embedded on the public site.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public quoting surface.
		r.With(rateLimitMiddleware(opts.RateLimiter, "quote", opts.QuoteRateLimitPerMinute)).
			Post("/quotes", h.CreateQuoteHandler)
		r.Get("/pricing", h.GetPricingHandler)
		r.With(rateLimitMiddleware(opts.RateLimiter, "lead", opts.LeadRateLimitPerMinute)).
			Post("/leads", h.CreateLeadHandler)

		// Admin pricing management.
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(opts.AdminJWTSecret, opts.AdminTokenMaxAge))

			r.Put("/exchange-rate", h.UpdateExchangeRateHandler)
			r.Put("/service-fee-tiers", h.ReplaceServiceFeeTiersHandler)
			r.Put("/shipping-rate-tiers", h.ReplaceShippingRateTiersHandler)
			r.Get("/leads", h.ListLeadsHandler)
		})
	})

	return r
}
