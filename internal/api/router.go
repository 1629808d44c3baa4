/**
 * @description
 * This file sets up the HTTP router for the payments-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser client.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/paylink/payments-service/pkg/token"
)

// NewRouter creates a new Chi router and registers the payments-service routes.
func NewRouter(h *PaymentHandlers, tokens *token.Manager) *chi.Mux {
	r := chi.NewRouter()

	// Standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public authentication endpoints.
	r.Post("/auth/register", h.RegisterHandler)
	r.Post("/auth/login", h.LoginHandler)

	// Protected routes that require a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))

		r.Get("/auth/me", h.MeHandler)
		r.Post("/payments/send", h.SendPaymentHandler)
		r.Get("/wallet/balance", h.BalanceHandler)
		r.Post("/wallet/topup", h.TopUpHandler)
		r.Post("/wallet/withdraw", h.WithdrawHandler)
		r.Get("/transactions", h.TransactionsHandler)
	})

	return r
}
