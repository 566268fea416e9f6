/**
 * @description
 * This file sets up the HTTP router for the borrowing-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * standard middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// BorrowingRoutes creates and returns a new router for the borrowing service.
// The caller mounts it under /borrowings.
func BorrowingRoutes(h *BorrowingHandlers) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Post("/borrow", h.BorrowHandler)
	r.Put("/return", h.ReturnHandler)
	r.Get("/member/{memberId}", h.MemberBorrowsHandler)
	r.Get("/allborrow", h.AllBorrowsHandler)

	return r
}
