/**
 * @description
 * This file contains the HTTP handlers for the borrowing-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/librisuite/borrowing-service/internal/app"
	"github.com/librisuite/borrowing-service/internal/domain"
	"github.com/librisuite/borrowing-service/internal/store"
)

const defaultPageSize = 50

// BorrowingService is the slice of the application service the handlers need.
// Declared here so handlers can be exercised against a stub in tests.
type BorrowingService interface {
	BorrowBook(ctx context.Context, bookID, memberID string) (*domain.BorrowingTransaction, error)
	ReturnBook(ctx context.Context, memberID, bookID string) (*domain.BorrowingTransaction, error)
	GetMemberBorrowedBooks(ctx context.Context, memberID string) ([]domain.BorrowingTransaction, error)
	GetAllBorrows(ctx context.Context, opts domain.BorrowListOptions) ([]domain.BorrowingTransaction, error)
	DueDate(tx *domain.BorrowingTransaction) time.Time
}

// BorrowingHandlers holds the application service that handlers will use.
type BorrowingHandlers struct {
	service     BorrowingService
	maxPageSize int
}

// NewBorrowingHandlers creates a new instance of BorrowingHandlers.
func NewBorrowingHandlers(service BorrowingService, maxPageSize int) *BorrowingHandlers {
	if maxPageSize <= 0 {
		maxPageSize = 200
	}
	return &BorrowingHandlers{service: service, maxPageSize: maxPageSize}
}

// borrowConfirmationResponse is sent back after a successful borrow. The due
// date is derived from the borrow date, never persisted.
type borrowConfirmationResponse struct {
	Transaction *domain.BorrowingTransaction `json:"transaction"`
	DueDate     string                       `json:"due_date"`
	Message     string                       `json:"message"`
}

// returnConfirmationResponse is sent back after a successful return.
type returnConfirmationResponse struct {
	Transaction *domain.BorrowingTransaction `json:"transaction"`
	Message     string                       `json:"message"`
}

// BorrowHandler handles requests to record a borrow.
func (h *BorrowingHandlers) BorrowHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=borrow outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.BookID = strings.TrimSpace(req.BookID)
	req.MemberID = strings.TrimSpace(req.MemberID)
	if fields := validateIdentifiers(req.BookID, req.MemberID); len(fields) > 0 {
		h.writeValidationError(w, fields)
		return
	}

	tx, err := h.service.BorrowBook(r.Context(), req.BookID, req.MemberID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=borrow outcome=failed book_id=%s member_id=%s err=%v", req.BookID, req.MemberID, err)
		switch {
		case errors.Is(err, store.ErrActiveLoanExists):
			h.writeError(w, http.StatusConflict, "An active loan already exists for this book and member")
		case errors.Is(err, app.ErrExternalService):
			h.writeError(w, http.StatusBadRequest, "Borrowing is not allowed right now due to an external service error")
		default:
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	dueDate := h.service.DueDate(tx)
	response := borrowConfirmationResponse{
		Transaction: tx,
		DueDate:     dueDate.Format("2006-01-02"),
		Message:     fmt.Sprintf("Borrow recorded. The book is due back by %s.", dueDate.Format("2006-01-02")),
	}
	h.writeJSON(w, http.StatusOK, response)
}

// ReturnHandler handles requests to record a return.
func (h *BorrowingHandlers) ReturnHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=return outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.BookID = strings.TrimSpace(req.BookID)
	req.MemberID = strings.TrimSpace(req.MemberID)
	if fields := validateIdentifiers(req.BookID, req.MemberID); len(fields) > 0 {
		h.writeValidationError(w, fields)
		return
	}

	tx, err := h.service.ReturnBook(r.Context(), req.MemberID, req.BookID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=return outcome=failed book_id=%s member_id=%s err=%v", req.BookID, req.MemberID, err)
		if errors.Is(err, store.ErrLoanNotFound) {
			h.writeError(w, http.StatusNotFound,
				fmt.Sprintf("No active loan found for book %s and member %s", req.BookID, req.MemberID))
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := returnConfirmationResponse{
		Transaction: tx,
		Message:     "Return recorded. Thank you.",
	}
	h.writeJSON(w, http.StatusOK, response)
}

// MemberBorrowsHandler lists a member's active loans.
func (h *BorrowingHandlers) MemberBorrowsHandler(w http.ResponseWriter, r *http.Request) {
	memberID := strings.TrimSpace(chi.URLParam(r, "memberId"))
	if memberID == "" {
		h.writeValidationError(w, map[string]string{"memberId": "required"})
		return
	}

	transactions, err := h.service.GetMemberBorrowedBooks(r.Context(), memberID)
	if err != nil {
		log.Printf("level=error component=api endpoint=member_borrows outcome=failed member_id=%s err=%v", memberID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, transactions)
}

// AllBorrowsHandler lists every borrow transaction regardless of status.
// Pagination is a non-breaking extension: omitted parameters fall back to the
// default page size.
func (h *BorrowingHandlers) AllBorrowsHandler(w http.ResponseWriter, r *http.Request) {
	opts := domain.BorrowListOptions{
		Limit:  parseIntParam(r, "limit", defaultPageSize),
		Offset: parseIntParam(r, "offset", 0),
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultPageSize
	}
	if opts.Limit > h.maxPageSize {
		opts.Limit = h.maxPageSize
	}

	transactions, err := h.service.GetAllBorrows(r.Context(), opts)
	if err != nil {
		log.Printf("level=error component=api endpoint=all_borrows outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, transactions)
}

func validateIdentifiers(bookID, memberID string) map[string]string {
	fields := make(map[string]string)
	if bookID == "" {
		fields["bookId"] = "required"
	}
	if memberID == "" {
		fields["memberId"] = "required"
	}
	return fields
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// writeJSON is a helper for writing JSON responses.
func (h *BorrowingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *BorrowingHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationError reports malformed request payloads per field.
func (h *BorrowingHandlers) writeValidationError(w http.ResponseWriter, fields map[string]string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]map[string]string{"errors": fields})
}
