/**
 * @description
 * This file defines the core domain models for the borrowing-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Book and member identifiers are opaque strings owned by the catalog and
 *   directory services; this service never validates them beyond gateway calls.
 * - Dates are calendar dates stored at UTC midnight. The borrow date is set
 *   once at creation and the return date exactly once on return.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// BorrowStatus enumerates the states of a borrowing transaction.
// RETURNED is terminal: a later re-borrow of the same book by the same
// member creates a new record.
type BorrowStatus string

const (
	StatusBorrowed BorrowStatus = "BORROWED"
	StatusReturned BorrowStatus = "RETURNED"
)

// BorrowingTransaction is the sole persistent entity of this service. It maps
// directly to the `borrow_transactions` table.
type BorrowingTransaction struct {
	ID         uuid.UUID    `json:"id"`
	BookID     string       `json:"book_id"`
	MemberID   string       `json:"member_id"`
	BorrowDate time.Time    `json:"borrow_date"`
	ReturnDate *time.Time   `json:"return_date,omitempty"`
	Status     BorrowStatus `json:"status"`
	// BookTitle is a denormalized, best-effort cache of the catalog title at
	// the time of the relevant operation. It may be empty and is never
	// authoritative; the title is re-fetched on return.
	BookTitle string    `json:"book_title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the transaction is an active loan.
func (t *BorrowingTransaction) Active() bool {
	return t.Status == StatusBorrowed
}

// BorrowRequest is the DTO for incoming borrow API requests.
type BorrowRequest struct {
	BookID   string `json:"bookId"`
	MemberID string `json:"memberId"`
}

// ReturnRequest is the DTO for incoming return API requests.
type ReturnRequest struct {
	BookID   string `json:"bookId"`
	MemberID string `json:"memberId"`
}

// BorrowListOptions controls pagination for the administrative listing of all
// borrow transactions.
type BorrowListOptions struct {
	Limit  int
	Offset int
}

// EmailRequestedEvent is the message payload published to RabbitMQ when a
// borrow or return confirmation should be delivered to a member. Delivery is
// owned by the suite's notification service; this service only requests it.
type EmailRequestedEvent struct {
	Recipient     string    `json:"recipient"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}
