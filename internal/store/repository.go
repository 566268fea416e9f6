/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the borrowing-service. By defining an interface,
 * we decouple the orchestrator's business logic from the specific database
 * implementation (PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For transaction identifiers.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/librisuite/borrowing-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// CreateBorrowIfNoActive atomically inserts a new borrow transaction
	// unless an active (BORROWED) loan already exists for the same
	// (book_id, member_id) pair. Returns ErrActiveLoanExists when the
	// conditional insert matches nothing, so two concurrent borrows of the
	// same pair cannot both succeed.
	CreateBorrowIfNoActive(ctx context.Context, tx *domain.BorrowingTransaction) error

	// FindActiveByBookAndMember returns the active loan for the pair.
	// If the store ever holds more than one active row for a pair (legacy
	// data predating the conditional insert), the oldest borrow_date wins,
	// with created_at as tie-break. Returns ErrLoanNotFound when none match.
	FindActiveByBookAndMember(ctx context.Context, bookID, memberID string) (*domain.BorrowingTransaction, error)

	// MarkReturned transitions a loan to RETURNED and stamps the return date.
	// The update is a compare-and-swap on status=BORROWED: a concurrent
	// return of the same transaction loses the race and gets ErrLoanNotFound.
	MarkReturned(ctx context.Context, id uuid.UUID, returnDate time.Time) (*domain.BorrowingTransaction, error)

	// FindActiveByMember returns all active loans for a member in insertion
	// order. An empty slice is not an error.
	FindActiveByMember(ctx context.Context, memberID string) ([]domain.BorrowingTransaction, error)

	// FindAll returns every transaction regardless of status in insertion
	// order, paginated.
	FindAll(ctx context.Context, opts domain.BorrowListOptions) ([]domain.BorrowingTransaction, error)

	// UpdateBookTitle refreshes the denormalized title cached on a record.
	UpdateBookTitle(ctx context.Context, id uuid.UUID, title string) error

	// DeleteBorrow removes a borrow record. Used only to compensate the
	// authoritative write when a borrow fails on a required gateway call;
	// records are never deleted in normal operation.
	DeleteBorrow(ctx context.Context, id uuid.UUID) error
}
