/**
 * @description
 * This file contains the core business logic for the borrowing-service. The
 * `Service` struct owns the borrow/return state machine and coordinates it
 * with the three remote collaborators: the book catalog, the member directory,
 * and the notification broker.
 *
 * Key features:
 * - The persistence write is the authoritative step that decides success or
 *   failure; enrichment and notification are advisory side effects.
 * - The store enforces at most one active loan per (book, member) pair via a
 *   conditional insert, and the return transition is a compare-and-swap.
 * - Communication failures on a required gateway lookup during borrow
 *   compensate the already-created record so the caller's view matches the
 *   store. Timeouts and not-found responses degrade gracefully instead.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For transaction identifiers.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/catalogclient, pkg/directoryclient: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/librisuite/borrowing-service/internal/domain"
	"github.com/librisuite/borrowing-service/internal/store"
	"github.com/librisuite/borrowing-service/pkg/catalogclient"
	"github.com/librisuite/borrowing-service/pkg/directoryclient"
)

// ErrExternalService is returned when a remote gateway call required for
// correctness failed to communicate during a borrow. The underlying cause is
// logged, never exposed to the caller.
var ErrExternalService = errors.New("borrowing not allowed due to external service error")

// CatalogGateway is the boundary abstraction over the book catalog service.
type CatalogGateway interface {
	GetBook(ctx context.Context, bookID string) (*catalogclient.Book, error)
}

// DirectoryGateway is the boundary abstraction over the member directory service.
type DirectoryGateway interface {
	GetMember(ctx context.Context, memberID string) (*directoryclient.Member, error)
}

// NotificationGateway is the boundary abstraction over outbound notification
// delivery. Errors from it are always non-fatal to the caller.
type NotificationGateway interface {
	PublishEmailRequested(ctx context.Context, exchange string, event domain.EmailRequestedEvent) error
}

// Service provides the core business logic for borrow transactions.
type Service struct {
	repo           store.Repository
	catalog        CatalogGateway
	directory      DirectoryGateway
	notifier       NotificationGateway
	titleCache     *RedisTitleCache
	exchange       string
	loanPeriodDays int
	gatewayTimeout time.Duration
}

// NewService creates a new borrowing service instance.
func NewService(
	repo store.Repository,
	catalog CatalogGateway,
	directory DirectoryGateway,
	notifier NotificationGateway,
	exchange string,
	loanPeriodDays int,
	gatewayTimeout time.Duration,
) *Service {
	if loanPeriodDays <= 0 {
		loanPeriodDays = 14
	}
	if gatewayTimeout <= 0 {
		gatewayTimeout = 3 * time.Second
	}
	return &Service{
		repo:           repo,
		catalog:        catalog,
		directory:      directory,
		notifier:       notifier,
		exchange:       exchange,
		loanPeriodDays: loanPeriodDays,
		gatewayTimeout: gatewayTimeout,
	}
}

// SetTitleCache attaches an optional read-through cache for catalog titles.
func (s *Service) SetTitleCache(cache *RedisTitleCache) {
	s.titleCache = cache
}

// DueDate computes the loan due date as an offset from the borrow date. The
// due date is derived, never persisted; loan policy beyond this offset is not
// this service's decision.
func (s *Service) DueDate(tx *domain.BorrowingTransaction) time.Time {
	return tx.BorrowDate.AddDate(0, 0, s.loanPeriodDays)
}

// BorrowBook records that a member has borrowed a book.
//
// The conditional insert is the durable, authoritative step. The catalog and
// directory lookups that follow enrich the result and drive the confirmation
// notification; a communication failure on either compensates the insert and
// fails the operation, while not-found and timeout outcomes degrade to an
// empty title or a skipped notification.
func (s *Service) BorrowBook(ctx context.Context, bookID, memberID string) (*domain.BorrowingTransaction, error) {
	tx := &domain.BorrowingTransaction{
		ID:         uuid.New(),
		BookID:     bookID,
		MemberID:   memberID,
		BorrowDate: today(),
		Status:     domain.StatusBorrowed,
	}

	if err := s.repo.CreateBorrowIfNoActive(ctx, tx); err != nil {
		return nil, err
	}
	log.Printf("level=info component=app operation=borrow outcome=recorded transaction_id=%s book_id=%s member_id=%s", tx.ID, bookID, memberID)

	// Enrich with the catalog title.
	title, err := s.lookupTitle(ctx, bookID)
	switch {
	case err == nil:
		tx.BookTitle = title
		if updErr := s.repo.UpdateBookTitle(ctx, tx.ID, title); updErr != nil {
			log.Printf("level=warn component=app operation=borrow msg=\"title persist failed\" transaction_id=%s err=%v", tx.ID, updErr)
		}
	case isDegradableLookupFailure(err):
		log.Printf("level=warn component=app operation=borrow msg=\"title unavailable\" book_id=%s err=%v", bookID, err)
	default:
		log.Printf("level=error component=app operation=borrow msg=\"catalog unreachable; compensating\" transaction_id=%s book_id=%s err=%v", tx.ID, bookID, err)
		s.compensateBorrow(ctx, tx)
		return nil, ErrExternalService
	}

	// Look up the member's contact and request a confirmation notification.
	member, err := s.lookupMember(ctx, memberID)
	switch {
	case err == nil:
		s.notifyBorrow(ctx, tx, member)
	case isDegradableLookupFailure(err):
		log.Printf("level=warn component=app operation=borrow msg=\"contact unavailable; notification skipped\" member_id=%s err=%v", memberID, err)
	default:
		log.Printf("level=error component=app operation=borrow msg=\"directory unreachable; compensating\" transaction_id=%s member_id=%s err=%v", tx.ID, memberID, err)
		s.compensateBorrow(ctx, tx)
		return nil, ErrExternalService
	}

	return tx, nil
}

// ReturnBook records that a member has returned a book. RETURNED is terminal:
// a later re-borrow of the same book by the same member creates a new record.
func (s *Service) ReturnBook(ctx context.Context, memberID, bookID string) (*domain.BorrowingTransaction, error) {
	active, err := s.repo.FindActiveByBookAndMember(ctx, bookID, memberID)
	if err != nil {
		return nil, err
	}

	returned, err := s.repo.MarkReturned(ctx, active.ID, today())
	if err != nil {
		// A concurrent return won the compare-and-swap; report not-found
		// rather than a double transition.
		return nil, err
	}
	log.Printf("level=info component=app operation=return outcome=recorded transaction_id=%s book_id=%s member_id=%s", returned.ID, bookID, memberID)

	// Re-fetch the title to enrich the confirmation. The return is not gated
	// on catalog availability, so every failure here is swallowed.
	title, terr := s.lookupTitle(ctx, bookID)
	if terr != nil {
		log.Printf("level=warn component=app operation=return msg=\"title refresh failed\" book_id=%s err=%v", bookID, terr)
	} else {
		returned.BookTitle = title
		if updErr := s.repo.UpdateBookTitle(ctx, returned.ID, title); updErr != nil {
			log.Printf("level=warn component=app operation=return msg=\"title persist failed\" transaction_id=%s err=%v", returned.ID, updErr)
		}
	}

	// Best-effort return confirmation.
	member, merr := s.lookupMember(ctx, memberID)
	if merr != nil {
		log.Printf("level=warn component=app operation=return msg=\"contact unavailable; notification skipped\" member_id=%s err=%v", memberID, merr)
	} else {
		s.notifyReturn(ctx, returned, member)
	}

	return returned, nil
}

// GetMemberBorrowedBooks returns all active loans for a member. No enrichment
// is performed; an empty result is not an error.
func (s *Service) GetMemberBorrowedBooks(ctx context.Context, memberID string) ([]domain.BorrowingTransaction, error) {
	return s.repo.FindActiveByMember(ctx, memberID)
}

// GetAllBorrows returns every transaction regardless of status, paginated.
// Intended for administrative and reporting use.
func (s *Service) GetAllBorrows(ctx context.Context, opts domain.BorrowListOptions) ([]domain.BorrowingTransaction, error) {
	return s.repo.FindAll(ctx, opts)
}

// lookupTitle resolves a book's display title, consulting the optional cache
// before the catalog gateway. The call is bounded by the gateway timeout.
func (s *Service) lookupTitle(ctx context.Context, bookID string) (string, error) {
	if title, ok := s.titleCache.Get(ctx, bookID); ok {
		return title, nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	book, err := s.catalog.GetBook(cctx, bookID)
	if err != nil {
		return "", err
	}
	s.titleCache.Set(ctx, bookID, book.Title)
	return book.Title, nil
}

// lookupMember resolves a member's contact record, bounded by the gateway timeout.
func (s *Service) lookupMember(ctx context.Context, memberID string) (*directoryclient.Member, error) {
	cctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	return s.directory.GetMember(cctx, memberID)
}

// notifyBorrow requests a borrow confirmation email. Failures are logged only.
func (s *Service) notifyBorrow(ctx context.Context, tx *domain.BorrowingTransaction, member *directoryclient.Member) {
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("You borrowed %s on %s. It is due back by %s.",
		displayTitle(tx), tx.BorrowDate.Format("2006-01-02"), s.DueDate(tx).Format("2006-01-02"))
	event := domain.EmailRequestedEvent{
		Recipient:     member.Email,
		Subject:       "Borrow confirmation",
		Body:          body,
		TransactionID: tx.ID,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.notifier.PublishEmailRequested(ctx, s.exchange, event); err != nil {
		log.Printf("level=warn component=app operation=borrow msg=\"notification publish failed\" transaction_id=%s err=%v", tx.ID, err)
	}
}

// notifyReturn requests a return confirmation email. Failures are logged only.
func (s *Service) notifyReturn(ctx context.Context, tx *domain.BorrowingTransaction, member *directoryclient.Member) {
	if s.notifier == nil {
		return
	}
	returnedOn := today()
	if tx.ReturnDate != nil {
		returnedOn = *tx.ReturnDate
	}
	event := domain.EmailRequestedEvent{
		Recipient:     member.Email,
		Subject:       "Return confirmation",
		Body:          fmt.Sprintf("You returned %s on %s. Thank you.", displayTitle(tx), returnedOn.Format("2006-01-02")),
		TransactionID: tx.ID,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.notifier.PublishEmailRequested(ctx, s.exchange, event); err != nil {
		log.Printf("level=warn component=app operation=return msg=\"notification publish failed\" transaction_id=%s err=%v", tx.ID, err)
	}
}

// compensateBorrow rolls back the authoritative insert after a fatal gateway
// failure so the caller is never told the borrow failed while the record
// persists. A failed compensation is the one state this service cannot repair
// in-request; it is logged for operators.
func (s *Service) compensateBorrow(ctx context.Context, tx *domain.BorrowingTransaction) {
	if err := s.repo.DeleteBorrow(ctx, tx.ID); err != nil {
		log.Printf("level=error component=app msg=\"CRITICAL: compensation delete failed; store and caller views diverge\" transaction_id=%s err=%v", tx.ID, err)
	}
}

// isDegradableLookupFailure reports whether a gateway lookup failure degrades
// gracefully (empty title, skipped notification) instead of failing the borrow.
// Not-found and absent-field outcomes are expected states, and timeouts on
// best-effort lookups never fail the parent operation.
func isDegradableLookupFailure(err error) bool {
	if errors.Is(err, catalogclient.ErrBookNotFound) ||
		errors.Is(err, catalogclient.ErrTitleMissing) ||
		errors.Is(err, directoryclient.ErrMemberNotFound) ||
		errors.Is(err, directoryclient.ErrContactMissing) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// displayTitle falls back to the book identifier when no title is available.
func displayTitle(tx *domain.BorrowingTransaction) string {
	if tx.BookTitle != "" {
		return fmt.Sprintf("%q", tx.BookTitle)
	}
	return fmt.Sprintf("book %s", tx.BookID)
}

// today returns the current calendar date at UTC midnight.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
