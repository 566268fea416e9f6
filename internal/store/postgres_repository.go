/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the
 * `borrow_transactions` table.
 *
 * Key invariants enforced here rather than in the orchestrator:
 * - At most one BORROWED row per (book_id, member_id) pair, via a conditional
 *   INSERT ... SELECT ... WHERE NOT EXISTS instead of read-then-write.
 * - A transaction transitions BORROWED -> RETURNED exactly once, via a
 *   compare-and-swap UPDATE guarded on the current status.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/librisuite/borrowing-service/internal/domain"
)

var (
	ErrLoanNotFound     = errors.New("active loan not found")
	ErrActiveLoanExists = errors.New("active loan already exists for this book and member")
)

const borrowColumns = `id, book_id, member_id, borrow_date, return_date, status, book_title, created_at, updated_at`

// activeLoanConstraint is the partial unique index backing the one-active-loan
// rule (see migrations/0001).
const activeLoanConstraint = "borrow_transactions_one_active_loan"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateBorrowIfNoActive inserts the borrow record only when no BORROWED row
// exists for the same (book_id, member_id) pair. The existence check and the
// insert happen in one statement so concurrent borrows for the same pair
// cannot both succeed.
func (r *PostgresRepository) CreateBorrowIfNoActive(ctx context.Context, tx *domain.BorrowingTransaction) error {
	query := `
		INSERT INTO borrow_transactions (id, book_id, member_id, borrow_date, status, book_title, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, NOW(), NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM borrow_transactions
			WHERE book_id = $2 AND member_id = $3 AND status = $7
		)
	`
	tag, err := r.db.Exec(ctx, query,
		tx.ID, tx.BookID, tx.MemberID, tx.BorrowDate, tx.Status, tx.BookTitle, domain.StatusBorrowed)
	if err != nil {
		return classifyBorrowInsertError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrActiveLoanExists
	}
	return nil
}

// FindActiveByBookAndMember picks the active loan for the pair. Ordering by
// borrow_date then created_at makes the pick deterministic should legacy data
// ever hold more than one active row for the same pair.
func (r *PostgresRepository) FindActiveByBookAndMember(ctx context.Context, bookID, memberID string) (*domain.BorrowingTransaction, error) {
	query := `
		SELECT ` + borrowColumns + `
		FROM borrow_transactions
		WHERE book_id = $1 AND member_id = $2 AND status = $3
		ORDER BY borrow_date ASC, created_at ASC
		LIMIT 1
	`
	row := r.db.QueryRow(ctx, query, bookID, memberID, domain.StatusBorrowed)
	tx, err := scanBorrow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return tx, nil
}

// MarkReturned performs the BORROWED -> RETURNED transition. Guarding on the
// current status makes the update a compare-and-swap: a second return of the
// same transaction matches zero rows and reports ErrLoanNotFound.
func (r *PostgresRepository) MarkReturned(ctx context.Context, id uuid.UUID, returnDate time.Time) (*domain.BorrowingTransaction, error) {
	query := `
		UPDATE borrow_transactions
		SET status = $1, return_date = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING ` + borrowColumns + `
	`
	row := r.db.QueryRow(ctx, query, domain.StatusReturned, returnDate, id, domain.StatusBorrowed)
	tx, err := scanBorrow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to mark loan returned: %w", err)
	}
	return tx, nil
}

// FindActiveByMember returns all active loans for a member in insertion order.
func (r *PostgresRepository) FindActiveByMember(ctx context.Context, memberID string) ([]domain.BorrowingTransaction, error) {
	query := `
		SELECT ` + borrowColumns + `
		FROM borrow_transactions
		WHERE member_id = $1 AND status = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, memberID, domain.StatusBorrowed)
	if err != nil {
		return nil, fmt.Errorf("failed to query active loans for member: %w", err)
	}
	defer rows.Close()

	return collectBorrows(rows)
}

// FindAll returns every transaction regardless of status, paginated.
func (r *PostgresRepository) FindAll(ctx context.Context, opts domain.BorrowListOptions) ([]domain.BorrowingTransaction, error) {
	query := `
		SELECT ` + borrowColumns + `
		FROM borrow_transactions
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query borrow transactions: %w", err)
	}
	defer rows.Close()

	return collectBorrows(rows)
}

// UpdateBookTitle refreshes the denormalized title on a record. The title is
// advisory, so a zero-row match is not an error.
func (r *PostgresRepository) UpdateBookTitle(ctx context.Context, id uuid.UUID, title string) error {
	query := `
		UPDATE borrow_transactions
		SET book_title = $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, title, id); err != nil {
		return fmt.Errorf("failed to update book title: %w", err)
	}
	return nil
}

// DeleteBorrow removes a borrow record. Compensation path only.
func (r *PostgresRepository) DeleteBorrow(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM borrow_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete borrow transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// classifyBorrowInsertError maps the unique-violation raised by the
// one-active-loan index to ErrActiveLoanExists. Under READ COMMITTED two
// concurrent conditional inserts for the same pair can both pass the
// NOT EXISTS check; the partial index then rejects the loser with SQLSTATE
// 23505, which is the same conflict the conditional insert reports.
func classifyBorrowInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeLoanConstraint {
		return ErrActiveLoanExists
	}
	return fmt.Errorf("failed to insert borrow transaction: %w", err)
}

func scanBorrow(row pgx.Row) (*domain.BorrowingTransaction, error) {
	var tx domain.BorrowingTransaction
	err := row.Scan(
		&tx.ID,
		&tx.BookID,
		&tx.MemberID,
		&tx.BorrowDate,
		&tx.ReturnDate,
		&tx.Status,
		&tx.BookTitle,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func collectBorrows(rows pgx.Rows) ([]domain.BorrowingTransaction, error) {
	transactions := make([]domain.BorrowingTransaction, 0)
	for rows.Next() {
		tx, err := scanBorrow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrow transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate borrow transactions: %w", err)
	}
	return transactions, nil
}
