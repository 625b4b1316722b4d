package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"libris/internal/model"
	"libris/internal/notify"
)

// Ledger owns the loans table: the append-only record of who borrowed what
// and when. Borrow and Return each run as one transaction that pairs the
// ledger entry with its inventory effect, so either both commit or neither
// does.
type Ledger struct {
	db         *sqlx.DB
	inventory  *Inventory
	notifier   notify.Notifier
	log        zerolog.Logger
	deliveries sync.WaitGroup
}

// NewLedger creates a loan ledger. The notifier is invoked after successful
// commits only.
func NewLedger(db *sqlx.DB, inventory *Inventory, notifier notify.Notifier, log zerolog.Logger) *Ledger {
	return &Ledger{db: db, inventory: inventory, notifier: notifier, log: log}
}

// Borrow lends one unit of a book to a user. The loan entry and the
// availability decrement commit together; if no unit is free the whole
// transaction aborts with ErrBookUnavailable and no loan is recorded.
func (l *Ledger) Borrow(ctx context.Context, userID, bookID int64) (*model.Loan, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, infraErr("beginning transaction", err)
	}
	defer tx.Rollback()

	var book struct {
		ID    int64  `db:"id"`
		Title string `db:"title"`
	}
	err = tx.GetContext(ctx, &book,
		`SELECT id, title FROM books WHERE id = ? AND deleted_at IS NULL`, bookID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, infraErr("getting book", err)
	}

	if err := l.inventory.TryDecrement(ctx, tx, bookID); err != nil {
		return nil, err
	}

	loan := &model.Loan{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: time.Now().UTC(),
		BookTitle:  book.Title,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO loans (id, user_id, book_id, borrowed_at) VALUES (?, ?, ?, ?)`,
		loan.ID, loan.UserID, loan.BookID, loan.BorrowedAt,
	)
	if err != nil {
		return nil, infraErr("recording loan", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, infraErr("committing loan", err)
	}

	l.notifyAfterCommit(ctx, l.notifier.OnBorrowed, userID, book.Title, "borrow")

	return loan, nil
}

// Return closes a loan. Only the borrowing user may return it, and only
// once; the close and the availability increment commit together.
func (l *Ledger) Return(ctx context.Context, loanID string, userID int64) (*model.Loan, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, infraErr("beginning transaction", err)
	}
	defer tx.Rollback()

	loan := &model.Loan{}
	err = tx.GetContext(ctx, loan,
		`SELECT l.id, l.user_id, l.book_id, l.borrowed_at, l.returned_at, b.title AS book_title
		 FROM loans l
		 JOIN books b ON b.id = l.book_id
		 WHERE l.id = ?`, loanID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, infraErr("getting loan", err)
	}

	if loan.UserID != userID {
		return nil, ErrForbidden
	}
	if loan.ReturnedAt != nil {
		return nil, ErrAlreadyReturned
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE loans SET returned_at = ? WHERE id = ? AND returned_at IS NULL`,
		now, loanID,
	)
	if err != nil {
		return nil, infraErr("closing loan", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, infraErr("closing loan", err)
	}
	if rows == 0 {
		return nil, ErrAlreadyReturned
	}

	if err := l.inventory.Increment(ctx, tx, loan.BookID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, infraErr("committing return", err)
	}

	loan.ReturnedAt = &now

	l.notifyAfterCommit(ctx, l.notifier.OnReturned, userID, loan.BookTitle, "return")

	return loan, nil
}

// History returns a user's loans, most recent first. The ledger is
// append-only and borrows are serialized, so rowid order is borrow order.
func (l *Ledger) History(ctx context.Context, userID int64) ([]model.Loan, error) {
	var loans []model.Loan
	err := l.db.SelectContext(ctx, &loans,
		`SELECT l.id, l.user_id, l.book_id, l.borrowed_at, l.returned_at, b.title AS book_title
		 FROM loans l
		 JOIN books b ON b.id = l.book_id
		 WHERE l.user_id = ?
		 ORDER BY l.rowid DESC`, userID,
	)
	if err != nil {
		return nil, infraErr("listing loan history", err)
	}
	return loans, nil
}

// notifyAfterCommit delivers a hook without tying it to the transaction: the
// commit already happened, so a hook failure is logged and dropped, and a
// cancelled request context must not cancel the delivery.
func (l *Ledger) notifyAfterCommit(ctx context.Context, hook func(context.Context, int64, string) error, userID int64, bookTitle, event string) {
	l.deliveries.Add(1)
	go func() {
		defer l.deliveries.Done()
		if err := hook(context.WithoutCancel(ctx), userID, bookTitle); err != nil {
			l.log.Warn().Err(err).Str("event", event).Int64("user_id", userID).Msg("notification failed")
		}
	}()
}

// Wait blocks until all in-flight notification deliveries have finished.
// Called during shutdown so a notification racing process exit is not
// dropped.
func (l *Ledger) Wait() {
	l.deliveries.Wait()
}
