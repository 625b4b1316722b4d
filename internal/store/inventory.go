package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"libris/internal/model"
)

// Inventory owns the books table: catalog CRUD and the per-book
// total/available quantities. Availability only moves through TryDecrement
// and Increment, always inside a caller-supplied transaction.
type Inventory struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewInventory creates an inventory store on an opened database handle.
func NewInventory(db *sqlx.DB, log zerolog.Logger) *Inventory {
	return &Inventory{db: db, log: log}
}

// BookFilter narrows ListBooks results.
type BookFilter struct {
	Title         string
	Author        string
	AvailableOnly bool
}

// CreateBook creates a catalog entry with all copies available.
func (s *Inventory) CreateBook(ctx context.Context, title, author string, publishedYear int, isbn string, quantity int) (*model.Book, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO books (title, author, published_year, isbn, total_quantity, available_quantity)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		title, author, publishedYear, isbn, quantity, quantity,
	)
	if err != nil {
		return nil, catalogErr("creating book", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, infraErr("getting book id", err)
	}

	return s.GetBook(ctx, id)
}

// GetBook returns a book by ID.
func (s *Inventory) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	book := &model.Book{}
	err := s.db.GetContext(ctx, book,
		`SELECT id, title, author, published_year, isbn, total_quantity, available_quantity,
		        created_at, updated_at, deleted_at
		 FROM books WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, infraErr("getting book", err)
	}
	return book, nil
}

// ListBooks returns all non-deleted books matching the filter.
func (s *Inventory) ListBooks(ctx context.Context, filter BookFilter) ([]model.Book, error) {
	query := `SELECT id, title, author, published_year, isbn, total_quantity, available_quantity,
	                 created_at, updated_at, deleted_at
	          FROM books WHERE deleted_at IS NULL`
	var args []any

	if filter.Title != "" {
		query += ` AND title LIKE ?`
		args = append(args, "%"+filter.Title+"%")
	}
	if filter.Author != "" {
		query += ` AND author LIKE ?`
		args = append(args, "%"+filter.Author+"%")
	}
	if filter.AvailableOnly {
		query += ` AND available_quantity > 0`
	}

	query += ` ORDER BY title`

	var books []model.Book
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, infraErr("listing books", err)
	}
	return books, nil
}

// UpdateBook updates a book's metadata and total quantity. The new total may
// not drop below the number of active loans (ErrConflict); the available
// quantity is recomputed so that available = total - active loans holds at
// commit.
func (s *Inventory) UpdateBook(ctx context.Context, id int64, title, author string, publishedYear int, isbn string, totalQuantity int) (*model.Book, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, infraErr("beginning transaction", err)
	}
	defer tx.Rollback()

	active, err := s.countActiveLoans(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if totalQuantity < active {
		return nil, ErrConflict
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET title = ?, author = ?, published_year = ?, isbn = ?,
		     total_quantity = ?, available_quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		title, author, publishedYear, isbn, totalQuantity, totalQuantity-active, id,
	)
	if err != nil {
		return nil, catalogErr("updating book", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, infraErr("updating book", err)
	}
	if rows == 0 {
		return nil, ErrBookNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, infraErr("committing book update", err)
	}

	return s.GetBook(ctx, id)
}

// DeleteBook soft-deletes a book. Books with active loans cannot be deleted
// (ErrConflict): removing them would orphan the open ledger entries.
func (s *Inventory) DeleteBook(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return infraErr("beginning transaction", err)
	}
	defer tx.Rollback()

	active, err := s.countActiveLoans(ctx, tx, id)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE books SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return infraErr("deleting book", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return infraErr("deleting book", err)
	}
	if rows == 0 {
		return ErrBookNotFound
	}

	if err := tx.Commit(); err != nil {
		return infraErr("committing book deletion", err)
	}
	return nil
}

// GetAvailable returns the current available quantity for a book.
func (s *Inventory) GetAvailable(ctx context.Context, bookID int64) (int, error) {
	var available int
	err := s.db.GetContext(ctx, &available,
		`SELECT available_quantity FROM books WHERE id = ? AND deleted_at IS NULL`, bookID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, infraErr("getting availability", err)
	}
	return available, nil
}

// TryDecrement removes one unit from a book's availability within the
// caller's transaction. The guard in the UPDATE makes read and write one
// atomic statement, so two borrows racing for the last unit cannot both
// pass: the loser affects zero rows and gets ErrBookUnavailable. This is the
// only legal way to reduce availability for a loan.
func (s *Inventory) TryDecrement(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET available_quantity = available_quantity - 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND available_quantity > 0`,
		bookID,
	)
	if err != nil {
		return infraErr("decrementing availability", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return infraErr("decrementing availability", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM books WHERE id = ? AND deleted_at IS NULL)`, bookID,
	)
	if err != nil {
		return infraErr("checking book existence", err)
	}
	if !exists {
		return ErrBookNotFound
	}
	return ErrBookUnavailable
}

// Increment puts one unit back within the caller's transaction. The guard
// refuses to push available past total; hitting it on an existing book means
// the accounting is broken somewhere else, which is reported as ErrInvariant
// rather than clamped away.
func (s *Inventory) Increment(ctx context.Context, tx *sqlx.Tx, bookID int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET available_quantity = available_quantity + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND available_quantity < total_quantity`,
		bookID,
	)
	if err != nil {
		return infraErr("incrementing availability", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return infraErr("incrementing availability", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM books WHERE id = ? AND deleted_at IS NULL)`, bookID,
	)
	if err != nil {
		return infraErr("checking book existence", err)
	}
	if !exists {
		return ErrBookNotFound
	}

	s.log.Error().Int64("book_id", bookID).Msg("increment would exceed total quantity")
	return ErrInvariant
}

// countActiveLoans counts open ledger entries for a book inside the given
// transaction.
func (s *Inventory) countActiveLoans(ctx context.Context, tx *sqlx.Tx, bookID int64) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM loans WHERE book_id = ? AND returned_at IS NULL`, bookID,
	)
	if err != nil {
		return 0, infraErr("counting active loans", err)
	}
	return count, nil
}
