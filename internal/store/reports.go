package store

import (
	"context"

	"libris/internal/model"
)

// OpenLoans returns every active loan with its book title, oldest first.
func (l *Ledger) OpenLoans(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	err := l.db.SelectContext(ctx, &loans,
		`SELECT l.id, l.user_id, l.book_id, l.borrowed_at, l.returned_at, b.title AS book_title
		 FROM loans l
		 JOIN books b ON b.id = l.book_id
		 WHERE l.returned_at IS NULL
		 ORDER BY l.rowid`,
	)
	if err != nil {
		return nil, infraErr("listing open loans", err)
	}
	return loans, nil
}

// PopularBooks returns the most-borrowed books of all time, counting open
// and closed loans alike.
func (l *Ledger) PopularBooks(ctx context.Context, limit int) ([]model.PopularBook, error) {
	var books []model.PopularBook
	err := l.db.SelectContext(ctx, &books,
		`SELECT b.id AS book_id, b.title, b.author, COUNT(l.id) AS borrow_count
		 FROM books b
		 JOIN loans l ON l.book_id = b.id
		 WHERE b.deleted_at IS NULL
		 GROUP BY b.id, b.title, b.author
		 ORDER BY borrow_count DESC, b.title
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, infraErr("listing popular books", err)
	}
	return books, nil
}
