package model

import "time"

// Loan represents one unit of a book lent to a user. A loan with no return
// time is active; at most one unit of the book is out per active loan.
// Loans are append-only: a closed loan is never modified or deleted.
type Loan struct {
	ID         string     `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	BookID     int64      `db:"book_id" json:"book_id"`
	BorrowedAt time.Time  `db:"borrowed_at" json:"borrowed_at"`
	ReturnedAt *time.Time `db:"returned_at" json:"returned_at,omitempty"`

	// Joined field (not always populated).
	BookTitle string `db:"book_title" json:"book_title,omitempty"`
}

// Active reports whether the loan has not been returned yet.
func (l *Loan) Active() bool {
	return l.ReturnedAt == nil
}
