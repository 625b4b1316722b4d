package model

// PopularBook is a catalog entry ranked by its all-time borrow count.
type PopularBook struct {
	BookID      int64  `db:"book_id" json:"book_id"`
	Title       string `db:"title" json:"title"`
	Author      string `db:"author" json:"author"`
	BorrowCount int    `db:"borrow_count" json:"borrow_count"`
}
