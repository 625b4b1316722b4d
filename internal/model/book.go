package model

import "time"

// Book represents a catalog entry with quantity-based availability.
// AvailableQuantity only changes through the loan ledger or catalog edits
// that adjust TotalQuantity consistently.
type Book struct {
	ID                int64      `db:"id" json:"id"`
	Title             string     `db:"title" json:"title"`
	Author            string     `db:"author" json:"author"`
	PublishedYear     int        `db:"published_year" json:"published_year"`
	ISBN              string     `db:"isbn" json:"isbn"`
	TotalQuantity     int        `db:"total_quantity" json:"total_quantity"`
	AvailableQuantity int        `db:"available_quantity" json:"available_quantity"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}
