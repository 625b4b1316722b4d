package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema.
//
// The CHECK constraints back up the accounting invariant (0 <= available <=
// total): a bookkeeping bug surfaces as a constraint error instead of a
// silently corrupted count.
const schema = `
CREATE TABLE IF NOT EXISTS books (
    id                 INTEGER PRIMARY KEY,
    title              TEXT NOT NULL,
    author             TEXT NOT NULL,
    published_year     INTEGER NOT NULL,
    isbn               TEXT NOT NULL,
    total_quantity     INTEGER NOT NULL CHECK (total_quantity >= 0),
    available_quantity INTEGER NOT NULL
        CHECK (available_quantity >= 0 AND available_quantity <= total_quantity),
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at         DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_books_isbn_active
    ON books(isbn) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS loans (
    id          TEXT PRIMARY KEY,
    user_id     INTEGER NOT NULL,
    book_id     INTEGER NOT NULL REFERENCES books(id),
    borrowed_at DATETIME NOT NULL,
    returned_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_loans_user ON loans(user_id, borrowed_at);

CREATE INDEX IF NOT EXISTS idx_loans_book_active
    ON loans(book_id) WHERE returned_at IS NULL;
`

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{}

// Migrate creates the schema and runs pending migrations.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
