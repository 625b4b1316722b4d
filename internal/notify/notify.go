// Package notify delivers best-effort notifications after a loan transaction
// has committed. A notifier failure is reported to its logger and never
// affects the already-committed transaction's outcome.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier receives post-commit loan events.
type Notifier interface {
	OnBorrowed(ctx context.Context, userID int64, bookTitle string) error
	OnReturned(ctx context.Context, userID int64, bookTitle string) error
}

// LogNotifier writes loan events to the log. Used when no broker is
// configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) OnBorrowed(_ context.Context, userID int64, bookTitle string) error {
	n.Log.Info().Int64("user_id", userID).Str("book", bookTitle).Msg("book borrowed")
	return nil
}

func (n LogNotifier) OnReturned(_ context.Context, userID int64, bookTitle string) error {
	n.Log.Info().Int64("user_id", userID).Str("book", bookTitle).Msg("book returned")
	return nil
}
