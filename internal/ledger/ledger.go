// Package ledger persists player balances and the all-time leaderboard
// outside the room lifecycle. Rooms write through a Store after each
// settlement; a write failure is logged and never interrupts play.
package ledger

import "context"

// Entry is a single leaderboard row.
type Entry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Store is the persistence boundary for balances and high scores.
type Store interface {
	// Balance returns the stored balance for a username, or (0, false)
	// when the player has never been recorded.
	Balance(ctx context.Context, username string) (int, bool, error)

	// SetBalance records the player's balance after a settlement.
	SetBalance(ctx context.Context, username string, balance int) error

	// UpsertHighScore records the balance on the leaderboard if it
	// exceeds the player's previous best.
	UpsertHighScore(ctx context.Context, username string, balance int) error

	// Top returns up to n leaderboard entries, best first.
	Top(ctx context.Context, n int) ([]Entry, error)
}
