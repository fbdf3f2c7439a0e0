package game

import "time"

// Config carries the tunables every room is created with.
type Config struct {
	// MinPlayers is the seat count required before the host can start.
	MinPlayers int
	// MaxPlayers caps seats per room.
	MaxPlayers int
	// StartingBalance is issued to new players and on a group reset.
	StartingBalance int
	// TurnTimeout is how long a hand may sit on its turn before being
	// auto-stood.
	TurnTimeout time.Duration
	// DealDelay paces the initial deal, one card at a time. Zero deals
	// synchronously, which the tests rely on.
	DealDelay time.Duration
	// DealerDelay paces the dealer's draw-to-17 reveals.
	DealerDelay time.Duration
}

// DefaultConfig returns the standard table rules.
func DefaultConfig() Config {
	return Config{
		MinPlayers:      2,
		MaxPlayers:      7,
		StartingBalance: 1000,
		TurnTimeout:     60 * time.Second,
		DealDelay:       650 * time.Millisecond,
		DealerDelay:     600 * time.Millisecond,
	}
}
