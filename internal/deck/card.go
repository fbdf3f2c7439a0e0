package deck

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// String returns the wire name of a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the wire name of a rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "jack"
	case r == Queen:
		return "queen"
	case r == King:
		return "king"
	case r == Ace:
		return "ace"
	default:
		return "unknown"
	}
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns a readable representation (e.g. "ace of spades")
func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// PipValue returns the card's blackjack value counting aces as 11.
// Ace demotion to 1 is handled by BestHandValue.
func (c Card) PipValue() int {
	switch {
	case c.Rank >= Jack && c.Rank <= King:
		return 10
	case c.Rank == Ace:
		return 11
	default:
		return int(c.Rank)
	}
}

// cardJSON is the wire representation shared with clients.
type cardJSON struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

var suitNames = map[string]Suit{
	"hearts":   Hearts,
	"diamonds": Diamonds,
	"clubs":    Clubs,
	"spades":   Spades,
}

var rankNames = map[string]Rank{
	"2": Two, "3": Three, "4": Four, "5": Five, "6": Six,
	"7": Seven, "8": Eight, "9": Nine, "10": Ten,
	"jack": Jack, "queen": Queen, "king": King, "ace": Ace,
}

// MarshalJSON encodes the card using its wire names
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Suit: c.Suit.String(), Rank: c.Rank.String()})
}

// UnmarshalJSON decodes a card from its wire names
func (c *Card) UnmarshalJSON(data []byte) error {
	var cj cardJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	suit, ok := suitNames[cj.Suit]
	if !ok {
		return fmt.Errorf("invalid suit: %q", cj.Suit)
	}
	rank, ok := rankNames[cj.Rank]
	if !ok {
		return fmt.Errorf("invalid rank: %q", cj.Rank)
	}
	c.Suit = suit
	c.Rank = rank
	return nil
}
