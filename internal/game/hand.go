package game

import "github.com/cardroom/blackjack/internal/deck"

// Status is the terminal (or near-terminal) state of a hand within a
// round. The zero value means the hand is still live.
type Status string

const (
	StatusNone       Status = ""
	StatusStood      Status = "stood"
	StatusBusted     Status = "busted"
	StatusBlackjack  Status = "blackjack"
	StatusSurrender  Status = "surrendered"
	StatusSpectating Status = "spectating"
)

// Hand is a bettable set of cards. Players embed one and may carry a
// second as a split; the dealer holds a bare Hand with no bet.
type Hand struct {
	ID     string      `json:"id"`
	Cards  []deck.Card `json:"cards"`
	Score  int         `json:"score"`
	Status Status      `json:"status,omitempty"`
	Bet    int         `json:"bet"`
}

// add appends a card and recomputes the score.
func (h *Hand) add(c deck.Card) {
	h.Cards = append(h.Cards, c)
	h.Score = deck.BestHandValue(h.Cards)
}

// playable reports whether the hand still owes a decision this round.
func (h *Hand) playable() bool {
	return h.Status == StatusNone && h.Bet > 0
}

// resetRound clears per-round state, leaving identity intact.
func (h *Hand) resetRound() {
	h.Cards = nil
	h.Score = 0
	h.Status = StatusNone
	h.Bet = 0
}

// Player is a seated participant. The embedded Hand is the primary hand;
// Split is non-nil only between a split action and the next round reset.
// Balance lives on the player, never on the split.
type Player struct {
	Hand
	Username string `json:"username"`
	Balance  int    `json:"balance"`
	Split    *Hand  `json:"split,omitempty"`
}

// SplitHandID derives the ID a player's split hand carries.
func SplitHandID(playerID string) string {
	return playerID + "-split"
}

// hands returns the player's hands in play order: primary, then split.
func (p *Player) hands() []*Hand {
	if p.Split == nil {
		return []*Hand{&p.Hand}
	}
	return []*Hand{&p.Hand, p.Split}
}

// handByID returns the player's hand matching id, or nil.
func (p *Player) handByID(id string) *Hand {
	if id == p.ID {
		return &p.Hand
	}
	if p.Split != nil && id == p.Split.ID {
		return p.Split
	}
	return nil
}

// resetRound clears both hands for a new round and drops the split.
func (p *Player) resetRound() {
	p.Hand.resetRound()
	p.Split = nil
}
