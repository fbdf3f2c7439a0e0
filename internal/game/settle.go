package game

import (
	"context"
	"time"

	"github.com/cardroom/blackjack/internal/deck"
)

// Outcome is how a hand fared against the dealer.
type Outcome string

const (
	OutcomeWin        Outcome = "win"
	OutcomeLose       Outcome = "lose"
	OutcomePush       Outcome = "push"
	OutcomeBlackjack  Outcome = "blackjack"
	OutcomeSurrender  Outcome = "surrender"
	OutcomeSpectating Outcome = "spectating"
	OutcomeAllLost    Outcome = "all_lost"
)

// settleLocked resolves every staked hand against the dealer, credits
// winnings, persists balances and ends the round. When the round leaves
// every seat broke it opens the recovery vote.
func (r *Room) settleLocked() {
	results := make([]HandResult, 0, len(r.players))
	for _, p := range r.players {
		if p.Status == StatusSpectating {
			// Spectators get a no-stake entry so every seat appears in
			// the summary.
			results = append(results, HandResult{
				HandID:   p.ID,
				PlayerID: p.ID,
				Username: p.Username,
				Outcome:  OutcomeSpectating,
				Cards:    append([]deck.Card(nil), p.Cards...),
				Score:    p.Score,
				Balance:  p.Balance,
			})
			continue
		}
		for _, h := range p.hands() {
			if h.Bet == 0 && h.Status != StatusSurrender {
				continue
			}
			outcome, change := r.settleHandLocked(h)
			p.Balance += h.Bet + change
			results = append(results, HandResult{
				HandID:       h.ID,
				PlayerID:     p.ID,
				Username:     p.Username,
				Outcome:      outcome,
				AmountChange: change,
				Cards:        append([]deck.Card(nil), h.Cards...),
				Score:        h.Score,
				Balance:      p.Balance,
			})
			h.Bet = 0
		}
	}

	for _, p := range r.players {
		if p.Balance <= 0 && p.Status != StatusSpectating {
			p.Status = StatusSpectating
			r.sink.Broadcast(r.code, EventPlayerSpectating, PlayerSpectatingEvent{
				PlayerID: p.ID,
				Username: p.Username,
			})
		}
	}

	r.state = StateEnded
	r.currentTurn = ""
	allLost := r.allBrokeLocked()
	if allLost {
		// Trailing marker entry for the table losing as a whole.
		results = append(results, HandResult{Outcome: OutcomeAllLost})
	}
	r.logger.Info("round settled", "hands", len(results), "dealer", r.dealer.Score)
	r.sink.Broadcast(r.code, EventRoundEnded, RoundEndedEvent{
		Results: results,
		Dealer:  r.dealerViewLocked(),
		AllLost: allLost,
	})
	r.persistBalancesLocked()
	if allLost {
		r.openVoteLocked()
	}
}

// settleHandLocked returns a hand's outcome and the net balance change
// relative to before the bet was placed. The stake itself is refunded by
// the caller, so a loss reports a change equal to the (already deducted)
// stake and credits nothing.
func (r *Room) settleHandLocked(h *Hand) (Outcome, int) {
	bet := h.Bet
	switch {
	case h.Status == StatusSurrender:
		// Half the stake was refunded at surrender time; the rest,
		// still recorded as the bet, is forfeit.
		return OutcomeSurrender, -bet
	case h.Status == StatusBlackjack:
		if r.dealer.Status == StatusBlackjack {
			return OutcomePush, 0
		}
		// Naturals pay 3:2, rounded down.
		return OutcomeBlackjack, bet * 3 / 2
	case h.Status == StatusBusted:
		return OutcomeLose, -bet
	case r.dealer.Status == StatusBusted:
		return OutcomeWin, bet
	case h.Score > r.dealer.Score:
		return OutcomeWin, bet
	case h.Score == r.dealer.Score:
		return OutcomePush, 0
	default:
		return OutcomeLose, -bet
	}
}

// persistBalancesLocked pushes settled balances to the ledger. Writes
// happen off the room lock and a failure only logs; the table is the
// source of truth during play.
func (r *Room) persistBalancesLocked() {
	if r.store == nil {
		return
	}
	type record struct {
		username string
		balance  int
	}
	records := make([]record, 0, len(r.players))
	for _, p := range r.players {
		records = append(records, record{username: p.Username, balance: p.Balance})
	}
	store, logger := r.store, r.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, rec := range records {
			if err := store.SetBalance(ctx, rec.username, rec.balance); err != nil {
				logger.Warn("ledger write failed", "player", rec.username, "err", err)
				continue
			}
			if err := store.UpsertHighScore(ctx, rec.username, rec.balance); err != nil {
				logger.Warn("leaderboard write failed", "player", rec.username, "err", err)
			}
		}
	}()
}
