package game

// PlaceBet stakes a player's bet for the round. When the last eligible
// player has bet, the initial deal begins.
func (r *Room) PlaceBet(playerID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateBetting {
		return ErrInvalidAction
	}
	p := r.playerByID(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	if p.Status == StatusSpectating {
		return ErrInvalidAction
	}
	if p.Bet > 0 {
		return ErrInvalidAction
	}
	if amount <= 0 {
		return ErrInvalidBet
	}
	if amount > p.Balance {
		return ErrInsufficientBalance
	}
	p.Balance -= amount
	p.Bet = amount
	r.sink.Unicast(p.ID, EventBetAccepted, BetAcceptedEvent{
		Amount:  amount,
		Balance: p.Balance,
	})
	r.sink.Broadcast(r.code, EventBetPlaced, BetPlacedEvent{
		PlayerID: p.ID,
		Username: p.Username,
		Amount:   amount,
	})
	if r.allBetsInLocked() {
		r.beginDealLocked()
	}
	return nil
}

// allBetsInLocked reports whether every seat that can bet has done so.
// A broke player cannot bet and does not hold up the table.
func (r *Room) allBetsInLocked() bool {
	for _, p := range r.players {
		if p.Status == StatusSpectating {
			continue
		}
		if p.Bet == 0 && p.Balance > 0 {
			return false
		}
	}
	return true
}

// dealStep is one card of the initial deal. Hands are resolved by ID at
// apply time so a player leaving mid-deal simply stops receiving cards.
type dealStep struct {
	handID string
	hidden bool
}

// beginDealLocked closes betting and runs the paced initial deal: one
// card to each betting player in seat order, one up card to the dealer,
// a second card to each player, then the dealer's hole card.
func (r *Room) beginDealLocked() {
	for _, p := range r.players {
		if p.Bet == 0 && p.Status != StatusSpectating {
			p.Status = StatusSpectating
			r.sink.Broadcast(r.code, EventPlayerSpectating, PlayerSpectatingEvent{
				PlayerID: p.ID,
				Username: p.Username,
			})
		}
	}
	r.state = StatePlaying
	r.currentTurn = ""
	r.sink.Broadcast(r.code, EventBettingEnded, BettingEndedEvent{Room: r.viewLocked()})

	var steps []dealStep
	for pass := 0; pass < 2; pass++ {
		for _, p := range r.players {
			if p.Bet > 0 {
				steps = append(steps, dealStep{handID: p.ID})
			}
		}
		steps = append(steps, dealStep{handID: DealerHandID, hidden: pass == 1})
	}

	r.dealGen++
	r.runDealStepsLocked(steps, 0, r.dealGen)
}

// runDealStepsLocked applies step i, then schedules the next one after
// DealDelay. With a zero delay the whole sequence runs inline.
func (r *Room) runDealStepsLocked(steps []dealStep, i int, gen uint64) {
	if r.closed || gen != r.dealGen {
		return
	}
	if i >= len(steps) {
		r.beginFirstTurnLocked()
		return
	}
	if !r.applyDealStepLocked(steps[i]) {
		return
	}
	next := func() { r.runDealStepsLocked(steps, i+1, gen) }
	if r.cfg.DealDelay <= 0 {
		next()
		return
	}
	r.clock.AfterFunc(r.cfg.DealDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		next()
	})
}

// applyDealStepLocked draws one card onto the step's hand. Returns false
// when the round had to be aborted.
func (r *Room) applyDealStepLocked(step dealStep) bool {
	var h *Hand
	if step.handID == DealerHandID {
		h = &r.dealer
	} else {
		_, h = r.handOwner(step.handID)
		if h == nil {
			// Player left mid-deal; skip their card.
			return true
		}
	}
	card, err := r.deck.Draw()
	if err != nil {
		r.abortRoundLocked(err)
		return false
	}
	h.add(card)
	if h != &r.dealer && len(h.Cards) == 2 && h.Score == 21 {
		h.Status = StatusBlackjack
	}

	ev := CardDealtEvent{To: step.handID, Score: h.Score, Status: h.Status}
	if step.hidden {
		ev.Hidden = true
		// Advertise only the up card's value while the hole is down.
		ev.Score = r.dealer.Cards[0].PipValue()
	} else {
		ev.Card = &card
	}
	r.sink.Broadcast(r.code, EventCardDealt, ev)
	return true
}

// abortRoundLocked tears a round down after an unrecoverable draw error.
// Bets are returned and the table goes back to waiting.
func (r *Room) abortRoundLocked(err error) {
	r.logger.Error("aborting round", "err", err)
	r.resetToWaitingLocked()
	r.sink.Broadcast(r.code, EventGameReset, GameResetEvent{Room: r.viewLocked()})
}
