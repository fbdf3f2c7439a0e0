package game

// beginDealerTurnLocked reveals the hole card and starts the paced
// draw-to-17 sequence.
func (r *Room) beginDealerTurnLocked() {
	r.stopTurnTimerLocked()
	r.currentTurn = DealerHandID
	r.logger.Debug("dealer turn", "score", r.dealer.Score)
	r.sink.Broadcast(r.code, EventDealerTurn, DealerTurnEvent{
		Dealer: r.dealerViewLocked(),
	})
	r.dealGen++
	r.dealerStepLocked(r.dealGen)
}

// dealerStepLocked draws one card if the dealer sits below 17, then
// schedules the next draw. The dealer stands on all 17s.
func (r *Room) dealerStepLocked(gen uint64) {
	if r.closed || gen != r.dealGen {
		return
	}
	if r.dealer.Score >= 17 {
		r.finishDealerLocked()
		return
	}
	card, err := r.deck.Draw()
	if err != nil {
		r.abortRoundLocked(err)
		return
	}
	r.dealer.add(card)
	r.sink.Broadcast(r.code, EventCardDealt, CardDealtEvent{
		To:    DealerHandID,
		Card:  &card,
		Score: r.dealer.Score,
	})
	next := func() { r.dealerStepLocked(gen) }
	if r.cfg.DealerDelay <= 0 {
		next()
		return
	}
	r.clock.AfterFunc(r.cfg.DealerDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		next()
	})
}

func (r *Room) finishDealerLocked() {
	switch {
	case r.dealer.Score > 21:
		r.dealer.Status = StatusBusted
	case len(r.dealer.Cards) == 2 && r.dealer.Score == 21:
		r.dealer.Status = StatusBlackjack
	default:
		r.dealer.Status = StatusStood
	}
	r.settleLocked()
}
