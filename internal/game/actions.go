package game

import "github.com/cardroom/blackjack/internal/deck"

// actingHandLocked validates that playerID may act on handID right now
// and returns the hand. An empty handID means the player's primary hand.
func (r *Room) actingHandLocked(playerID, handID string) (*Player, *Hand, error) {
	if r.state != StatePlaying {
		return nil, nil, ErrGameNotStarted
	}
	p := r.playerByID(playerID)
	if p == nil {
		return nil, nil, ErrNotInRoom
	}
	if handID == "" {
		handID = playerID
	}
	h := p.handByID(handID)
	if h == nil {
		return nil, nil, ErrInvalidAction
	}
	if r.currentTurn != handID {
		return nil, nil, ErrNotYourTurn
	}
	if h.Status != StatusNone {
		return nil, nil, ErrInvalidAction
	}
	return p, h, nil
}

// Hit draws one card onto the acting hand. A bust ends the hand's turn;
// otherwise the timeout re-arms and the player may act again.
func (r *Room) Hit(playerID, handID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, h, err := r.actingHandLocked(playerID, handID)
	if err != nil {
		return err
	}
	card, err := r.deck.Draw()
	if err != nil {
		r.abortRoundLocked(err)
		return err
	}
	h.add(card)
	if h.Score > 21 {
		h.Status = StatusBusted
	}
	r.logger.Debug("hit", "player", p.Username, "hand", h.ID, "score", h.Score)
	r.sink.Broadcast(r.code, EventCardDealt, CardDealtEvent{
		To:     h.ID,
		Card:   &card,
		Score:  h.Score,
		Status: h.Status,
	})
	if h.Status == StatusBusted {
		r.advanceTurnLocked(h.ID)
	} else {
		r.startTurnTimerLocked(h.ID)
	}
	return nil
}

// Stand ends the acting hand's turn.
func (r *Room) Stand(playerID, handID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, h, err := r.actingHandLocked(playerID, handID)
	if err != nil {
		return err
	}
	h.Status = StatusStood
	r.logger.Debug("stand", "player", p.Username, "hand", h.ID, "score", h.Score)
	r.advanceTurnLocked(h.ID)
	return nil
}

// DoubleDown doubles the hand's bet, draws exactly one card and ends the
// turn. Only available as the first decision on a two-card hand.
func (r *Room) DoubleDown(playerID, handID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, h, err := r.actingHandLocked(playerID, handID)
	if err != nil {
		return err
	}
	if len(h.Cards) != 2 {
		return ErrInvalidAction
	}
	if p.Balance < h.Bet {
		return ErrInsufficientBalance
	}
	p.Balance -= h.Bet
	h.Bet *= 2
	card, err := r.deck.Draw()
	if err != nil {
		r.abortRoundLocked(err)
		return err
	}
	h.add(card)
	if h.Score > 21 {
		h.Status = StatusBusted
	} else {
		h.Status = StatusStood
	}
	r.logger.Debug("double down", "player", p.Username, "hand", h.ID, "bet", h.Bet, "score", h.Score)
	r.sink.Broadcast(r.code, EventCardDealt, CardDealtEvent{
		To:     h.ID,
		Card:   &card,
		Score:  h.Score,
		Status: h.Status,
	})
	r.advanceTurnLocked(h.ID)
	return nil
}

// Split divides a two-card pair into two hands, each completed with a
// fresh card and staked at the original bet. Only the primary hand may
// split, and only once per round.
func (r *Room) Split(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, h, err := r.actingHandLocked(playerID, "")
	if err != nil {
		return err
	}
	if h != &p.Hand || p.Split != nil {
		return ErrInvalidAction
	}
	if len(h.Cards) != 2 || h.Cards[0].Rank != h.Cards[1].Rank {
		return ErrInvalidAction
	}
	if p.Balance < h.Bet {
		return ErrInsufficientBalance
	}
	p.Balance -= h.Bet
	split := &Hand{
		ID:    SplitHandID(p.ID),
		Cards: []deck.Card{h.Cards[1]},
		Bet:   h.Bet,
	}
	h.Cards = h.Cards[:1]

	// The new hand is completed first, then the original.
	drawn, err := r.deck.Draw()
	if err != nil {
		r.abortRoundLocked(err)
		return err
	}
	split.add(drawn)
	drawn, err = r.deck.Draw()
	if err != nil {
		r.abortRoundLocked(err)
		return err
	}
	h.add(drawn)
	p.Split = split

	// A 21 after splitting is a natural for settlement purposes, the
	// same as on the initial deal.
	if deck.IsBlackjack(h.Cards) {
		h.Status = StatusBlackjack
	}
	if deck.IsBlackjack(split.Cards) {
		split.Status = StatusBlackjack
	}

	r.logger.Debug("split", "player", p.Username, "bet", h.Bet)
	r.sink.Broadcast(r.code, EventPlayerSplit, PlayerSplitEvent{
		PlayerID: p.ID,
		Primary:  p.Hand,
		Split:    *split,
		Balance:  p.Balance,
	})
	if h.Status == StatusBlackjack {
		r.advanceTurnLocked(h.ID)
	} else {
		r.startTurnTimerLocked(h.ID)
	}
	return nil
}

// Surrender forfeits half the bet and ends the hand. Only available as
// the first decision on a two-card hand. The refund rounds up so an odd
// bet never loses the extra chip.
func (r *Room) Surrender(playerID, handID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, h, err := r.actingHandLocked(playerID, handID)
	if err != nil {
		return err
	}
	if len(h.Cards) != 2 {
		return ErrInvalidAction
	}
	refund := h.Bet - h.Bet/2
	p.Balance += refund
	h.Bet -= refund
	h.Status = StatusSurrender
	r.logger.Debug("surrender", "player", p.Username, "hand", h.ID, "refund", refund)
	r.advanceTurnLocked(h.ID)
	return nil
}
