package game

// handRef pairs a hand with its owning player for the turn walk.
type handRef struct {
	owner *Player
	hand  *Hand
}

// walkLocked returns every hand in play order: seat order, each player's
// primary hand directly followed by their split.
func (r *Room) walkLocked() []handRef {
	refs := make([]handRef, 0, len(r.players))
	for _, p := range r.players {
		refs = append(refs, handRef{owner: p, hand: &p.Hand})
		if p.Split != nil {
			refs = append(refs, handRef{owner: p, hand: p.Split})
		}
	}
	return refs
}

// beginFirstTurnLocked hands the turn to the first live hand once the
// initial deal has gone out.
func (r *Room) beginFirstTurnLocked() {
	r.advanceFromLocked(r.walkLocked())
}

// advanceTurnLocked moves the turn to the hand after afterHandID.
func (r *Room) advanceTurnLocked(afterHandID string) {
	refs := r.walkLocked()
	start := 0
	for i, ref := range refs {
		if ref.hand.ID == afterHandID {
			start = i + 1
			break
		}
	}
	r.advanceFromLocked(refs[start:])
}

// advanceFromSeatLocked resumes the walk at a seat index, used when the
// player holding the turn leaves and the next seat shifts into their
// slot.
func (r *Room) advanceFromSeatLocked(seat int) {
	refs := r.walkLocked()
	skip := 0
	for i := 0; i < seat && i < len(r.players); i++ {
		skip += len(r.players[i].hands())
	}
	if skip > len(refs) {
		skip = len(refs)
	}
	r.advanceFromLocked(refs[skip:])
}

// advanceFromLocked walks the given hands in order. Blackjack hands are
// visited (the turn lands on them for the broadcast) and immediately
// passed over; the first playable hand takes the turn; when none remain
// the dealer plays.
func (r *Room) advanceFromLocked(refs []handRef) {
	r.stopTurnTimerLocked()
	for _, ref := range refs {
		if ref.hand.Status == StatusBlackjack {
			r.currentTurn = ref.hand.ID
			r.sink.Broadcast(r.code, EventTurnChanged, TurnChangedEvent{
				HandID:   ref.hand.ID,
				PlayerID: ref.owner.ID,
				Username: ref.owner.Username,
			})
			continue
		}
		if ref.hand.playable() {
			r.takeTurnLocked(ref)
			return
		}
	}
	r.beginDealerTurnLocked()
}

// takeTurnLocked assigns the turn to a hand and arms its timeout.
func (r *Room) takeTurnLocked(ref handRef) {
	r.currentTurn = ref.hand.ID
	r.sink.Broadcast(r.code, EventTurnChanged, TurnChangedEvent{
		HandID:   ref.hand.ID,
		PlayerID: ref.owner.ID,
		Username: ref.owner.Username,
	})
	r.startTurnTimerLocked(ref.hand.ID)
}

// startTurnTimerLocked arms the auto-skip timer for the hand now on turn.
// The generation counter makes a stale callback from a stopped timer a
// no-op even if it had already fired.
func (r *Room) startTurnTimerLocked(handID string) {
	r.stopTurnTimerLocked()
	gen := r.timerGen
	r.timer = r.clock.AfterFunc(r.cfg.TurnTimeout, func() {
		r.autoSkip(handID, gen)
	})
}

func (r *Room) stopTurnTimerLocked() {
	r.timerGen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// autoSkip stands a hand whose turn expired. Each hand can be skipped at
// most once per round regardless of timer races.
func (r *Room) autoSkip(handID string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.timerGen {
		return
	}
	if r.state != StatePlaying || r.currentTurn != handID {
		return
	}
	if r.autoSkipped[handID] {
		return
	}
	owner, h := r.handOwner(handID)
	if h == nil || h.Status != StatusNone {
		return
	}
	r.autoSkipped[handID] = true
	h.Status = StatusStood
	r.logger.Info("turn timed out", "player", owner.Username, "hand", handID)
	r.sink.Broadcast(r.code, EventPlayerAutoSkip, AutoSkippedEvent{
		HandID:   handID,
		PlayerID: owner.ID,
		Username: owner.Username,
	})
	r.advanceTurnLocked(handID)
}
