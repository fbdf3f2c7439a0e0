package game

import (
	"github.com/cardroom/blackjack/internal/deck"
	"github.com/cardroom/blackjack/internal/randutil"
)

// Snapshot is the full serializable state of a room, including the deck
// order, so a table can be carried across a process restart. Unlike
// RoomView nothing is masked.
type Snapshot struct {
	Code        string      `json:"code"`
	HostID      string      `json:"hostId"`
	State       State       `json:"state"`
	CurrentTurn string      `json:"currentTurn,omitempty"`
	Players     []Player    `json:"players"`
	Dealer      Hand        `json:"dealer"`
	Deck        []deck.Card `json:"deck"`
}

// Snapshot captures the room's current state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		cp := *p
		cp.Cards = append([]deck.Card(nil), p.Cards...)
		if p.Split != nil {
			sp := *p.Split
			sp.Cards = append([]deck.Card(nil), p.Split.Cards...)
			cp.Split = &sp
		}
		players = append(players, cp)
	}
	snap := Snapshot{
		Code:        r.code,
		HostID:      r.hostID,
		State:       r.state,
		CurrentTurn: r.currentTurn,
		Players:     players,
		Dealer:      r.dealer,
	}
	snap.Dealer.Cards = append([]deck.Card(nil), r.dealer.Cards...)
	if r.deck != nil {
		snap.Deck = r.deck.Cards()
	}
	return snap
}

// Restore registers a room rebuilt from a snapshot. Seat order, hand
// contents and the turn pointer carry over exactly; timers do not, so a
// restored hand on turn gets a fresh timeout when play resumes.
func (m *Manager) Restore(snap Snapshot) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.rooms[snap.Code]; taken {
		return nil, ErrInvalidAction
	}
	m.nextRoom++
	seed := m.seed
	if seed == 0 {
		seed = m.clock.Now().UnixNano()
	}
	room := newRoom(snap.Code, snap.HostID, m.cfg, m.clock, randutil.New(seed+m.nextRoom), m.logger, m.sink, m.store)
	room.state = snap.State
	room.currentTurn = snap.CurrentTurn
	room.dealer = snap.Dealer
	room.dealer.Cards = append([]deck.Card(nil), snap.Dealer.Cards...)
	if snap.Deck != nil {
		room.deck = deck.Restore(snap.Deck)
	}
	for i := range snap.Players {
		p := snap.Players[i]
		p.Cards = append([]deck.Card(nil), snap.Players[i].Cards...)
		if snap.Players[i].Split != nil {
			sp := *snap.Players[i].Split
			sp.Cards = append([]deck.Card(nil), snap.Players[i].Split.Cards...)
			p.Split = &sp
		}
		room.players = append(room.players, &p)
	}
	m.rooms[snap.Code] = room

	room.mu.Lock()
	switch {
	case room.state == StatePlaying && room.currentTurn == DealerHandID:
		room.dealGen++
		room.dealerStepLocked(room.dealGen)
	case room.state == StatePlaying && room.currentTurn != "":
		room.startTurnTimerLocked(room.currentTurn)
	}
	room.mu.Unlock()
	return room, nil
}
