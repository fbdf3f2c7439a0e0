// Package game implements the authoritative blackjack engine: rooms,
// seating, betting, the turn walk, dealer play and settlement. All state
// mutation happens under a per-room mutex; the outside world observes
// rooms only through the EventSink and the error returns.
package game

import (
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/blackjack/internal/deck"
	"github.com/cardroom/blackjack/internal/ledger"
)

// State is a room's lifecycle phase.
type State string

const (
	StateWaiting State = "waiting"
	StateBetting State = "betting"
	StatePlaying State = "playing"
	StateEnded   State = "ended"
)

// DealerHandID is the reserved turn slot for the dealer. Player IDs come
// from the gateway and never collide with it.
const DealerHandID = "dealer"

// Room is a single blackjack table. Every exported method takes the room
// lock; unexported *Locked helpers assume it is held.
type Room struct {
	mu sync.Mutex

	code    string
	hostID  string
	players []*Player
	dealer  Hand
	deck    *deck.Deck
	state   State

	// currentTurn is a hand ID, DealerHandID, or empty while cards are
	// still going out.
	currentTurn string

	// votes is non-nil only while a broke-recovery vote is open.
	votes map[string]bool

	// autoSkipped dedupes timeout skips per hand per round.
	autoSkipped map[string]bool

	timer    *quartz.Timer
	timerGen uint64

	// dealGen invalidates in-flight paced deal and dealer sequences
	// when the room resets or closes mid-deal.
	dealGen uint64

	closed bool

	cfg    Config
	clock  quartz.Clock
	rng    *rand.Rand
	logger *log.Logger
	sink   EventSink
	store  ledger.Store
}

func newRoom(code, hostID string, cfg Config, clock quartz.Clock, rng *rand.Rand, logger *log.Logger, sink EventSink, store ledger.Store) *Room {
	return &Room{
		code:        code,
		hostID:      hostID,
		state:       StateWaiting,
		autoSkipped: make(map[string]bool),
		cfg:         cfg,
		clock:       clock,
		rng:         rng,
		logger:      logger.With("room", code),
		sink:        sink,
		store:       store,
	}
}

// Code returns the room's join code.
func (r *Room) Code() string {
	return r.code
}

// HostID returns the current host's player ID.
func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// State returns the room's lifecycle phase.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// HasPlayer reports whether the given player is seated.
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerByID(playerID) != nil
}

func (r *Room) playerByID(playerID string) *Player {
	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// handOwner locates the hand with the given ID and its owning player.
func (r *Room) handOwner(handID string) (*Player, *Hand) {
	for _, p := range r.players {
		if h := p.handByID(handID); h != nil {
			return p, h
		}
	}
	return nil, nil
}

// addPlayer seats a player. Called by the registry with the room lock
// already taken care of by the caller path.
func (r *Room) addPlayer(playerID, username string, balance int) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomNotFound
	}
	if r.state != StateWaiting {
		return nil, ErrGameInProgress
	}
	if len(r.players) >= r.cfg.MaxPlayers {
		return nil, ErrRoomFull
	}
	if r.playerByID(playerID) != nil {
		return nil, ErrInvalidAction
	}
	p := &Player{
		Hand:     Hand{ID: playerID},
		Username: username,
		Balance:  balance,
	}
	r.players = append(r.players, p)
	r.logger.Info("player joined", "player", username, "seats", len(r.players))
	r.sink.Broadcast(r.code, EventPlayerJoined, PlayerJoinedEvent{
		Player: *p,
		Room:   r.viewLocked(),
	})
	return p, nil
}

// RemovePlayer unseats a player, reassigning the host slot and advancing
// the turn when the departing player held it. Returns true when the room
// is now empty and should be torn down.
func (r *Room) RemovePlayer(playerID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removePlayerLocked(playerID, EventPlayerLeft)
}

func (r *Room) removePlayerLocked(playerID string, event EventType) (empty bool) {
	idx := -1
	for i, p := range r.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	leaving := r.players[idx]
	hadTurn := r.currentTurn == leaving.ID ||
		(leaving.Split != nil && r.currentTurn == leaving.Split.ID)

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.votes, playerID)

	if len(r.players) == 0 {
		r.closeLocked()
		return true
	}

	newHost := ""
	if r.hostID == playerID {
		r.hostID = r.players[0].ID
		newHost = r.hostID
	}
	r.logger.Info("player left", "player", leaving.Username, "seats", len(r.players))

	switch event {
	case EventPlayerKicked:
		r.sink.Broadcast(r.code, EventPlayerKicked, PlayerKickedEvent{
			PlayerID: leaving.ID,
			Username: leaving.Username,
			Room:     r.viewLocked(),
		})
	default:
		r.sink.Broadcast(r.code, EventPlayerLeft, PlayerLeftEvent{
			PlayerID: leaving.ID,
			Username: leaving.Username,
			NewHost:  newHost,
			Room:     r.viewLocked(),
		})
	}

	switch r.state {
	case StateBetting:
		if r.allBetsInLocked() {
			r.beginDealLocked()
		}
	case StatePlaying:
		if r.activeHandCountLocked() == 0 {
			// Everyone with a live hand is gone; nothing left to
			// settle against the dealer.
			r.resetToWaitingLocked()
		} else if hadTurn {
			r.advanceFromSeatLocked(idx)
		}
	case StateEnded:
		if r.votes != nil {
			r.checkVotesLocked()
		}
	}
	return false
}

// activeHandCountLocked counts hands still owed cards or a decision.
func (r *Room) activeHandCountLocked() int {
	n := 0
	for _, p := range r.players {
		for _, h := range p.hands() {
			if h.Bet > 0 {
				n++
			}
		}
	}
	return n
}

// Kick removes a player at the host's request. Only allowed before the
// game starts so a host cannot dodge a losing round.
func (r *Room) Kick(requesterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requesterID != r.hostID {
		return ErrNotHost
	}
	if requesterID == targetID {
		return ErrInvalidAction
	}
	if r.state != StateWaiting {
		return ErrGameInProgress
	}
	if r.playerByID(targetID) == nil {
		return ErrNotInRoom
	}
	r.removePlayerLocked(targetID, EventPlayerKicked)
	return nil
}

// StartGame moves the room from waiting to betting. Host only.
func (r *Room) StartGame(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requesterID != r.hostID {
		return ErrNotHost
	}
	if r.state != StateWaiting {
		return ErrGameInProgress
	}
	if len(r.players) < r.cfg.MinPlayers {
		return ErrInvalidAction
	}
	r.beginRoundLocked()
	r.logger.Info("game started", "players", len(r.players))
	r.sink.Broadcast(r.code, EventGameStarted, GameStartedEvent{Room: r.viewLocked()})
	return nil
}

// beginRoundLocked shuffles a fresh deck and opens betting.
func (r *Room) beginRoundLocked() {
	r.deck = deck.NewShuffled(r.rng)
	r.dealer = Hand{ID: DealerHandID}
	r.currentTurn = ""
	r.autoSkipped = make(map[string]bool)
	r.votes = nil
	for _, p := range r.players {
		p.resetRound()
		if p.Balance <= 0 {
			p.Status = StatusSpectating
			r.sink.Broadcast(r.code, EventPlayerSpectating, PlayerSpectatingEvent{
				PlayerID: p.ID,
				Username: p.Username,
			})
		}
	}
	r.state = StateBetting
}

// StartNewRound re-arms betting after a settled round. When every seat is
// broke it opens the recovery vote instead. Host only.
func (r *Room) StartNewRound(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requesterID != r.hostID {
		return ErrNotHost
	}
	if r.state != StateEnded {
		return ErrInvalidAction
	}
	if r.allBrokeLocked() {
		r.openVoteLocked()
		return nil
	}
	r.beginRoundLocked()
	r.logger.Info("new round")
	r.sink.Broadcast(r.code, EventNewRound, NewRoundEvent{Room: r.viewLocked()})
	return nil
}

func (r *Room) allBrokeLocked() bool {
	for _, p := range r.players {
		if p.Balance > 0 {
			return false
		}
	}
	return len(r.players) > 0
}

func (r *Room) openVoteLocked() {
	if r.votes == nil {
		r.votes = make(map[string]bool)
	}
	r.broadcastVoteStatusLocked(false)
}

// VoteContinue records a player's vote to restart with fresh balances.
// "continue" is the only recognised choice; the round already took
// everyone's chips, so there is nothing to vote against.
func (r *Room) VoteContinue(playerID, choice string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateEnded || r.votes == nil {
		return ErrInvalidAction
	}
	p := r.playerByID(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	if choice != "continue" {
		return ErrInvalidAction
	}
	if r.votes[playerID] {
		return ErrAlreadyVoted
	}
	r.votes[playerID] = true
	r.logger.Info("continue vote", "player", p.Username, "votes", len(r.votes), "needed", len(r.players))
	r.checkVotesLocked()
	return nil
}

func (r *Room) checkVotesLocked() {
	if len(r.votes) < len(r.players) {
		r.broadcastVoteStatusLocked(false)
		return
	}
	for _, p := range r.players {
		p.resetRound()
		p.Balance = r.cfg.StartingBalance
	}
	r.dealer = Hand{ID: DealerHandID}
	r.deck = nil
	r.state = StateWaiting
	r.currentTurn = ""
	r.votes = nil
	r.autoSkipped = make(map[string]bool)
	r.logger.Info("game reset", "balance", r.cfg.StartingBalance)
	r.broadcastVoteStatusLocked(true)
	r.sink.Broadcast(r.code, EventGameReset, GameResetEvent{Room: r.viewLocked()})
}

func (r *Room) broadcastVoteStatusLocked(restored bool) {
	voters := make([]string, 0, len(r.votes))
	for _, p := range r.players {
		if r.votes != nil && r.votes[p.ID] {
			voters = append(voters, p.Username)
		}
	}
	r.sink.Broadcast(r.code, EventVoteStatus, VoteStatusEvent{
		Votes:    len(voters),
		Needed:   len(r.players),
		Voters:   voters,
		Restored: restored,
	})
}

// resetToWaitingLocked abandons the round in progress.
func (r *Room) resetToWaitingLocked() {
	r.stopTurnTimerLocked()
	r.dealGen++
	r.deck = nil
	r.dealer = Hand{ID: DealerHandID}
	r.currentTurn = ""
	r.autoSkipped = make(map[string]bool)
	for _, p := range r.players {
		// Abandoned bets go back to their owners.
		for _, h := range p.hands() {
			p.Balance += h.Bet
		}
		p.resetRound()
	}
	r.state = StateWaiting
}

func (r *Room) closeLocked() {
	r.closed = true
	r.stopTurnTimerLocked()
	r.dealGen++
	r.logger.Info("room closed")
}

// View returns the client-facing state of the room.
func (r *Room) View() RoomView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

func (r *Room) viewLocked() RoomView {
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
	return RoomView{
		Code:        r.code,
		HostID:      r.hostID,
		State:       r.state,
		CurrentTurn: r.currentTurn,
		Players:     players,
		Dealer:      r.dealerViewLocked(),
	}
}

// dealerViewLocked masks the hole card until the dealer's turn begins.
func (r *Room) dealerViewLocked() DealerView {
	hidden := r.state == StatePlaying && r.currentTurn != DealerHandID && len(r.dealer.Cards) >= 2
	if !hidden {
		return DealerView{
			Cards:  append([]deck.Card(nil), r.dealer.Cards...),
			Score:  r.dealer.Score,
			Status: r.dealer.Status,
		}
	}
	up := r.dealer.Cards[0]
	return DealerView{
		Cards:      []deck.Card{up},
		Score:      deck.BestHandValue([]deck.Card{up}),
		HoleHidden: true,
	}
}
