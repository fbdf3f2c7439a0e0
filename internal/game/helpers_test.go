package game

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/blackjack/internal/deck"
	"github.com/cardroom/blackjack/internal/ledger"
)

// recordedEvent is one sink delivery captured by recorderSink.
type recordedEvent struct {
	Target string // room code for broadcasts, player ID for unicasts
	Type   EventType
	Data   any
}

// recorderSink captures engine events for assertions.
type recorderSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *recorderSink) Broadcast(roomCode string, event EventType, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{Target: roomCode, Type: event, Data: data})
}

func (s *recorderSink) Unicast(playerID string, event EventType, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{Target: playerID, Type: event, Data: data})
}

func (s *recorderSink) ofType(event EventType) []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedEvent
	for _, e := range s.events {
		if e.Type == event {
			out = append(out, e)
		}
	}
	return out
}

func (s *recorderSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

var testUsernames = []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace"}

// testRoom bundles a room with its test dependencies. Player IDs are
// "p1".."pN" in seat order with p1 as host.
type testRoom struct {
	t     *testing.T
	room  *Room
	mgr   *Manager
	sink  *recorderSink
	clock *quartz.Mock
}

func testConfig() Config {
	cfg := DefaultConfig()
	// Synchronous dealing keeps assertions linear.
	cfg.DealDelay = 0
	cfg.DealerDelay = 0
	return cfg
}

func newTestClock(t *testing.T) *quartz.Mock {
	t.Helper()
	return quartz.NewMock(t)
}

func newQuietManager(t *testing.T, cfg Config, sink EventSink, clock quartz.Clock) *Manager {
	t.Helper()
	return NewManager(cfg, sink, ledger.NewMemory(), log.New(io.Discard), WithClock(clock), WithSeed(1))
}

func newTestRoom(t *testing.T, seats int) *testRoom {
	t.Helper()
	sink := &recorderSink{}
	clock := newTestClock(t)
	mgr := newQuietManager(t, testConfig(), sink, clock)

	room, err := mgr.CreateRoom("p1", testUsernames[0], 1000)
	require.NoError(t, err)
	for i := 2; i <= seats; i++ {
		_, err := mgr.JoinRoom(room.Code(), fmt.Sprintf("p%d", i), testUsernames[i-1], 1000)
		require.NoError(t, err)
	}
	return &testRoom{t: t, room: room, mgr: mgr, sink: sink, clock: clock}
}

// startWithDeck starts the game and stacks the deck so the listed cards
// come out in exactly that order.
func (tr *testRoom) startWithDeck(cards ...deck.Card) {
	tr.t.Helper()
	require.NoError(tr.t, tr.room.StartGame("p1"))
	tr.stackDeck(cards...)
}

// stackDeck replaces the room's deck; cards are listed in draw order.
func (tr *testRoom) stackDeck(cards ...deck.Card) {
	reversed := make([]deck.Card, len(cards))
	for i, c := range cards {
		reversed[len(cards)-1-i] = c
	}
	tr.room.mu.Lock()
	tr.room.deck = deck.Restore(reversed)
	tr.room.mu.Unlock()
}

// betAll places the same bet for every seated player; the initial deal
// runs inline when the last bet lands.
func (tr *testRoom) betAll(amount int) {
	tr.t.Helper()
	tr.room.mu.Lock()
	ids := make([]string, 0, len(tr.room.players))
	for _, p := range tr.room.players {
		if p.Status != StatusSpectating {
			ids = append(ids, p.ID)
		}
	}
	tr.room.mu.Unlock()
	for _, id := range ids {
		require.NoError(tr.t, tr.room.PlaceBet(id, amount))
	}
}

func (tr *testRoom) currentTurn() string {
	tr.room.mu.Lock()
	defer tr.room.mu.Unlock()
	return tr.room.currentTurn
}

func (tr *testRoom) player(id string) *Player {
	tr.room.mu.Lock()
	defer tr.room.mu.Unlock()
	p := tr.room.playerByID(id)
	require.NotNil(tr.t, p, "player %s not seated", id)
	return p
}

func (tr *testRoom) advance(d time.Duration) {
	tr.t.Helper()
	tr.clock.Advance(d).MustWait(tr.t.Context())
}

func tc(rank deck.Rank) deck.Card {
	return deck.NewCard(deck.Spades, rank)
}
