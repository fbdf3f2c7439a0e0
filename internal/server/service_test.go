package server

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/blackjack/internal/game"
	"github.com/cardroom/blackjack/internal/ledger"
)

// fakeBroadcaster records delivered messages in place of live sockets.
type fakeBroadcaster struct {
	mu       sync.Mutex
	room     []*Message
	direct   map[string][]*Message
	detached []string
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{direct: make(map[string][]*Message)}
}

func (f *fakeBroadcaster) BroadcastToRoom(roomCode string, msg *Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room = append(f.room, msg)
}

func (f *fakeBroadcaster) SendToPlayer(playerID string, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[playerID] = append(f.direct[playerID], msg)
	return nil
}

func (f *fakeBroadcaster) ClearRoom(playerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detached = append(f.detached, playerID)
}

func (f *fakeBroadcaster) roomTypes() []MessageType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]MessageType, len(f.room))
	for i, m := range f.room {
		types[i] = m.Type
	}
	return types
}

func newTestService(t *testing.T) (*RoomService, *fakeBroadcaster) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.DealDelay = 0
	cfg.DealerDelay = 0
	logger := log.New(io.Discard)
	svc := NewRoomService(cfg, ledger.NewMemory(), logger,
		game.WithClock(quartz.NewMock(t)), game.WithSeed(1))
	fb := newFakeBroadcaster()
	svc.SetBroadcaster(fb)
	return svc, fb
}

func TestAuthenticateAssignsGuestNames(t *testing.T) {
	svc, _ := newTestService(t)

	id, name, balance, err := svc.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(name, "guest-"))
	assert.Equal(t, 1000, balance)

	id2, _, _, err := svc.Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestAuthenticateRestoresPersistedBalance(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.store.SetBalance(context.Background(), "alice", 1750))

	_, name, balance, err := svc.Authenticate(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
	assert.Equal(t, 1750, balance)
}

func TestEngineEventsReachTheWire(t *testing.T) {
	svc, fb := newTestService(t)

	room, err := svc.CreateRoom("p1", "alice", 1000)
	require.NoError(t, err)
	_, err = svc.JoinRoom(room.Code(), "p2", "bob", 1000)
	require.NoError(t, err)
	require.NoError(t, svc.StartGame(room.Code(), "p1"))

	types := fb.roomTypes()
	assert.Contains(t, types, MessageType(game.EventPlayerJoined))
	assert.Contains(t, types, MessageType(game.EventGameStarted))

	// Bets produce a private ack plus a table broadcast.
	require.NoError(t, svc.PlaceBet(room.Code(), "p1", 50))
	require.Len(t, fb.direct["p1"], 1)
	assert.Equal(t, MessageType(game.EventBetAccepted), fb.direct["p1"][0].Type)
	assert.Contains(t, fb.roomTypes(), MessageType(game.EventBetPlaced))

	// Payloads are JSON encoded and carry the event data.
	var placed game.BetPlacedEvent
	for _, m := range fb.room {
		if m.Type == MessageType(game.EventBetPlaced) {
			require.NoError(t, json.Unmarshal(m.Data, &placed))
		}
	}
	assert.Equal(t, "alice", placed.Username)
	assert.Equal(t, 50, placed.Amount)
}

func TestKickDetachesConnection(t *testing.T) {
	svc, fb := newTestService(t)

	room, err := svc.CreateRoom("p1", "alice", 1000)
	require.NoError(t, err)
	_, err = svc.JoinRoom(room.Code(), "p2", "bob", 1000)
	require.NoError(t, err)

	require.NoError(t, svc.KickPlayer(room.Code(), "p1", "p2"))
	assert.Contains(t, fb.roomTypes(), MessageType(game.EventPlayerKicked))
	assert.Equal(t, []string{"p2"}, fb.detached)
}

func TestServiceErrorMapping(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.StartGame("ZZZZZZ", "p1")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	assert.Equal(t, "room_not_found", errorCode(err))

	room, err := svc.CreateRoom("p1", "alice", 1000)
	require.NoError(t, err)
	_, err = svc.JoinRoom(room.Code(), "p2", "bob", 1000)
	require.NoError(t, err)

	assert.Equal(t, "not_host", errorCode(svc.StartGame(room.Code(), "p2")))
	assert.Equal(t, "game_not_started", errorCode(svc.Hit(room.Code(), "p1", "")))

	require.NoError(t, svc.StartGame(room.Code(), "p1"))
	assert.Equal(t, "invalid_bet", errorCode(svc.PlaceBet(room.Code(), "p1", 0)))
	assert.Equal(t, "insufficient_balance", errorCode(svc.PlaceBet(room.Code(), "p1", 9999)))
}

func TestJoinRoomRejectsMalformedCodes(t *testing.T) {
	svc, _ := newTestService(t)

	// Wrong length and out-of-alphabet characters fail before the
	// registry lookup.
	_, err := svc.JoinRoom("ABC", "p1", "alice", 1000)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	assert.Equal(t, "room_not_found", errorCode(err))

	_, err = svc.JoinRoom("ABCDEI", "p1", "alice", 1000)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestLeaderboardLimits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	entriesIn := []ledger.Entry{
		{Username: "alice", Score: 1500},
		{Username: "bob", Score: 2000},
		{Username: "carol", Score: 900},
	}
	for _, e := range entriesIn {
		require.NoError(t, svc.store.UpsertHighScore(ctx, e.Username, e.Score))
	}

	entries, err := svc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].Username)

	// Out-of-range limits fall back to the default of ten.
	entries, err = svc.Leaderboard(ctx, -5)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: "invalid_bet", Message: "invalid bet amount"})
	require.NoError(t, err)
	assert.False(t, msg.Timestamp.IsZero())

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, MessageTypeError, decoded.Type)

	var payload ErrorData
	require.NoError(t, json.Unmarshal(decoded.Data, &payload))
	assert.Equal(t, "invalid_bet", payload.Code)
}
