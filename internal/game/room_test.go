package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/blackjack/internal/deck"
)

func TestJoinRejectedOnceGameStarted(t *testing.T) {
	tr := newTestRoom(t, 2)
	require.NoError(t, tr.room.StartGame("p1"))

	_, err := tr.mgr.JoinRoom(tr.room.Code(), "p3", "carol", 1000)
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestRoomSeatCap(t *testing.T) {
	tr := newTestRoom(t, 7)
	_, err := tr.mgr.JoinRoom(tr.room.Code(), "p8", "henry", 1000)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestDuplicateSeatRejected(t *testing.T) {
	tr := newTestRoom(t, 2)
	_, err := tr.mgr.JoinRoom(tr.room.Code(), "p1", "alice", 1000)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestKickRules(t *testing.T) {
	tr := newTestRoom(t, 3)

	assert.ErrorIs(t, tr.room.Kick("p2", "p3"), ErrNotHost)
	assert.ErrorIs(t, tr.room.Kick("p1", "p1"), ErrInvalidAction)
	assert.ErrorIs(t, tr.room.Kick("p1", "zz"), ErrNotInRoom)

	require.NoError(t, tr.room.Kick("p1", "p3"))
	assert.False(t, tr.room.HasPlayer("p3"))
	kicked := tr.sink.ofType(EventPlayerKicked)
	require.Len(t, kicked, 1)
	assert.Equal(t, "p3", kicked[0].Data.(PlayerKickedEvent).PlayerID)
}

func TestKickRejectedDuringGame(t *testing.T) {
	tr := newTestRoom(t, 2)
	require.NoError(t, tr.room.StartGame("p1"))
	assert.ErrorIs(t, tr.room.Kick("p1", "p2"), ErrGameInProgress)
}

func TestHostReassignedWhenHostLeaves(t *testing.T) {
	tr := newTestRoom(t, 3)
	tr.mgr.Leave(tr.room.Code(), "p1")
	assert.Equal(t, "p2", tr.room.HostID())

	// The new host can run the table.
	require.NoError(t, tr.room.StartGame("p2"))
}

func TestAbandonedRoundResetsWhenAllActivePlayersLeave(t *testing.T) {
	tr := newTestRoom(t, 2)
	tr.startWithDeck(
		tc(deck.Ten), tc(deck.Nine), tc(deck.Ten),
		tc(deck.Seven), tc(deck.Eight), tc(deck.Eight),
	)
	tr.betAll(50)

	tr.mgr.Leave(tr.room.Code(), "p1")
	tr.mgr.Leave(tr.room.Code(), "p2")

	// Everyone left; the room is gone.
	assert.Equal(t, 0, tr.mgr.RoomCount())
	_, ok := tr.mgr.Room(tr.room.Code())
	assert.False(t, ok)
}

func TestLeaveDuringBettingUnblocksDeal(t *testing.T) {
	tr := newTestRoom(t, 3)
	tr.startWithDeck(
		tc(deck.Ten), tc(deck.Nine), tc(deck.Ten),
		tc(deck.Seven), tc(deck.Eight), tc(deck.Eight),
	)
	require.NoError(t, tr.room.PlaceBet("p1", 50))
	require.NoError(t, tr.room.PlaceBet("p2", 50))
	assert.Equal(t, StateBetting, tr.room.State())

	// p3 never bet; their departure is what completes the betting phase.
	tr.mgr.Leave(tr.room.Code(), "p3")
	assert.Equal(t, StatePlaying, tr.room.State())
}

func TestViewMasksDealerHoleCard(t *testing.T) {
	tr := newTestRoom(t, 2)
	tr.startWithDeck(
		tc(deck.Ten), tc(deck.Nine), tc(deck.Ten),
		tc(deck.Seven), tc(deck.Eight), tc(deck.Eight),
	)
	tr.betAll(50)

	view := tr.room.View()
	require.Len(t, view.Dealer.Cards, 1)
	assert.True(t, view.Dealer.HoleHidden)
	assert.Equal(t, 10, view.Dealer.Score)

	require.NoError(t, tr.room.Stand("p1", ""))
	require.NoError(t, tr.room.Stand("p2", ""))

	// Round over, the full dealer hand is visible.
	view = tr.room.View()
	assert.Len(t, view.Dealer.Cards, 2)
	assert.False(t, view.Dealer.HoleHidden)
	assert.Equal(t, 18, view.Dealer.Score)
}

func TestStartNewRoundRules(t *testing.T) {
	tr := newTestRoom(t, 2)
	assert.ErrorIs(t, tr.room.StartNewRound("p1"), ErrInvalidAction)

	tr.startWithDeck(
		tc(deck.Ten), tc(deck.Nine), tc(deck.Ten),
		tc(deck.Seven), tc(deck.Eight), tc(deck.Eight),
	)
	tr.betAll(50)
	require.NoError(t, tr.room.Stand("p1", ""))
	require.NoError(t, tr.room.Stand("p2", ""))
	require.Equal(t, StateEnded, tr.room.State())

	assert.ErrorIs(t, tr.room.StartNewRound("p2"), ErrNotHost)

	tr.sink.reset()
	require.NoError(t, tr.room.StartNewRound("p1"))
	assert.Equal(t, StateBetting, tr.room.State())
	require.Len(t, tr.sink.ofType(EventNewRound), 1)

	// Hands were cleared for the fresh round.
	p1 := tr.player("p1")
	assert.Empty(t, p1.Cards)
	assert.Equal(t, 0, p1.Bet)
	assert.Equal(t, StatusNone, p1.Status)
}
