package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/blackjack/internal/deck"
)

func TestSnapshotRoundTripPreservesRoomState(t *testing.T) {
	tr := newTestRoom(t, 3)
	// Set up a mid-round position: p1 split eights, p1-split on turn.
	tr.startWithDeck(
		tc(deck.Eight), tc(deck.Five), tc(deck.Nine), tc(deck.Ten),
		tc(deck.Eight), tc(deck.Nine), tc(deck.Eight), tc(deck.Seven),
		tc(deck.Ten), tc(deck.Three),
		tc(deck.Two), tc(deck.Four),
	)
	tr.betAll(100)
	require.NoError(t, tr.room.Split("p1"))
	require.NoError(t, tr.room.Stand("p1", ""))
	require.Equal(t, "p1-split", tr.currentTurn())

	snap := tr.room.Snapshot()

	// Through JSON and back, nothing is lost.
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, snap, decoded)

	// A fresh registry can resurrect the table from the snapshot.
	mgr := newQuietManager(t, testConfig(), &recorderSink{}, newTestClock(t))
	restored, err := mgr.Restore(decoded)
	require.NoError(t, err)

	assert.Equal(t, snap, restored.Snapshot())

	view := restored.View()
	assert.Equal(t, "p1-split", view.CurrentTurn)
	require.Len(t, view.Players, 3)
	assert.Equal(t, "p1", view.Players[0].ID)
	assert.Equal(t, "p2", view.Players[1].ID)
	assert.Equal(t, "p3", view.Players[2].ID)
	require.NotNil(t, view.Players[0].Split)
	assert.Equal(t, snap.Players[0].Cards, view.Players[0].Cards)

	// Play continues where it stopped.
	require.NoError(t, restored.Stand("p1", "p1-split"))
	assert.Equal(t, "p2", restored.View().CurrentTurn)
}

func TestRestoreRejectsDuplicateCode(t *testing.T) {
	tr := newTestRoom(t, 2)
	snap := tr.room.Snapshot()

	_, err := tr.mgr.Restore(snap)
	assert.Error(t, err)
}
