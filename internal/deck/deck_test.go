package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/blackjack/internal/randutil"
)

func TestBestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  int
	}{
		{"simple total", []Card{NewCard(Hearts, Ten), NewCard(Spades, Seven)}, 17},
		{"face cards count ten", []Card{NewCard(Hearts, King), NewCard(Clubs, Queen)}, 20},
		{"ace stays high", []Card{NewCard(Hearts, Ace), NewCard(Spades, Nine)}, 20},
		{"one ace demoted", []Card{NewCard(Hearts, Ace), NewCard(Spades, Ace), NewCard(Clubs, Nine)}, 21},
		{"three aces demoted", []Card{NewCard(Hearts, Ace), NewCard(Spades, Ace), NewCard(Clubs, Ace), NewCard(Diamonds, Nine)}, 12},
		{"bust with no aces", []Card{NewCard(Hearts, King), NewCard(Spades, Queen), NewCard(Clubs, Five)}, 25},
		{"all aces demoted still busts", []Card{NewCard(Hearts, King), NewCard(Spades, Queen), NewCard(Clubs, Ace), NewCard(Diamonds, Ace)}, 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BestHandValue(tt.cards))
		})
	}
}

func TestIsBlackjack(t *testing.T) {
	assert.True(t, IsBlackjack([]Card{NewCard(Hearts, Ace), NewCard(Spades, King)}))
	assert.False(t, IsBlackjack([]Card{NewCard(Hearts, Ace), NewCard(Spades, Nine)}))
	// 21 with three cards is not a natural
	assert.False(t, IsBlackjack([]Card{NewCard(Hearts, Seven), NewCard(Spades, Seven), NewCard(Clubs, Seven)}))
}

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := New()
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	for d.Remaining() > 0 {
		c, err := d.Draw()
		require.NoError(t, err)
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffledDeckKeepsAllCards(t *testing.T) {
	d := NewShuffled(randutil.New(42))
	require.Equal(t, 52, d.Remaining())

	seen := make(map[Card]bool)
	for d.Remaining() > 0 {
		c, err := d.Draw()
		require.NoError(t, err)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestShuffleIsSeedDeterministic(t *testing.T) {
	a := NewShuffled(randutil.New(7))
	b := NewShuffled(randutil.New(7))
	assert.Equal(t, a.Cards(), b.Cards())

	c := NewShuffled(randutil.New(8))
	assert.NotEqual(t, a.Cards(), c.Cards())
}

func TestDrawFromEmptyDeck(t *testing.T) {
	d := Restore(nil)
	_, err := d.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

func TestRestoreRoundTrip(t *testing.T) {
	d := NewShuffled(randutil.New(3))
	_, err := d.Draw()
	require.NoError(t, err)

	snapshot := d.Cards()
	restored := Restore(snapshot)
	assert.Equal(t, d.Remaining(), restored.Remaining())

	want, err := d.Draw()
	require.NoError(t, err)
	got, err := restored.Draw()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCardJSON(t *testing.T) {
	card := NewCard(Spades, Ace)
	data, err := json.Marshal(card)
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"spades","rank":"ace"}`, string(data))

	var decoded Card
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, card, decoded)

	var bad Card
	assert.Error(t, json.Unmarshal([]byte(`{"suit":"stars","rank":"ace"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"suit":"spades","rank":"1"}`), &bad))
}

func TestPipValue(t *testing.T) {
	assert.Equal(t, 10, NewCard(Hearts, Jack).PipValue())
	assert.Equal(t, 10, NewCard(Hearts, Ten).PipValue())
	assert.Equal(t, 11, NewCard(Hearts, Ace).PipValue())
	assert.Equal(t, 2, NewCard(Hearts, Two).PipValue())
}
