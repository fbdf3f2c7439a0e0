package game

import "github.com/cardroom/blackjack/internal/deck"

// EventType names an engine event as it appears on the wire.
type EventType string

const (
	EventRoomJoined       EventType = "room_joined"
	EventPlayerJoined     EventType = "player_joined"
	EventPlayerLeft       EventType = "player_left"
	EventPlayerKicked     EventType = "player_kicked"
	EventGameStarted      EventType = "game_started"
	EventBetAccepted      EventType = "bet_accepted"
	EventBetPlaced        EventType = "bet_placed"
	EventBettingEnded     EventType = "betting_ended"
	EventCardDealt        EventType = "card_dealt"
	EventPlayerSplit      EventType = "player_split"
	EventTurnChanged      EventType = "turn_changed"
	EventPlayerAutoSkip   EventType = "player_auto_skipped"
	EventDealerTurn       EventType = "dealer_turn_started"
	EventRoundEnded       EventType = "round_ended"
	EventNewRound         EventType = "new_round"
	EventGameReset        EventType = "game_reset"
	EventVoteStatus       EventType = "vote_status"
	EventPlayerSpectating EventType = "player_spectating"
)

// EventSink receives engine events for delivery to clients. Rooms call it
// while holding their own lock, so implementations must not call back into
// the engine.
type EventSink interface {
	// Broadcast delivers an event to every player in the room.
	Broadcast(roomCode string, event EventType, data any)
	// Unicast delivers an event to a single player.
	Unicast(playerID string, event EventType, data any)
}

// DealerView is the dealer's hand as clients may see it. While the hole
// card is face down only the up card and its value are included.
type DealerView struct {
	Cards      []deck.Card `json:"cards"`
	Score      int         `json:"score"`
	Status     Status      `json:"status,omitempty"`
	HoleHidden bool        `json:"holeHidden,omitempty"`
}

// RoomView is the client-facing state of a room, embedded in the bigger
// broadcasts so every client can re-render from scratch.
type RoomView struct {
	Code        string     `json:"code"`
	HostID      string     `json:"hostId"`
	State       State      `json:"state"`
	CurrentTurn string     `json:"currentTurn,omitempty"`
	Players     []Player   `json:"players"`
	Dealer      DealerView `json:"dealer"`
}

// Event payloads. Field names follow the wire protocol.

type PlayerJoinedEvent struct {
	Player Player   `json:"player"`
	Room   RoomView `json:"room"`
}

type PlayerLeftEvent struct {
	PlayerID string   `json:"playerId"`
	Username string   `json:"username"`
	NewHost  string   `json:"newHost,omitempty"`
	Room     RoomView `json:"room"`
}

type PlayerKickedEvent struct {
	PlayerID string   `json:"playerId"`
	Username string   `json:"username"`
	Room     RoomView `json:"room"`
}

type GameStartedEvent struct {
	Room RoomView `json:"room"`
}

type BetAcceptedEvent struct {
	Amount  int `json:"amount"`
	Balance int `json:"balance"`
}

type BetPlacedEvent struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Amount   int    `json:"amount"`
}

type BettingEndedEvent struct {
	Room RoomView `json:"room"`
}

// CardDealtEvent announces one card landing on a hand. To is a hand ID or
// "dealer"; Card is omitted when the dealer's hole card goes down.
type CardDealtEvent struct {
	To     string     `json:"to"`
	Card   *deck.Card `json:"card,omitempty"`
	Score  int        `json:"score"`
	Hidden bool       `json:"hidden,omitempty"`
	Status Status     `json:"status,omitempty"`
}

type PlayerSplitEvent struct {
	PlayerID string `json:"playerId"`
	Primary  Hand   `json:"primary"`
	Split    Hand   `json:"split"`
	Balance  int    `json:"balance"`
}

type TurnChangedEvent struct {
	HandID   string `json:"handId"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type AutoSkippedEvent struct {
	HandID   string `json:"handId"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type DealerTurnEvent struct {
	Dealer DealerView `json:"dealer"`
}

// HandResult is one settled hand within a round summary.
type HandResult struct {
	HandID       string      `json:"handId"`
	PlayerID     string      `json:"playerId"`
	Username     string      `json:"username"`
	Outcome      Outcome     `json:"outcome"`
	AmountChange int         `json:"amountChange"`
	Cards        []deck.Card `json:"cards"`
	Score        int         `json:"score"`
	Balance      int         `json:"balance"`
}

type RoundEndedEvent struct {
	Results []HandResult `json:"results"`
	Dealer  DealerView   `json:"dealer"`
	AllLost bool         `json:"allLost,omitempty"`
}

type NewRoundEvent struct {
	Room RoomView `json:"room"`
}

type GameResetEvent struct {
	Room RoomView `json:"room"`
}

type VoteStatusEvent struct {
	Votes    int      `json:"votes"`
	Needed   int      `json:"needed"`
	Voters   []string `json:"voters"`
	Restored bool     `json:"restored,omitempty"`
}

type PlayerSpectatingEvent struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}
