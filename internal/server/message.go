package server

import (
	"encoding/json"
	"time"

	"github.com/cardroom/blackjack/internal/game"
	"github.com/cardroom/blackjack/internal/ledger"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

type JoinRoomData struct {
	Code string `json:"code"`
}

type PlaceBetData struct {
	Amount int `json:"amount"`
}

// ActionData covers hit, stand, double down and surrender. HandID is
// only needed when acting on a split hand.
type ActionData struct {
	HandID string `json:"handId,omitempty"`
}

type KickPlayerData struct {
	PlayerID string `json:"playerId"`
}

type VoteContinueData struct {
	Choice string `json:"choice"`
}

type LeaderboardRequestData struct {
	Limit int `json:"limit,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Username string `json:"username,omitempty"`
	Balance  int    `json:"balance,omitempty"`
	Error    string `json:"error,omitempty"`
}

type RoomJoinedData struct {
	PlayerID string        `json:"playerId"`
	Room     game.RoomView `json:"room"`
}

type RoomLeftData struct {
	Code string `json:"code"`
}

type LeaderboardData struct {
	Entries []ledger.Entry `json:"entries"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
