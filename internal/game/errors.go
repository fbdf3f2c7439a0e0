package game

import "errors"

// Sentinel errors returned by room and registry operations. The gateway
// maps these onto error frames; the error text is what the client sees.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrNotInRoom           = errors.New("player is not in this room")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrGameNotStarted      = errors.New("game has not started")
	ErrNotHost             = errors.New("only the host can do that")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrInvalidAction       = errors.New("invalid action")
	ErrInvalidBet          = errors.New("invalid bet amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyVoted        = errors.New("already voted")
)
