package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cardroom/blackjack/internal/game"
	"github.com/cardroom/blackjack/internal/ledger"
	"github.com/cardroom/blackjack/internal/roomcode"
)

// Broadcaster delivers wire messages to connected clients. The Server
// implements it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, msg *Message)
	SendToPlayer(playerID string, msg *Message) error
	// ClearRoom detaches a player's connection from its room after the
	// engine removed them without a leave request.
	ClearRoom(playerID string)
}

// RoomService sits between the gateway and the game engine. It owns the
// room registry, translates engine events into wire messages, and keeps
// the ledger in the loop on auth and settlement.
type RoomService struct {
	manager     *game.Manager
	store       ledger.Store
	broadcaster Broadcaster
	cfg         game.Config
	logger      *log.Logger
}

// NewRoomService wires a service around the given ledger store. The
// broadcaster must be set before any room traffic flows.
func NewRoomService(cfg game.Config, store ledger.Store, logger *log.Logger, opts ...game.Option) *RoomService {
	s := &RoomService{
		store:  store,
		cfg:    cfg,
		logger: logger.WithPrefix("rooms"),
	}
	s.manager = game.NewManager(cfg, s, store, logger, opts...)
	return s
}

// SetBroadcaster attaches the delivery mechanism for engine events.
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Manager exposes the underlying registry.
func (s *RoomService) Manager() *game.Manager {
	return s.manager
}

// Broadcast implements game.EventSink.
func (s *RoomService) Broadcast(roomCode string, event game.EventType, data any) {
	if s.broadcaster == nil {
		return
	}
	msg, err := NewMessage(MessageType(event), data)
	if err != nil {
		s.logger.Error("failed to encode event", "event", event, "error", err)
		return
	}
	s.broadcaster.BroadcastToRoom(roomCode, msg)

	// A kick is decided by the engine, not the kicked client, so their
	// connection still points at the room. Detach it after they have
	// heard the broadcast.
	if kicked, ok := data.(game.PlayerKickedEvent); ok {
		s.broadcaster.ClearRoom(kicked.PlayerID)
	}
}

// Unicast implements game.EventSink.
func (s *RoomService) Unicast(playerID string, event game.EventType, data any) {
	if s.broadcaster == nil {
		return
	}
	msg, err := NewMessage(MessageType(event), data)
	if err != nil {
		s.logger.Error("failed to encode event", "event", event, "error", err)
		return
	}
	if err := s.broadcaster.SendToPlayer(playerID, msg); err != nil {
		s.logger.Debug("unicast dropped", "player", playerID, "event", event)
	}
}

// Authenticate resolves a username to a player identity and bankroll.
// Empty usernames get a guest name; known names resume their last
// persisted balance.
func (s *RoomService) Authenticate(ctx context.Context, username string) (playerID, name string, balance int, err error) {
	if username == "" {
		username = guestName()
	}
	balance = s.cfg.StartingBalance
	if s.store != nil {
		stored, ok, lerr := s.store.Balance(ctx, username)
		if lerr != nil {
			s.logger.Warn("ledger lookup failed", "player", username, "error", lerr)
		} else if ok && stored > 0 {
			balance = stored
		}
	}
	return newPlayerID(), username, balance, nil
}

// CreateRoom opens a room with the player as host.
func (s *RoomService) CreateRoom(playerID, username string, balance int) (*game.Room, error) {
	return s.manager.CreateRoom(playerID, username, balance)
}

// JoinRoom seats the player in an existing room. Malformed codes are
// rejected before the registry is consulted.
func (s *RoomService) JoinRoom(code, playerID, username string, balance int) (*game.Room, error) {
	if err := roomcode.Validate(code); err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrRoomNotFound, err)
	}
	return s.manager.JoinRoom(code, playerID, username, balance)
}

// LeaveRoom removes the player from the given room.
func (s *RoomService) LeaveRoom(code, playerID string) {
	s.manager.Leave(code, playerID)
}

// Disconnect cleans the player out of whichever room holds them.
func (s *RoomService) Disconnect(playerID string) {
	s.manager.Disconnect(playerID)
}

// Leaderboard returns the top persisted scores.
func (s *RoomService) Leaderboard(ctx context.Context, limit int) ([]ledger.Entry, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.Top(ctx, limit)
}

// room looks up a live room or returns ErrRoomNotFound.
func (s *RoomService) room(code string) (*game.Room, error) {
	room, ok := s.manager.Room(code)
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return room, nil
}

func (s *RoomService) StartGame(code, playerID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.StartGame(playerID)
}

func (s *RoomService) PlaceBet(code, playerID string, amount int) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.PlaceBet(playerID, amount)
}

func (s *RoomService) Hit(code, playerID, handID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.Hit(playerID, handID)
}

func (s *RoomService) Stand(code, playerID, handID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.Stand(playerID, handID)
}

func (s *RoomService) DoubleDown(code, playerID, handID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.DoubleDown(playerID, handID)
}

func (s *RoomService) Split(code, playerID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.Split(playerID)
}

func (s *RoomService) Surrender(code, playerID, handID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.Surrender(playerID, handID)
}

func (s *RoomService) StartNewRound(code, playerID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.StartNewRound(playerID)
}

func (s *RoomService) KickPlayer(code, requesterID, targetID string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.Kick(requesterID, targetID)
}

func (s *RoomService) VoteContinue(code, playerID, choice string) error {
	room, err := s.room(code)
	if err != nil {
		return err
	}
	return room.VoteContinue(playerID, choice)
}

// errorCode maps engine errors onto stable wire codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, game.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, game.ErrGameNotStarted):
		return "game_not_started"
	case errors.Is(err, game.ErrNotHost):
		return "not_host"
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrInvalidBet):
		return "invalid_bet"
	case errors.Is(err, game.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, game.ErrAlreadyVoted):
		return "already_voted"
	default:
		return "invalid_action"
	}
}

// newPlayerID generates an opaque connection-scoped player identity.
func newPlayerID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate player id: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

func guestName() string {
	buf := make([]byte, 2)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate guest name: " + err.Error())
	}
	return fmt.Sprintf("guest-%04d", (int(buf[0])<<8|int(buf[1]))%10000)
}

// authTimeout bounds the ledger lookup during auth so a slow store
// cannot stall the handshake.
const authTimeout = 3 * time.Second
