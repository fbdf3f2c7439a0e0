package game

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/blackjack/internal/ledger"
	"github.com/cardroom/blackjack/internal/randutil"
	"github.com/cardroom/blackjack/internal/roomcode"
)

// Manager owns the live room registry: code generation, lookup, and
// teardown of emptied rooms.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg    Config
	clock  quartz.Clock
	codes  *roomcode.Generator
	logger *log.Logger
	sink   EventSink
	store  ledger.Store

	// seed derives per-room rngs; non-zero makes deals deterministic
	// for tests.
	seed     int64
	nextRoom int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock substitutes the wall clock, letting tests drive timers.
func WithClock(clock quartz.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithSeed makes room decks deterministic.
func WithSeed(seed int64) Option {
	return func(m *Manager) { m.seed = seed }
}

// WithCodeGenerator substitutes room code generation.
func WithCodeGenerator(g *roomcode.Generator) Option {
	return func(m *Manager) { m.codes = g }
}

// NewManager creates an empty registry.
func NewManager(cfg Config, sink EventSink, store ledger.Store, logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		rooms:  make(map[string]*Room),
		cfg:    cfg,
		clock:  quartz.NewReal(),
		codes:  roomcode.NewGenerator(nil),
		logger: logger,
		sink:   sink,
		store:  store,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRoom opens a room with the creator seated as host. The join code
// is retried until it misses every live room.
func (m *Manager) CreateRoom(playerID, username string, balance int) (*Room, error) {
	m.mu.Lock()
	code := m.codes.Generate()
	for _, taken := m.rooms[code]; taken; _, taken = m.rooms[code] {
		code = m.codes.Generate()
	}
	m.nextRoom++
	seed := m.seed
	if seed == 0 {
		seed = m.clock.Now().UnixNano()
	}
	seed += m.nextRoom
	room := newRoom(code, playerID, m.cfg, m.clock, randutil.New(seed), m.logger, m.sink, m.store)
	m.rooms[code] = room
	m.mu.Unlock()

	if _, err := room.addPlayer(playerID, username, balance); err != nil {
		m.removeRoom(code)
		return nil, err
	}
	m.logger.Info("room created", "room", code, "host", username)
	return room, nil
}

// JoinRoom seats a player in an existing room.
func (m *Manager) JoinRoom(code, playerID, username string, balance int) (*Room, error) {
	room, ok := m.Room(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if _, err := room.addPlayer(playerID, username, balance); err != nil {
		return nil, err
	}
	return room, nil
}

// Room looks up a live room by code.
func (m *Manager) Room(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[code]
	return room, ok
}

// RoomCount returns the number of live rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Leave removes a player from a room, tearing the room down if it ends
// up empty.
func (m *Manager) Leave(code, playerID string) {
	room, ok := m.Room(code)
	if !ok {
		return
	}
	if room.RemovePlayer(playerID) {
		m.removeRoom(code)
	}
}

// Disconnect removes a player from whichever room holds them, used when
// a connection drops without a leave message.
func (m *Manager) Disconnect(playerID string) {
	m.mu.RLock()
	var found *Room
	for _, room := range m.rooms {
		if room.HasPlayer(playerID) {
			found = room
			break
		}
	}
	m.mu.RUnlock()
	if found == nil {
		return
	}
	if found.RemovePlayer(playerID) {
		m.removeRoom(found.Code())
	}
}

func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	delete(m.rooms, code)
	m.mu.Unlock()
	m.logger.Info("room removed", "room", code)
}
