package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	playerID    string
	username    string
	balance     int
	roomCode    string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	roomService *RoomService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, roomService *RoomService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		roomService: roomService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with an authenticated identity.
func (c *Connection) SetPlayer(playerID, username string, balance int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.username = username
	c.balance = balance
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// GetUsername returns the authenticated display name.
func (c *Connection) GetUsername() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// GetBalance returns the bankroll established at auth time.
func (c *Connection) GetBalance() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balance
}

// SetRoom associates this connection with a room
func (c *Connection) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// GetRoom returns the associated room code
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	shutdownTimeout = 5 * time.Second
)

var ErrConnectionClosed = websocket.ErrCloseSent

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeCreateRoom:
		c.handleCreateRoom()

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		c.handleLeaveRoom()

	case MessageTypeStartGame:
		c.inRoom(func(code, playerID string) error {
			return c.roomService.StartGame(code, playerID)
		})

	case MessageTypePlaceBet:
		var data PlaceBetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse bet data")
			return
		}
		c.inRoom(func(code, playerID string) error {
			return c.roomService.PlaceBet(code, playerID, data.Amount)
		})

	case MessageTypeHit:
		data := c.parseAction(msg)
		c.inRoom(func(code, playerID string) error {
			return c.roomService.Hit(code, playerID, data.HandID)
		})

	case MessageTypeStand:
		data := c.parseAction(msg)
		c.inRoom(func(code, playerID string) error {
			return c.roomService.Stand(code, playerID, data.HandID)
		})

	case MessageTypeDoubleDown:
		data := c.parseAction(msg)
		c.inRoom(func(code, playerID string) error {
			return c.roomService.DoubleDown(code, playerID, data.HandID)
		})

	case MessageTypeSplit:
		c.inRoom(func(code, playerID string) error {
			return c.roomService.Split(code, playerID)
		})

	case MessageTypeSurrender:
		data := c.parseAction(msg)
		c.inRoom(func(code, playerID string) error {
			return c.roomService.Surrender(code, playerID, data.HandID)
		})

	case MessageTypeStartNewRound:
		c.inRoom(func(code, playerID string) error {
			return c.roomService.StartNewRound(code, playerID)
		})

	case MessageTypeKickPlayer:
		var data KickPlayerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse kick data")
			return
		}
		c.inRoom(func(code, playerID string) error {
			return c.roomService.KickPlayer(code, playerID, data.PlayerID)
		})

	case MessageTypeVoteContinue:
		var data VoteContinueData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse vote data")
			return
		}
		c.inRoom(func(code, playerID string) error {
			return c.roomService.VoteContinue(code, playerID, data.Choice)
		})

	case MessageTypeLeaderboard:
		var data LeaderboardRequestData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError("invalid_message", "Failed to parse leaderboard request")
				return
			}
		}
		c.handleLeaderboard(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+string(msg.Type))
	}
}

// parseAction decodes the optional hand selector for play actions. A
// missing or malformed body falls back to the primary hand.
func (c *Connection) parseAction(msg *Message) ActionData {
	var data ActionData
	if len(msg.Data) > 0 {
		_ = json.Unmarshal(msg.Data, &data)
	}
	return data
}

// inRoom runs fn with the connection's identity after checking auth and
// room membership, sending an error frame when fn fails.
func (c *Connection) inRoom(fn func(code, playerID string) error) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}
	code := c.GetRoom()
	if code == "" {
		c.sendError("not_in_room", "Must join a room first")
		return
	}
	if err := fn(code, playerID); err != nil {
		c.sendError(errorCode(err), err.Error())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

func (c *Connection) handleAuth(data AuthData) {
	c.logger.Info("Auth request", "username", data.Username)

	ctx, cancel := context.WithTimeout(c.ctx, authTimeout)
	defer cancel()
	playerID, username, balance, err := c.roomService.Authenticate(ctx, data.Username)
	if err != nil {
		c.sendError("auth_failed", err.Error())
		return
	}

	c.SetPlayer(playerID, username, balance)

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		PlayerID: playerID,
		Username: username,
		Balance:  balance,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleCreateRoom() {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}
	if c.GetRoom() != "" {
		c.sendError("already_in_room", "Leave the current room first")
		return
	}

	room, err := c.roomService.CreateRoom(playerID, c.GetUsername(), c.GetBalance())
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.SetRoom(room.Code())

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		PlayerID: playerID,
		Room:     room.View(),
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	c.logger.Info("Join room request", "room", data.Code, "player", c.GetPlayer())

	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}
	if c.GetRoom() != "" {
		c.sendError("already_in_room", "Leave the current room first")
		return
	}

	room, err := c.roomService.JoinRoom(data.Code, playerID, c.GetUsername(), c.GetBalance())
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.SetRoom(room.Code())

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		PlayerID: playerID,
		Room:     room.View(),
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleLeaveRoom() {
	playerID := c.GetPlayer()
	code := c.GetRoom()
	if playerID == "" || code == "" {
		c.sendError("not_in_room", "Not in a room")
		return
	}

	c.roomService.LeaveRoom(code, playerID)
	c.SetRoom("")

	response, _ := NewMessage(MessageTypeRoomLeft, RoomLeftData{Code: code})
	_ = c.SendMessage(response)
}

func (c *Connection) handleLeaderboard(data LeaderboardRequestData) {
	ctx, cancel := context.WithTimeout(c.ctx, authTimeout)
	defer cancel()
	entries, err := c.roomService.Leaderboard(ctx, data.Limit)
	if err != nil {
		c.sendError("leaderboard_failed", err.Error())
		return
	}

	response, _ := NewMessage(MessageTypeLeaders, LeaderboardData{Entries: entries})
	_ = c.SendMessage(response)
}
