package server

// MessageType identifies a WebSocket message. Server-to-client game
// events reuse the engine's event names verbatim, so the constants here
// cover the client-to-server requests plus the gateway's own responses.
type MessageType string

// Client → Server
const (
	MessageTypeAuth          MessageType = "auth"
	MessageTypeCreateRoom    MessageType = "create_room"
	MessageTypeJoinRoom      MessageType = "join_room"
	MessageTypeLeaveRoom     MessageType = "leave_room"
	MessageTypeStartGame     MessageType = "start_game"
	MessageTypePlaceBet      MessageType = "place_bet"
	MessageTypeHit           MessageType = "hit"
	MessageTypeStand         MessageType = "stand"
	MessageTypeDoubleDown    MessageType = "double_down"
	MessageTypeSplit         MessageType = "split"
	MessageTypeSurrender     MessageType = "surrender"
	MessageTypeStartNewRound MessageType = "start_new_round"
	MessageTypeKickPlayer    MessageType = "kick_player"
	MessageTypeVoteContinue  MessageType = "vote_continue"
	MessageTypeLeaderboard   MessageType = "leaderboard"
)

// Server → Client (gateway responses; game events pass through with
// their game.EventType names)
const (
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeRoomJoined   MessageType = "room_joined"
	MessageTypeRoomLeft     MessageType = "room_left"
	MessageTypeLeaders      MessageType = "leaderboard_response"
	MessageTypeError        MessageType = "error"
)
