package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// Socket events sent by clients.
const (
	EventJoin        = "join"
	EventChatMessage = "chatMessage"
	EventChessJoin   = "chessJoin"
	EventChessMove   = "chessMove"
)

// Socket events sent by the server.
const (
	EventMessage     = "message"
	EventUpdateUsers = "updateUsers"
	EventError       = "error"
)

// Error codes carried by EventError.
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Envelope is one websocket frame: an event name and its JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope for event.
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return errors.New("missing event data")
	}
	return json.Unmarshal(e.Data, v)
}

// JoinRequest registers the presence of a connection.
type JoinRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Normalize trims whitespace around the identity fields.
func (r *JoinRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

// SendRequest asks the router to relay a chat message.
type SendRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// OutgoingMessage is the payload of EventMessage.
type OutgoingMessage struct {
	Sender   string `json:"sender"`
	Message  string `json:"message"`
	Receiver string `json:"receiver"`
}

// OnlineUser is one entry of EventUpdateUsers.
type OnlineUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ErrorPayload is the payload of EventError.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChessJoinRequest subscribes a connection to a game room.
type ChessJoinRequest struct {
	Room string `json:"room"`
}

// ChessMoveRequest relays a move to the other connections of a game room.
type ChessMoveRequest struct {
	Room string          `json:"room"`
	Move json.RawMessage `json:"move"`
}

// RelayEnvelope carries a persisted message between service instances.
type RelayEnvelope struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Payload OutgoingMessage `json:"payload"`
}
