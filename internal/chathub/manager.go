// Package chathub routes chat messages and game moves between live websocket
// connections and records chat history on the way.
package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"chesshive/backend/internal/config"
	"chesshive/backend/internal/events"
	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"
	"chesshive/backend/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage     = errors.New("message body is empty")
	ErrMessageTooLong   = errors.New("message body is too long")
	ErrSelfChat         = errors.New("cannot send a private message to yourself")
	ErrNotJoined        = errors.New("connection has not joined")
	ErrUnknownClient    = errors.New("unknown connection")
	ErrInvalidReceiver  = errors.New("invalid receiver")
	ErrUsernameMismatch = errors.New("username does not match the session")
	ErrInvalidGameRoom  = errors.New("invalid game room")
	ErrEmptyMove        = errors.New("move is empty")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrPersistFailed    = errors.New("failed to store message")
)

const maxGameRoomLength = 140

// Options tunes a ManagerService. Zero fields fall back to the defaults.
type Options struct {
	// InstanceID tags messages this process publishes to the relay channel.
	InstanceID       string
	MaxMessageLength int
}

// ManagerService is the hub: it owns the connected clients, the presence
// registry and the game rooms.
type ManagerService struct {
	mu      sync.RWMutex
	clients map[string]Client
	// games maps a game room to the connections that joined it.
	games map[string]map[string]struct{}

	Presence *Presence

	Storage storage.Storage
	Events  events.Publisher

	roomLocks *roomLocks
	opts      Options
}

func NewManagerService(s storage.Storage, pub events.Publisher, opts Options) *ManagerService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if opts.InstanceID == "" {
		opts.InstanceID = uuid.NewString()
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = config.DefaultMaxMessageLength
	}
	return &ManagerService{
		clients:      make(map[string]Client),
		games:        make(map[string]map[string]struct{}),
		Presence:     NewPresence(),
		Storage:      s,
		Events:       pub,
		roomLocks:    newRoomLocks(),
		opts:         opts,
	}
}

// InstanceID identifies this process on the relay channel.
func (m *ManagerService) InstanceID() string { return m.opts.InstanceID }

// Register adds a connected client. It does not join it to any room.
func (m *ManagerService) Register(c Client) {
	m.mu.Lock()
	m.clients[c.GetConnID()] = c
	m.mu.Unlock()

	l := logger.L()
	l.Debug().Str(logger.FieldConnID, c.GetConnID()).Msg("client registered")
}

// Unregister removes a client from every routing table and closes it. Calling it
// again for the same client only clears presence left behind for its connection.
func (m *ManagerService) Unregister(c Client) {
	id := c.GetConnID()

	m.mu.Lock()
	current, ok := m.clients[id]
	if !ok {
		m.mu.Unlock()
		if m.Presence.Unregister(id) {
			m.broadcastOnlineUsers()
		}
		return
	}
	if current != c {
		m.mu.Unlock()
		return
	}
	delete(m.clients, id)
	for room, conns := range m.games {
		delete(conns, id)
		if len(conns) == 0 {
			delete(m.games, room)
		}
	}
	c.Close()
	m.mu.Unlock()

	l := logger.L()
	l.Debug().Str(logger.FieldConnID, id).Msg("client unregistered")

	if m.Presence.Unregister(id) {
		m.broadcastOnlineUsers()
	}
}

// ClientCount returns the number of connected clients.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *ManagerService) client(connID string) (Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[connID]
	return c, ok
}

// HandleEnvelope dispatches one event received from a client. Failures are
// reported back to that client as an error event.
func (m *ManagerService) HandleEnvelope(ctx context.Context, c Client, env models.Envelope) {
	var err error

	switch env.Event {
	case models.EventJoin:
		var req models.JoinRequest
		if err = env.Decode(&req); err == nil {
			err = m.Join(ctx, c.GetConnID(), req)
		}
	case models.EventChatMessage:
		var req models.SendRequest
		if err = env.Decode(&req); err == nil {
			err = m.Send(ctx, c.GetConnID(), req)
		}
	case models.EventChessJoin:
		var req models.ChessJoinRequest
		if err = env.Decode(&req); err == nil {
			err = m.JoinGame(c.GetConnID(), req.Room)
		}
	case models.EventChessMove:
		var req models.ChessMoveRequest
		if err = env.Decode(&req); err == nil {
			err = m.RelayMove(ctx, c.GetConnID(), req)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	if err != nil {
		code := errorCode(err)
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Str("event", env.Event).Str("code", code).Msg("event rejected")
		message := err.Error()
		if code == models.ErrCodeInternalError {
			message = ErrPersistFailed.Error()
		}
		m.sendError(c.GetConnID(), code, message)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUsernameMismatch):
		return models.ErrCodeUnauthorized
	case errors.Is(err, ErrPersistFailed):
		return models.ErrCodeInternalError
	}
	return models.ErrCodeBadRequest
}

// Join registers the presence of connID and announces the new user list.
func (m *ManagerService) Join(ctx context.Context, connID string, req models.JoinRequest) error {
	req.Normalize()
	if err := models.ValidateUsername(req.Username); err != nil {
		return err
	}

	c, ok := m.client(connID)
	if !ok {
		return ErrUnknownClient
	}
	if verified := c.GetVerifiedUsername(); verified != "" && verified != req.Username {
		return ErrUsernameMismatch
	}

	// Presence is only written while the client is still registered, so a
	// concurrent Unregister cannot leave it behind.
	m.mu.Lock()
	if current, ok := m.clients[connID]; !ok || current != c {
		m.mu.Unlock()
		return ErrUnknownClient
	}
	m.Presence.Register(connID, req.Username, req.Role)
	m.mu.Unlock()

	l := logger.Ctx(ctx)
	l.Info().Str(logger.FieldUsername, req.Username).Str("role", req.Role).Msg("user joined")

	m.broadcastOnlineUsers()
	return nil
}

// Send validates a chat message, stores it and fans it out. Sends to the same
// room are serialized, so every recipient sees them in submission order.
func (m *ManagerService) Send(ctx context.Context, connID string, req models.SendRequest) error {
	sender, err := m.resolveSender(connID, req.Sender)
	if err != nil {
		return err
	}

	body := req.Message
	if strings.TrimSpace(body) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > m.opts.MaxMessageLength {
		return ErrMessageTooLong
	}

	receiver := strings.TrimSpace(req.Receiver)
	if receiver == "" {
		receiver = models.GlobalReceiver
	}
	if receiver != models.GlobalReceiver {
		if err := models.ValidateUsername(receiver); err != nil {
			return ErrInvalidReceiver
		}
		if receiver == sender {
			return ErrSelfChat
		}
	}

	room := models.RoomFor(sender, receiver)
	unlock := m.roomLocks.Lock(room.String())
	defer unlock()

	msg := &models.ChatMessage{
		Room:     room.String(),
		Sender:   sender,
		Receiver: receiver,
		Message:  body,
	}
	if err := m.Storage.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	payload := models.OutgoingMessage{Sender: sender, Message: body, Receiver: receiver}
	m.deliverToRoom(room, payload)

	l := logger.Ctx(ctx)
	l.Debug().Str(logger.FieldRoom, msg.Room).Uint("id", msg.ID).Msg("message delivered")

	relay := models.RelayEnvelope{Origin: m.opts.InstanceID, Room: msg.Room, Payload: payload}
	if err := m.Storage.PublishMessage(ctx, relay); err != nil && !errors.Is(err, storage.ErrPubSubDisabled) {
		l.Warn().Err(err).Str(logger.FieldRoom, msg.Room).Msg("failed to relay message")
	}
	if err := m.Events.PublishPersisted(ctx, msg); err != nil {
		l.Warn().Err(err).Str(logger.FieldRoom, msg.Room).Msg("failed to publish message event")
	}
	return nil
}

// resolveSender prefers the username the connection joined as. Connections that
// never joined fall back to their verified identity, then to the claimed sender.
func (m *ManagerService) resolveSender(connID, claimed string) (string, error) {
	if s, ok := m.Presence.Lookup(connID); ok {
		return s.Username, nil
	}
	if c, ok := m.client(connID); ok && c.GetVerifiedUsername() != "" {
		return c.GetVerifiedUsername(), nil
	}

	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		return "", ErrNotJoined
	}
	if err := models.ValidateUsername(claimed); err != nil {
		return "", err
	}
	return claimed, nil
}

// deliverToRoom sends a message event to the local connections of room.
func (m *ManagerService) deliverToRoom(room models.Room, payload models.OutgoingMessage) {
	env, err := models.NewEnvelope(models.EventMessage, payload)
	if err != nil {
		return
	}

	var targets []string
	if room.IsGlobal() {
		targets = m.Presence.All()
	} else {
		targets = m.Presence.ConnectionsFor(room.A)
		targets = append(targets, m.Presence.ConnectionsFor(room.B)...)
	}
	m.deliver(targets, env)
}

// deliver writes env to each connection without blocking. Connections whose
// buffer is full are dropped.
func (m *ManagerService) deliver(connIDs []string, env models.Envelope) {
	var slow []Client

	m.mu.RLock()
	for _, id := range connIDs {
		c, ok := m.clients[id]
		if !ok {
			continue
		}
		select {
		case c.GetSendChannel() <- env:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		l := logger.L()
		l.Warn().Str(logger.FieldConnID, c.GetConnID()).Msg("send buffer full, dropping client")
		m.Unregister(c)
	}
}

func (m *ManagerService) broadcastOnlineUsers() {
	env, err := models.NewEnvelope(models.EventUpdateUsers, m.Presence.OnlineUsers())
	if err != nil {
		return
	}

	m.mu.RLock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	m.deliver(ids, env)
}

func (m *ManagerService) sendError(connID, code, message string) {
	env, err := models.NewEnvelope(models.EventError, models.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	m.deliver([]string{connID}, env)
}

// JoinGame subscribes connID to the moves of a game room.
func (m *ManagerService) JoinGame(connID, room string) error {
	room = strings.TrimSpace(room)
	if room == "" || len(room) > maxGameRoomLength {
		return ErrInvalidGameRoom
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[connID]; !ok {
		return ErrUnknownClient
	}
	conns, ok := m.games[room]
	if !ok {
		conns = make(map[string]struct{})
		m.games[room] = conns
	}
	conns[connID] = struct{}{}
	return nil
}

// RelayMove forwards a move to every other connection of the game room and then
// records it. A failed write is logged and does not undo the relay.
func (m *ManagerService) RelayMove(ctx context.Context, connID string, req models.ChessMoveRequest) error {
	room := strings.TrimSpace(req.Room)
	if room == "" || len(room) > maxGameRoomLength {
		return ErrInvalidGameRoom
	}
	if len(req.Move) == 0 || string(req.Move) == "null" {
		return ErrEmptyMove
	}

	env := models.Envelope{Event: models.EventChessMove, Data: req.Move}

	m.mu.RLock()
	targets := make([]string, 0, len(m.games[room]))
	for id := range m.games[room] {
		if id != connID {
			targets = append(targets, id)
		}
	}
	m.mu.RUnlock()
	m.deliver(targets, env)

	if err := m.Storage.SaveMove(ctx, room, req.Move, moveFEN(req.Move)); err != nil {
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Str(logger.FieldRoom, room).Msg("failed to save move")
	}
	return nil
}

// moveFEN extracts the position after the move when the client sent one.
func moveFEN(move json.RawMessage) string {
	var m struct {
		FEN string `json:"fen"`
	}
	if err := json.Unmarshal(move, &m); err != nil {
		return ""
	}
	return m.FEN
}

// Run fans out messages relayed by other instances until ctx is cancelled.
// Clients register and unregister synchronously through Register and Unregister.
func (m *ManagerService) Run(ctx context.Context) {
	relay := m.StartPubSubListener(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-relay:
			if !ok {
				relay = nil
				continue
			}
			m.handleRelay(env)
		}
	}
}
