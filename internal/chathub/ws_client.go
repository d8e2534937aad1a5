package chathub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chesshive/backend/internal/config"
	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	ConnID           string
	VerifiedUsername string
	Conn             *websocket.Conn
	Hub              *ManagerService
	Send             chan models.Envelope

	cfg       config.WebSocketConfig
	log       zerolog.Logger
	closeOnce sync.Once
}

func NewWebSocketClient(conn *websocket.Conn, hub *ManagerService, verifiedUsername string, cfg config.WebSocketConfig) *WebSocketClient {
	id := uuid.NewString()
	l := logger.L().With().Str(logger.FieldConnID, id).Logger()
	if verifiedUsername != "" {
		l = l.With().Str(logger.FieldUsername, verifiedUsername).Logger()
	}

	return &WebSocketClient{
		ConnID:           id,
		VerifiedUsername: verifiedUsername,
		Conn:             conn,
		Hub:              hub,
		Send:             make(chan models.Envelope, cfg.SendBuffer),
		cfg:              cfg,
		log:              l,
	}
}

func (c *WebSocketClient) GetConnID() string                      { return c.ConnID }
func (c *WebSocketClient) GetVerifiedUsername() string            { return c.VerifiedUsername }
func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the send channel, which makes writePump close the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	ctx := logger.WithLogger(context.Background(), c.log)

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Debug().Err(err).Msg("invalid frame")
			c.Hub.sendError(c.ConnID, models.ErrCodeBadRequest, "invalid frame")
			continue
		}

		c.Hub.HandleEnvelope(ctx, c, env)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(env); err != nil {
				c.log.Debug().Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
