package handler

import (
	"net/http"

	"chesshive/backend/internal/chathub"
	"chesshive/backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

// checkOrigin accepts same-origin requests, clients without an Origin header
// and the configured front-end origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins["*"]; ok {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// ServeWebSocket upgrades the request and hands the connection to the hub.
// A valid session token pins the username the connection may join as.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	claims, err := h.session(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid token or expired")
		return
	}
	var verified string
	if claims != nil {
		verified = claims.Username
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		l := logger.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Hub, verified, h.wsCfg)
	h.Hub.Register(client)
	client.Run()
}
