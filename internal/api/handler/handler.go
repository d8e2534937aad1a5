// Package handler exposes the chat REST endpoints and the websocket upgrade.
package handler

import (
	"net/http"

	"chesshive/backend/internal/auth"
	"chesshive/backend/internal/chathub"
	"chesshive/backend/internal/config"
	"chesshive/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler holds the dependencies of the HTTP surface.
type Handler struct {
	Hub      *chathub.ManagerService
	Storage  storage.Storage
	Sessions *auth.Manager

	wsCfg      config.WebSocketConfig
	chatCfg    config.ChatConfig
	cookieName string
	origins    map[string]struct{}
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, sessions *auth.Manager, cfg *config.Config) *Handler {
	origins := make(map[string]struct{}, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		origins[o] = struct{}{}
	}
	return &Handler{
		Hub:        hub,
		Storage:    s,
		Sessions:   sessions,
		wsCfg:      cfg.WebSocket,
		chatCfg:    cfg.Chat,
		cookieName: cfg.Auth.CookieName,
		origins:    origins,
	}
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	r.GET("/ws", h.ServeWebSocket)
	r.GET("/socket.io/", h.ServeWebSocket)

	api := r.Group("/api")
	{
		api.GET("/session", h.GetSession)
		api.GET("/users", h.ListUsers)

		chat := api.Group("/chat")
		chat.GET("/history", h.GetHistory)
		chat.GET("/contacts", h.GetContacts)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": h.Hub.ClientCount()})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
