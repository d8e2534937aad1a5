package handler

import (
	"net/http"
	"strconv"
	"strings"

	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// GetHistory returns a page of a room's messages, newest first.
// GET /api/chat/history?room=<key>&limit=<n>&before=<id>
func (h *Handler) GetHistory(c *gin.Context) {
	key := strings.TrimSpace(c.DefaultQuery("room", models.GlobalRoomKey))
	if key == "" {
		key = models.GlobalRoomKey
	}
	room, err := models.ParseRoom(key)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid room")
		return
	}

	var page models.Page
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		page.Limit = limit
	}
	if v := c.Query("before"); v != "" {
		before, err := strconv.ParseUint(v, 10, 64)
		if err != nil || before == 0 {
			respondError(c, http.StatusBadRequest, "before must be a message id")
			return
		}
		page.Before = uint(before)
	}

	ctx := c.Request.Context()
	history, err := h.Storage.QueryByRoom(ctx, room, page)
	if err != nil {
		l := logger.Ctx(ctx)
		l.Error().Err(err).Str(logger.FieldRoom, key).Msg("chat history query failed")
		respondError(c, http.StatusInternalServerError, "Unexpected server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}

// GetContacts returns the recent private conversations of a user.
// GET /api/chat/contacts?username=<u>
func (h *Handler) GetContacts(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		respondError(c, http.StatusBadRequest, "username required")
		return
	}

	ctx := c.Request.Context()
	contacts, err := h.Storage.ContactsFor(ctx, username)
	if err != nil {
		l := logger.Ctx(ctx)
		l.Error().Err(err).Str(logger.FieldUsername, username).Msg("chat contacts query failed")
		respondError(c, http.StatusInternalServerError, "Unexpected server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "contacts": contacts})
}
