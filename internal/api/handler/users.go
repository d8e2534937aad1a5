package handler

import (
	"net/http"
	"strings"

	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

// ListUsers searches the directory by role and username substring.
// GET /api/users?role=<role>&q=<substring>
func (h *Handler) ListUsers(c *gin.Context) {
	filter := models.UserFilter{
		Role:  strings.ToLower(strings.TrimSpace(c.Query("role"))),
		Query: strings.TrimSpace(c.Query("q")),
		Limit: h.chatCfg.DirectoryLimit,
	}

	ctx := c.Request.Context()
	users, err := h.Storage.ListUsers(ctx, filter)
	if err != nil {
		l := logger.Ctx(ctx)
		l.Error().Err(err).Str("role", filter.Role).Msg("user search failed")
		respondError(c, http.StatusInternalServerError, "Unexpected server error")
		return
	}

	list := make([]userResponse, 0, len(users))
	for _, u := range users {
		r := userResponse{ID: u.ID, Username: u.Username, Role: u.Role}
		if u.Email != "" {
			email := u.Email
			r.Email = &email
		}
		list = append(list, r)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": list})
}
