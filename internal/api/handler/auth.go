package handler

import (
	"net/http"
	"strings"

	"chesshive/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

type sessionResponse struct {
	Username  *string `json:"username"`
	UserRole  *string `json:"userRole"`
	UserEmail *string `json:"userEmail"`
}

// sessionToken extracts the session token from the cookie, the Authorization
// header or the token query parameter, in that order.
func (h *Handler) sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(h.cookieName); err == nil && v != "" {
		return v
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// session returns the verified claims of the request, or nil for anonymous
// requests. A token that is present but invalid yields an error.
func (h *Handler) session(c *gin.Context) (*auth.Claims, error) {
	token := h.sessionToken(c)
	if token == "" || !h.Sessions.Enabled() {
		return nil, nil
	}
	return h.Sessions.Validate(token)
}

// GetSession reports who the caller is logged in as. Anonymous callers get a
// response with every field null.
// GET /api/session
func (h *Handler) GetSession(c *gin.Context) {
	var resp sessionResponse

	claims, err := h.session(c)
	if err == nil && claims != nil {
		resp.Username = nonEmpty(claims.Username)
		resp.UserRole = nonEmpty(claims.Role)
		resp.UserEmail = nonEmpty(claims.Email)
	}
	c.JSON(http.StatusOK, resp)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
