package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/sangamlabs/sangam/internal/auth"
	"github.com/sangamlabs/sangam/internal/realtime"
	"github.com/sangamlabs/sangam/pkg/errors"
	"github.com/sangamlabs/sangam/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into authenticated WebSocket
// streams. Browsers cannot set headers on websocket requests, so the token is
// also accepted as a query parameter.
type RealtimeHandler struct {
	hub *realtime.Hub
	jwt *iauth.JWTService
}

func NewRealtimeHandler(hub *realtime.Hub, jwt *iauth.JWTService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt}
}

// GET /ws/user
func (h *RealtimeHandler) UserStream(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	h.hub.ServeUser(claims.UserID, c.Writer, c.Request)
}

// GET /ws/admin
func (h *RealtimeHandler) AdminStream(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}
	if !claims.IsAdmin {
		response.Error(c, errors.ErrForbidden)
		return
	}
	h.hub.ServeAdmin(claims.UserID, c.Writer, c.Request)
}

func (h *RealtimeHandler) authenticate(c *gin.Context) (*iauth.Claims, bool) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}
	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return nil, false
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
