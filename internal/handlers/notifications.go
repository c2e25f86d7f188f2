package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/response"
)

// NotificationHandler exposes the notification inbox.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	rows, err := h.notifications.ListForUser(requestContext(c), currentUserID(c), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	row, err := h.notifications.MarkRead(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, row)
}

// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(requestContext(c), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "all notifications marked read", nil)
}
