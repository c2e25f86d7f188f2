package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/response"
)

// ChatHandler exposes direct messaging endpoints.
type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Text       string `json:"text"`
	Attachment string `json:"attachment"`
}

// POST /api/chat/messages
func (h *ChatHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	message, err := h.chat.Send(requestContext(c), currentUserID(c), req.ReceiverID, req.Text, req.Attachment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, message)
}

// GET /api/chat/conversations/:id
func (h *ChatHandler) Conversation(c *gin.Context) {
	messages, err := h.chat.Conversation(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, messages)
}

// PUT /api/chat/conversations/:id/read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	marked, err := h.chat.MarkConversationRead(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"marked": marked})
}

// GET /api/chat/unread-count
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	count, err := h.chat.UnreadCount(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": count})
}
