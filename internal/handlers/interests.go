package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/response"
)

// InterestHandler exposes interest endpoints.
type InterestHandler struct {
	interests *services.InterestService
}

func NewInterestHandler(interests *services.InterestService) *InterestHandler {
	return &InterestHandler{interests: interests}
}

type sendInterestRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
}

type interestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}

// POST /api/interests
func (h *InterestHandler) Send(c *gin.Context) {
	var req sendInterestRequest
	if !bindAndValidate(c, &req) {
		return
	}

	interest, err := h.interests.Send(requestContext(c), currentUserID(c), req.ReceiverID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, interest)
}

// PUT /api/interests/:id
func (h *InterestHandler) UpdateStatus(c *gin.Context) {
	var req interestStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	interest, err := h.interests.UpdateStatus(requestContext(c), c.Param("id"), currentUserID(c), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, interest)
}

// GET /api/interests/sent
func (h *InterestHandler) Sent(c *gin.Context) {
	interests, err := h.interests.Sent(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, interests)
}

// GET /api/interests/received
func (h *InterestHandler) Received(c *gin.Context) {
	interests, err := h.interests.Received(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, interests)
}
