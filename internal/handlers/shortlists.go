package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/response"
)

// ShortlistHandler exposes the shortlist toggle and listing.
type ShortlistHandler struct {
	shortlists *services.ShortlistService
}

func NewShortlistHandler(shortlists *services.ShortlistService) *ShortlistHandler {
	return &ShortlistHandler{shortlists: shortlists}
}

// POST /api/shortlists/:id
func (h *ShortlistHandler) Toggle(c *gin.Context) {
	shortlisted, err := h.shortlists.Toggle(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shortlisted": shortlisted})
}

// GET /api/shortlists
func (h *ShortlistHandler) List(c *gin.Context) {
	users, err := h.shortlists.List(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}
