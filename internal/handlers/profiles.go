package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangamlabs/sangam/internal/middleware"
	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/errors"
	"github.com/sangamlabs/sangam/pkg/response"
)

// ProfileHandler exposes profile browsing and management endpoints.
type ProfileHandler struct {
	profiles *services.ProfileService
	users    *services.UserService
}

func NewProfileHandler(profiles *services.ProfileService, users *services.UserService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, users: users}
}

// GET /api/profiles
func (h *ProfileHandler) List(c *gin.Context) {
	users, err := h.profiles.List(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/profiles/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	viewerID := currentUserID(c)
	viewerName := ""
	if viewerID != "" {
		viewer, err := h.users.Get(requestContext(c), viewerID)
		if err != nil {
			// Admin tokens have no user row; their reads are not counted.
			viewerID = ""
		} else {
			viewerName = viewer.Name
		}
	}

	user, err := h.profiles.Get(requestContext(c), c.Param("id"), viewerID, viewerName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PUT /api/profiles/:id
func (h *ProfileHandler) Update(c *gin.Context) {
	targetID := c.Param("id")
	if targetID != currentUserID(c) && !c.GetBool(middleware.CtxIsAdmin) {
		response.Error(c, errors.ErrForbidden)
		return
	}

	var req services.UpdateProfileInput
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.profiles.Update(requestContext(c), targetID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/profiles/:id
func (h *ProfileHandler) Delete(c *gin.Context) {
	targetID := c.Param("id")
	if targetID != currentUserID(c) && !c.GetBool(middleware.CtxIsAdmin) {
		response.Error(c, errors.ErrForbidden)
		return
	}

	if err := h.profiles.Delete(requestContext(c), targetID); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "profile deleted", nil)
}

type activatePremiumRequest struct {
	PremiumExpiryDate time.Time `json:"premium_expiry_date" validate:"required"`
}

// POST /api/profiles/:id/premium
func (h *ProfileHandler) ActivatePremium(c *gin.Context) {
	targetID := c.Param("id")
	if targetID != currentUserID(c) && !c.GetBool(middleware.CtxIsAdmin) {
		response.Error(c, errors.ErrForbidden)
		return
	}

	var req activatePremiumRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.profiles.ActivatePremium(requestContext(c), targetID, req.PremiumExpiryDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
