package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/models"
	"github.com/sangamlabs/sangam/internal/realtime"
	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/pkg/response"
)

// AdminHandler exposes the admin dashboard endpoints.
type AdminHandler struct {
	db       *gorm.DB
	audit    *services.AuditService
	registry *realtime.Registry
}

func NewAdminHandler(db *gorm.DB, audit *services.AuditService, registry *realtime.Registry) *AdminHandler {
	return &AdminHandler{db: db, audit: audit, registry: registry}
}

// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := requestContext(c)

	var totalUsers, premiumUsers, verifiedUsers, interests int64
	if err := h.db.WithContext(ctx).Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.User{}).Where("is_premium = ?", true).Count(&premiumUsers).Error; err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.User{}).Where("is_verified = ?", true).Count(&verifiedUsers).Error; err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.Interest{}).Count(&interests).Error; err != nil {
		response.Error(c, err)
		return
	}

	liveUsers := 0
	if h.registry != nil {
		liveUsers = h.registry.Subjects()
	}

	response.Success(c, http.StatusOK, gin.H{
		"total_users":    totalUsers,
		"premium_users":  premiumUsers,
		"verified_users": verifiedUsers,
		"interests":      interests,
		"live_users":     liveUsers,
	})
}

// GET /api/admin/audit
func (h *AdminHandler) AuditLog(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)

	rows, err := h.audit.List(requestContext(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}
