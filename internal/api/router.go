package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/sangamlabs/sangam/internal/app"
	iauth "github.com/sangamlabs/sangam/internal/auth"
	"github.com/sangamlabs/sangam/internal/handlers"
	"github.com/sangamlabs/sangam/internal/middleware"
	"github.com/sangamlabs/sangam/internal/realtime"
	"github.com/sangamlabs/sangam/internal/services"
	"github.com/sangamlabs/sangam/internal/storage"
)

// Services bundles the constructed service layer for route registration.
type Services struct {
	Users         *services.UserService
	Profiles      *services.ProfileService
	Interests     *services.InterestService
	Shortlists    *services.ShortlistService
	Chat          *services.ChatService
	Notifications *services.NotificationService
	Audit         *services.AuditService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config, jwt *iauth.JWTService, svcs Services, registry *realtime.Registry, hub *realtime.Hub, store *storage.LocalStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svcs.Users)

	// Public auth routes
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/admin/login", authHandler.AdminLogin)
	}

	// Websocket endpoints authenticate via query token inside the handler.
	realtimeHandler := handlers.NewRealtimeHandler(hub, jwt)
	r.GET("/ws/user", realtimeHandler.UserStream)
	r.GET("/ws/admin", realtimeHandler.AdminStream)

	// Uploaded files are served statically.
	if store != nil {
		r.Static(trimBaseURL(cfg.Uploads.BaseURL), store.Dir())
	}

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	profileHandler := handlers.NewProfileHandler(svcs.Profiles, svcs.Users)
	profiles := api.Group("/profiles")
	{
		profiles.GET("", profileHandler.List)
		profiles.GET("/:id", profileHandler.Get)
		profiles.PUT("/:id", profileHandler.Update)
		profiles.DELETE("/:id", profileHandler.Delete)
		profiles.POST("/:id/premium", profileHandler.ActivatePremium)
	}

	interestHandler := handlers.NewInterestHandler(svcs.Interests)
	interests := api.Group("/interests")
	{
		interests.POST("", interestHandler.Send)
		interests.PUT("/:id", interestHandler.UpdateStatus)
		interests.GET("/sent", interestHandler.Sent)
		interests.GET("/received", interestHandler.Received)
	}

	shortlistHandler := handlers.NewShortlistHandler(svcs.Shortlists)
	shortlists := api.Group("/shortlists")
	{
		shortlists.GET("", shortlistHandler.List)
		shortlists.POST("/:id", shortlistHandler.Toggle)
	}

	chatHandler := handlers.NewChatHandler(svcs.Chat)
	chat := api.Group("/chat")
	{
		chat.POST("/messages", chatHandler.Send)
		chat.GET("/conversations/:id", chatHandler.Conversation)
		chat.PUT("/conversations/:id/read", chatHandler.MarkRead)
		chat.GET("/unread-count", chatHandler.UnreadCount)
	}

	notificationHandler := handlers.NewNotificationHandler(svcs.Notifications)
	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.PUT("/read-all", notificationHandler.MarkAllRead)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
	}

	if store != nil {
		uploadHandler := handlers.NewUploadHandler(store)
		api.POST("/uploads", uploadHandler.Upload)
	}

	adminHandler := handlers.NewAdminHandler(db, svcs.Audit, registry)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminOnly())
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/audit", adminHandler.AuditLog)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func trimBaseURL(baseURL string) string {
	if baseURL == "" {
		return "/uploads"
	}
	return baseURL
}
