package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"userauth/api/internal/config"
	"userauth/api/internal/metrics"
	"userauth/api/internal/middleware"
	"userauth/api/internal/response"
	"userauth/api/internal/security"
	"userauth/api/internal/service"
)

// Pinger is a dependency the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators shared by all handlers. Avatars, Cache,
// Storage and Metrics are optional.
type Dependencies struct {
	Auth    *service.AuthService
	Avatars *service.AvatarService
	Tokens  middleware.AccessVerifier
	Revoked security.RevocationList
	Store   Pinger
	Cache   Pinger
	Storage Pinger
	Metrics *metrics.Metrics
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	avatars     *service.AvatarService
	tokens      middleware.AccessVerifier
	revoked     security.RevocationList
	store       Pinger
	cache       Pinger
	storage     Pinger
	metrics     *metrics.Metrics
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	revoked := deps.Revoked
	if revoked == nil {
		revoked = security.NopRevocationList{}
	}

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: deps.Auth,
		avatars:     deps.Avatars,
		tokens:      deps.Tokens,
		revoked:     revoked,
		store:       deps.Store,
		cache:       deps.Cache,
		storage:     deps.Storage,
		metrics:     deps.Metrics,
	}
}

func (h HandlerSet) Register(router gin.IRouter) {
	router.GET("/healthz", h.Health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	requireAuth := middleware.Auth(h.tokens, h.revoked, h.log)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh-token", h.RefreshToken)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password/:token", h.ResetPassword)

		protected := v1.Group("/auth")
		protected.Use(requireAuth)
		protected.POST("/logout", h.Logout)
		protected.GET("/check-auth", h.CheckAuth)
		protected.GET("/profile", h.Profile)
		protected.PUT("/update-profile", h.UpdateProfile)
		protected.PUT("/change-password", h.ChangePassword)
		if h.avatars != nil {
			protected.PUT("/profile/image", h.UploadProfileImage)
		}
	}

	user := v1.Group("/user")
	user.Use(requireAuth)
	user.GET("/profile", h.Profile)
	user.PUT("/update-profile", h.UpdateProfile)
}

// identity returns the caller resolved by middleware.Auth. Routes without
// the middleware never reach handlers that call it.
func (h HandlerSet) identity(c *gin.Context) (middleware.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		h.log.Error().Err(errMissingIdentity).Str("route", c.FullPath()).Msg("request failed")
		response.Internal(c, errMissingIdentity)
	}
	return identity, ok
}
