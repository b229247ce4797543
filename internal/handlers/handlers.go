package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/middleware"
	"github.com/ariffaisalsheam/menux-app/internal/models"
	"github.com/ariffaisalsheam/menux-app/internal/security"
	"github.com/ariffaisalsheam/menux-app/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (models.User, error)
	Login(ctx context.Context, input service.LoginInput) (service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (service.RefreshResult, error)
	Authenticate(ctx context.Context, token string) (models.User, *security.AccessClaims, error)
	Logout(ctx context.Context, claims *security.AccessClaims) error
}

type AccountService interface {
	UpdateProfile(ctx context.Context, user models.User, input service.ProfileInput) (models.User, error)
	ChangePassword(ctx context.Context, user models.User, currentSessionID, current, next string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, next string) error
	Stats(ctx context.Context) (models.UserStats, error)
}

type AvatarService interface {
	Upload(ctx context.Context, user models.User, file io.Reader, declared string) (models.User, error)
}

// HealthCheck reports the reachability of one dependency.
type HealthCheck func(ctx context.Context) error

type HandlerSet struct {
	log           zerolog.Logger
	environment   string
	auth          AuthService
	account       AccountService
	avatars       AvatarService
	maxAvatarSize int64
	limiter       *middleware.IPRateLimiter
	checks        map[string]HealthCheck
}

type Options struct {
	Environment   string
	MaxAvatarSize int64
	Limiter       *middleware.IPRateLimiter
	Checks        map[string]HealthCheck
}

func NewHandlerSet(log zerolog.Logger, auth AuthService, account AccountService, avatars AvatarService, opts Options) HandlerSet {
	if opts.MaxAvatarSize <= 0 {
		opts.MaxAvatarSize = 2 << 20
	}
	return HandlerSet{
		log:           log,
		environment:   opts.Environment,
		auth:          auth,
		account:       account,
		avatars:       avatars,
		maxAvatarSize: opts.MaxAvatarSize,
		limiter:       opts.Limiter,
		checks:        opts.Checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	limited := []gin.HandlerFunc{}
	if h.limiter != nil {
		limited = append(limited, middleware.RateLimit(h.limiter))
	}

	auth := router.Group("/auth")
	{
		forms := auth.Group("", limited...)
		forms.POST("/login", h.Login)
		forms.POST("/register", h.RegisterUser)
		forms.POST("/forgot-password", h.ForgotPassword)
		forms.POST("/reset-password", h.ResetPassword)

		auth.POST("/refresh", h.Refresh)
		auth.POST("/validate", h.Validate)
		auth.POST("/logout", middleware.OptionalAuth(h.auth), h.Logout)

		protected := auth.Group("", middleware.Auth(h.auth))
		protected.GET("/me", h.Me)
		protected.PUT("/profile", h.UpdateProfile)
		protected.PUT("/change-password", h.ChangePassword)
		protected.POST("/avatar", h.UploadAvatar)
	}

	admin := router.Group("/admin",
		middleware.Auth(h.auth),
		middleware.RequireRoles(models.RoleSuperAdmin),
	)
	admin.GET("/stats", h.AdminStats)
}
