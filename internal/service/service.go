package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ariffaisalsheam/menux-app/internal/models"
	"github.com/ariffaisalsheam/menux-app/internal/queue"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrEmailTaken          = errors.New("email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserUnavailable     = errors.New("user not found or inactive")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrUnsupportedMedia    = errors.New("unsupported image type")
	ErrFileTooLarge        = errors.New("file too large")
)

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, user models.User) (models.User, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	UpdateAvatar(ctx context.Context, id string, avatarURL string) (models.User, error)
	Stats(ctx context.Context) (models.UserStats, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	DeleteOldestSessions(ctx context.Context, userID string, keepLatest int) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string, keepID string) (int64, error)
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

type TokenBlacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

type ResetTokenStore interface {
	Save(ctx context.Context, hash []byte, userID string, ttl time.Duration) error
	Consume(ctx context.Context, hash []byte) (string, error)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}
