package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/cache"
	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/models"
	"github.com/ariffaisalsheam/menux-app/internal/queue"
	"github.com/ariffaisalsheam/menux-app/internal/repository"
	"github.com/ariffaisalsheam/menux-app/internal/security"
)

// AccountService covers self-service profile and password changes.
type AccountService struct {
	users    UserStore
	sessions SessionStore
	resets   ResetTokenStore
	tasks    TaskQueue
	hasher   *security.PasswordHasher
	resetTTL time.Duration
	log      zerolog.Logger
}

func NewAccountService(
	users UserStore,
	sessions SessionStore,
	resets ResetTokenStore,
	tasks TaskQueue,
	hasher *security.PasswordHasher,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		sessions: sessions,
		resets:   resets,
		tasks:    tasks,
		hasher:   hasher,
		resetTTL: cfg.ResetTokenTTL,
		log:      log,
	}
}

type ProfileInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

func (s *AccountService) UpdateProfile(ctx context.Context, user models.User, input ProfileInput) (models.User, error) {
	user.Email = normalizeEmail(input.Email)
	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.Phone = optional(input.Phone)

	updated, err := s.users.UpdateProfile(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

// ChangePassword verifies the current password, stores the new one and ends
// every other session of the user.
func (s *AccountService) ChangePassword(ctx context.Context, user models.User, currentSessionID, current, next string) error {
	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.sessions.DeleteByUser(ctx, user.ID, currentSessionID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Int64("revoked_sessions", revoked).Msg("password changed")
	return nil
}

// RequestPasswordReset never reports whether the email is known.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	token, hash, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}
	if err := s.resets.Save(ctx, hash, user.ID, s.resetTTL); err != nil {
		return err
	}

	if s.tasks != nil {
		err := s.tasks.Enqueue(ctx, queue.Task{
			Type: queue.TaskPasswordResetEmail,
			Data: map[string]string{
				"email":     user.Email,
				"firstName": user.FirstName,
				"token":     token,
			},
		})
		if err != nil {
			return fmt.Errorf("enqueue reset mail: %w", err)
		}
	}
	return nil
}

func (s *AccountService) ResetPassword(ctx context.Context, token, next string) error {
	userID, err := s.resets.Consume(ctx, security.HashToken(token))
	if err != nil {
		if errors.Is(err, cache.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("update password: %w", err)
	}

	if _, err := s.sessions.DeleteByUser(ctx, userID, ""); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("password reset")
	return nil
}

func (s *AccountService) Stats(ctx context.Context) (models.UserStats, error) {
	return s.users.Stats(ctx)
}
