package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/ids"
	"github.com/ariffaisalsheam/menux-app/internal/models"
	"github.com/ariffaisalsheam/menux-app/internal/queue"
	"github.com/ariffaisalsheam/menux-app/internal/repository"
	"github.com/ariffaisalsheam/menux-app/internal/security"
)

type AuthService struct {
	users     UserStore
	sessions  SessionStore
	blacklist TokenBlacklist
	tasks     TaskQueue
	tokens    *security.TokenIssuer
	hasher    *security.PasswordHasher
	cfg       config.SecurityConfig
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	blacklist TokenBlacklist,
	tasks TaskQueue,
	tokens *security.TokenIssuer,
	hasher *security.PasswordHasher,
	cfg config.SecurityConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		tasks:     tasks,
		tokens:    tokens,
		hasher:    hasher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Register creates an active restaurant owner. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        normalizeEmail(input.Email),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        optional(input.Phone),
		Role:         models.RoleRestaurantOwner,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	s.enqueue(ctx, queue.Task{
		Type: queue.TaskWelcomeEmail,
		Data: map[string]string{"email": user.Email, "firstName": user.FirstName},
	})
	return user, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         models.User
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("password hash unreadable")
		return LoginResult{}, ErrInvalidCredentials
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return LoginResult{}, ErrAccountInactive
	}

	refreshToken, refreshHash, err := security.GenerateOpaqueToken(48)
	if err != nil {
		return LoginResult{}, err
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: refreshHash,
		IPAddress:        input.IPAddress,
		UserAgent:        input.UserAgent,
		ExpiresAt:        s.now().Add(s.cfg.RefreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	if err := s.enforceSessionLimit(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("enforce session limit failed")
	}

	accessToken, _, err := s.tokens.Issue(user.ID, session.ID, string(user.Role), user.Email)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
		User:         user,
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, userID string) error {
	if s.cfg.MaxSessions <= 0 {
		return nil
	}
	count, err := s.sessions.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if count <= s.cfg.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldestSessions(ctx, userID, s.cfg.MaxSessions)
}

type RefreshResult struct {
	AccessToken string
	ExpiresIn   int64
}

// Refresh issues a new access token for the session owning refreshToken. The
// refresh token itself stays valid until the session expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	if refreshToken == "" {
		return RefreshResult{}, ErrInvalidRefreshToken
	}

	session, err := s.sessions.FindByRefreshHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return RefreshResult{}, ErrInvalidRefreshToken
		}
		return RefreshResult{}, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return RefreshResult{}, ErrUserUnavailable
		}
		return RefreshResult{}, err
	}
	if !user.IsActive {
		return RefreshResult{}, ErrUserUnavailable
	}

	accessToken, _, err := s.tokens.Issue(user.ID, session.ID, string(user.Role), user.Email)
	if err != nil {
		return RefreshResult{}, err
	}

	if err := s.sessions.Touch(ctx, session.ID, "", ""); err != nil {
		s.log.Debug().Err(err).Str("session_id", session.ID).Msg("touch session failed")
	}

	return RefreshResult{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Authenticate resolves an access token to its active user. The token must
// be unrevoked and its session must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, *security.AccessClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, nil, ErrInvalidToken
	}

	revoked, err := s.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return models.User{}, nil, err
	}
	if revoked {
		return models.User{}, nil, ErrTokenRevoked
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, nil, ErrTokenRevoked
		}
		return models.User{}, nil, err
	}
	if session.UserID != claims.UserID {
		return models.User{}, nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, nil, ErrUserUnavailable
		}
		return models.User{}, nil, err
	}
	if !user.IsActive {
		return models.User{}, nil, ErrUserUnavailable
	}

	return user, claims, nil
}

// Logout ends the session behind claims and revokes the access token for the
// rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *security.AccessClaims) error {
	if claims == nil {
		return nil
	}

	if err := s.sessions.DeleteByID(ctx, claims.SessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}

	if claims.ExpiresAt != nil {
		ttl := claims.ExpiresAt.Sub(s.now())
		if err := s.blacklist.Add(ctx, claims.ID, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (s *AuthService) enqueue(ctx context.Context, task queue.Task) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		s.log.Warn().Err(err).Str("task", task.Type).Msg("enqueue task failed")
	}
}
