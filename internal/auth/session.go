// Package auth holds the signed-in state of one browser request: the current
// user, whether the token check has finished, and the login, register,
// logout and refresh flows that change it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
)

var ErrNoRefreshToken = errors.New("no refresh token available")

// API is the part of the backend client the session drives.
type API interface {
	Login(ctx context.Context, email, password string) (apiclient.LoginResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.RegisterResponse, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context, refreshToken string) (apiclient.RefreshResponse, error)
	ValidateToken(ctx context.Context, token string) (apiclient.ValidateResponse, error)
}

// Notifier shows a one-off message on the next rendered page.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

type Session struct {
	api     API
	storage apiclient.Storage
	notify  Notifier
	log     zerolog.Logger

	user          *apiclient.User
	loading       bool
	authenticated bool
	initialized   bool
}

func NewSession(api API, storage apiclient.Storage, notify Notifier, log zerolog.Logger) *Session {
	return &Session{
		api:     api,
		storage: storage,
		notify:  notify,
		log:     log,
		loading: true,
	}
}

func (s *Session) User() *apiclient.User { return s.user }

func (s *Session) IsLoading() bool { return s.loading }

func (s *Session) IsAuthenticated() bool { return s.authenticated }

// Initialize validates a stored access token once per request. An access
// token the backend rejects with 401 is refreshed once and validated again.
// Any other failure leaves the session signed out.
func (s *Session) Initialize(ctx context.Context) {
	if s.initialized {
		return
	}
	s.initialized = true
	defer func() { s.loading = false }()

	token, err := s.storage.Get(ctx, apiclient.AccessTokenKey)
	if err != nil {
		s.log.Error().Err(err).Msg("auth initialization error")
		s.ClearAuthData(ctx)
		return
	}
	if token == "" {
		return
	}

	resp, err := s.api.ValidateToken(ctx, token)
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		resp, err = s.revalidate(ctx, err)
	}
	if err != nil {
		s.log.Debug().Err(err).Msg("auth initialization error")
		s.ClearAuthData(ctx)
		return
	}
	if !resp.Valid || resp.User == nil {
		s.ClearAuthData(ctx)
		return
	}
	s.setUser(resp.User)
}

// revalidate trades the refresh token for a new access token and validates
// that one. With no refresh token stored it returns cause.
func (s *Session) revalidate(ctx context.Context, cause error) (apiclient.ValidateResponse, error) {
	refreshToken, err := s.storage.Get(ctx, apiclient.RefreshTokenKey)
	if err != nil {
		return apiclient.ValidateResponse{}, err
	}
	if refreshToken == "" {
		return apiclient.ValidateResponse{}, cause
	}
	token, err := s.refresh(ctx)
	if err != nil {
		return apiclient.ValidateResponse{}, fmt.Errorf("refresh after rejected token: %w", err)
	}
	return s.api.ValidateToken(ctx, token)
}

func (s *Session) Login(ctx context.Context, email, password string) (apiclient.LoginResponse, error) {
	s.loading = true
	defer func() { s.loading = false }()

	resp, err := s.api.Login(ctx, email, password)
	if err == nil {
		err = s.storeTokens(ctx, resp.AccessToken, resp.RefreshToken)
	}
	if err != nil {
		s.notify.Error(ctx, apiclient.MessageOr(err, "Login failed"))
		return apiclient.LoginResponse{}, err
	}

	user := resp.User
	s.setUser(&user)
	s.notify.Success(ctx, fmt.Sprintf("Welcome back, %s!", user.FirstName))
	return resp, nil
}

func (s *Session) storeTokens(ctx context.Context, access, refresh string) error {
	if err := s.storage.Set(ctx, apiclient.AccessTokenKey, access); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.storage.Set(ctx, apiclient.RefreshTokenKey, refresh); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Register creates the account without signing in.
func (s *Session) Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.RegisterResponse, error) {
	s.loading = true
	defer func() { s.loading = false }()

	resp, err := s.api.Register(ctx, req)
	if err != nil {
		s.notify.Error(ctx, apiclient.MessageOr(err, "Registration failed"))
		return apiclient.RegisterResponse{}, err
	}
	s.notify.Success(ctx, "Registration successful! Please login to continue.")
	return resp, nil
}

// Logout always ends signed out, whatever the backend said.
func (s *Session) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Error().Err(err).Msg("logout error")
	}
	s.ClearAuthData(ctx)
	s.notify.Success(ctx, "Logged out successfully")
}

// RefreshToken trades the stored refresh token for a new access token and
// returns it. Any failure signs the session out.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	token, err := s.refresh(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("token refresh error")
		s.ClearAuthData(ctx)
		return "", err
	}
	return token, nil
}

func (s *Session) refresh(ctx context.Context) (string, error) {
	refreshToken, err := s.storage.Get(ctx, apiclient.RefreshTokenKey)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}
	resp, err := s.api.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if err := s.storage.Set(ctx, apiclient.AccessTokenKey, resp.AccessToken); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (s *Session) UpdateUser(user apiclient.User) {
	s.user = &user
}

// ClearAuthData drops both tokens and the in-memory user.
func (s *Session) ClearAuthData(ctx context.Context) {
	if err := s.storage.Remove(ctx, apiclient.AccessTokenKey, apiclient.RefreshTokenKey); err != nil {
		s.log.Error().Err(err).Msg("clear tokens failed")
	}
	s.user = nil
	s.authenticated = false
}

func (s *Session) setUser(user *apiclient.User) {
	s.user = user
	s.authenticated = true
}
