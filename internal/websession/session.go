// Package websession ties a browser to server-side storage through a cookie.
// The stored values hold the backend tokens and pending flash messages.
package websession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/config"
)

const (
	contextKey = "web_session"
	flashKey   = "flash"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is one browser's view of the Store.
type Session struct {
	id    string
	store Store
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.id, key)
}

func (s *Session) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.id, key, value)
}

func (s *Session) Remove(ctx context.Context, keys ...string) error {
	return s.store.Remove(ctx, s.id, keys...)
}

func (s *Session) Success(ctx context.Context, message string) {
	s.addFlash(ctx, Flash{Kind: FlashSuccess, Message: message})
}

func (s *Session) Error(ctx context.Context, message string) {
	s.addFlash(ctx, Flash{Kind: FlashError, Message: message})
}

// addFlash drops the message when storage fails; a lost toast is not worth
// failing the request over.
func (s *Session) addFlash(ctx context.Context, f Flash) {
	flashes, _ := s.readFlashes(ctx)
	raw, err := json.Marshal(append(flashes, f))
	if err != nil {
		return
	}
	_ = s.Set(ctx, flashKey, string(raw))
}

// PopFlashes returns the pending flash messages and clears them.
func (s *Session) PopFlashes(ctx context.Context) []Flash {
	flashes, err := s.readFlashes(ctx)
	if err != nil || len(flashes) == 0 {
		return nil
	}
	_ = s.Remove(ctx, flashKey)
	return flashes
}

func (s *Session) readFlashes(ctx context.Context) ([]Flash, error) {
	raw, err := s.Get(ctx, flashKey)
	if err != nil || raw == "" {
		return nil, err
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil, fmt.Errorf("decode flashes: %w", err)
	}
	return flashes, nil
}

// NewStore picks the backend named by cfg.Backend.
func NewStore(cfg config.SessionConfig, client *redis.Client) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "redis", "":
		if client == nil {
			return nil, fmt.Errorf("redis session backend needs a redis client")
		}
		return NewRedisStore(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	log        zerolog.Logger
}

func NewManager(cfg config.SessionConfig, store Store, log zerolog.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "menux_sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		log:        log,
	}
}

// Middleware binds a Session to every request, minting a new id when the
// cookie is missing or not a UUID, and refreshes the cookie lifetime.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(m.cookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		} else if err := m.store.Touch(c.Request.Context(), sid); err != nil {
			m.log.Warn().Err(err).Msg("session touch failed")
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(m.cookieName, sid, int(m.ttl/time.Second), "/", "", m.secure, true)
		c.Set(contextKey, &Session{id: sid, store: m.store})
		c.Next()
	}
}

// FromContext returns the request's Session. It panics when the middleware
// is not installed.
func FromContext(c *gin.Context) *Session {
	return c.MustGet(contextKey).(*Session)
}

func Lookup(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}
