package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Minute, cfg.Security.JWTAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Security.RefreshTTL)
	assert.Equal(t, int64(2<<20), cfg.Storage.MaxAvatarSize)
	assert.Equal(t, "menux:tasks", cfg.Queue.Stream)
	assert.Empty(t, cfg.Security.JWTAccessSecret)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MENUX_SECURITY_JWTACCESSSECRET", "s3cret")
	t.Setenv("MENUX_HTTP_PORT", "9090")
	t.Setenv("MENUX_SECURITY_JWTACCESSTTL", "5m")
	t.Setenv("MENUX_ALLOWCORSORIGINS", "http://localhost:3000,https://menux.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Security.JWTAccessSecret)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Security.JWTAccessTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://menux.app"}, cfg.AllowCORSOrigins)
}

func TestLoadWeb(t *testing.T) {
	t.Setenv("MENUX_WEB_API_BASEURL", "http://api.internal/api")
	t.Setenv("MENUX_WEB_SESSION_BACKEND", "memory")

	cfg, err := LoadWeb()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, "http://api.internal/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "menux_sid", cfg.Session.CookieName)
	assert.Equal(t, 168*time.Hour, cfg.Session.TTL)
}

func TestLoadWorker(t *testing.T) {
	t.Setenv("MENUX_WORKER_MAIL_SMTPHOST", "smtp.example.com")

	cfg, err := LoadWorker()
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.Mail.SMTPHost)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, "menux-workers", cfg.Redis.Group)
	assert.Equal(t, 30*time.Second, cfg.Queues.ClaimInterval)
	assert.Equal(t, int64(5), cfg.Queues.MaxDeliveries)
	assert.Equal(t, "menux:tasks:dead", cfg.Queues.DeadLetterStream)
}
