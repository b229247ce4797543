package config

import (
	"time"

	"github.com/spf13/viper"
)

type APIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Backend    string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// WebConfig configures the front-end server.
type WebConfig struct {
	Environment string
	HTTP        HTTPConfig
	Redis       RedisConfig
	API         APIClientConfig
	Session     SessionConfig
}

func LoadWeb() (*WebConfig, error) {
	var cfg WebConfig
	if err := load("web", "MENUX_WEB", setWebDefaults, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setWebDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 1)

	v.SetDefault("api.baseurl", "http://127.0.0.1:8080/api")
	v.SetDefault("api.timeout", "10s")

	v.SetDefault("session.backend", "redis")
	v.SetDefault("session.cookiename", "menux_sid")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.secure", false)
}
