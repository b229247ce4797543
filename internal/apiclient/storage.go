package apiclient

import "context"

// Keys under which the two tokens are persisted in the browser session.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Storage is the per-browser key/value store holding the tokens. Get returns
// an empty string and no error for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

func clearTokens(ctx context.Context, s Storage) error {
	return s.Remove(ctx, AccessTokenKey, RefreshTokenKey)
}
