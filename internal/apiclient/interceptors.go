package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/metrics"
)

// Middleware wraps a RoundTripper.
type Middleware func(next http.RoundTripper) http.RoundTripper

type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base so the first middleware sees the request first.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// BearerToken sets the Authorization header from the stored access token.
// A request that already carries one is left alone.
func BearerToken(storage Storage) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "" {
				return next.RoundTrip(req)
			}
			token, err := storage.Get(req.Context(), AccessTokenKey)
			if err != nil {
				return nil, fmt.Errorf("read access token: %w", err)
			}
			if token == "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(req)
		})
	}
}

// RefreshFunc exchanges a refresh token for a new access token.
type RefreshFunc func(ctx context.Context, refreshToken string) (string, error)

type RefreshOptions struct {
	Storage Storage
	Refresh RefreshFunc
	// OnExpired runs after the tokens were cleared because the session could
	// not be recovered.
	OnExpired func()
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
}

type retriedKey struct{}

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func retried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// RefreshOn401 makes one refresh attempt when a request that has not been
// replayed yet comes back 401, then replays it once with the new token.
// Concurrent 401s each refresh on their own.
func RefreshOn401(opts RefreshOptions) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized || retried(req.Context()) {
				return resp, err
			}
			ctx := req.Context()

			refreshToken, err := opts.Storage.Get(ctx, RefreshTokenKey)
			if err != nil {
				return resp, nil
			}
			if refreshToken == "" {
				drain(resp)
				opts.observe(metrics.RefreshNoToken)
				return nil, opts.expire(ctx, errNoRefreshToken)
			}

			accessToken, err := opts.Refresh(ctx, refreshToken)
			if err == nil {
				err = opts.Storage.Set(ctx, AccessTokenKey, accessToken)
			}
			if err != nil {
				drain(resp)
				opts.observe(metrics.RefreshFailed)
				return nil, opts.expire(ctx, err)
			}
			opts.observe(metrics.RefreshSucceeded)

			replay, err := rewind(req.Clone(markRetried(ctx)))
			if err != nil {
				return resp, nil
			}
			drain(resp)
			replay.Header.Set("Authorization", "Bearer "+accessToken)
			return next.RoundTrip(replay)
		})
	}
}

func (o RefreshOptions) observe(outcome string) {
	if o.Metrics != nil {
		o.Metrics.TokenRefresh(outcome)
	}
}

func (o RefreshOptions) expire(ctx context.Context, cause error) error {
	o.Log.Warn().Err(cause).Msg("token refresh failed, clearing session")
	if err := clearTokens(ctx, o.Storage); err != nil {
		o.Log.Error().Err(err).Msg("clear tokens failed")
	}
	if o.OnExpired != nil {
		o.OnExpired()
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}

// rewind gives the replayed request a fresh body. Requests whose body cannot
// be recreated are not replayed.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	req.Body = body
	return req, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}

// Logging writes one debug line per backend call.
func Logging(log zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			event := log.Debug()
			if err != nil {
				event = log.Warn().Err(err)
			} else {
				event = event.Int("status", resp.StatusCode)
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Bool("retried", retried(req.Context())).
				Dur("latency", time.Since(start)).
				Msg("api call")
			return resp, err
		})
	}
}
