// Package apiclient is the front end's client for the Menu.X REST backend.
// A Factory owns the shared transport; a Client is bound to one browser
// session's token storage.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/metrics"
)

type Factory struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

func NewFactory(cfg config.APIClientConfig, log zerolog.Logger, m *metrics.Metrics) (*Factory, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32
	transport.IdleConnTimeout = 90 * time.Second

	return &Factory{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		transport: transport,
		log:       log.With().Str("component", "apiclient").Logger(),
		metrics:   m,
	}, nil
}

// Client builds a client for one browser session. onExpired runs when a 401
// could not be recovered; it may be nil.
func (f *Factory) Client(storage Storage, onExpired func()) *Client {
	logged := Chain(f.transport, Logging(f.log))
	c := &Client{
		baseURL: f.baseURL,
		storage: storage,
		log:     f.log,
		bare:    &http.Client{Transport: logged, Timeout: f.timeout},
		forms: &http.Client{
			Transport: Chain(logged, BearerToken(storage)),
			Timeout:   f.timeout,
		},
	}
	c.api = &http.Client{
		Transport: Chain(logged,
			BearerToken(storage),
			RefreshOn401(RefreshOptions{
				Storage:   storage,
				Refresh:   c.refreshAccessToken,
				OnExpired: onExpired,
				Metrics:   f.metrics,
				Log:       f.log,
			}),
		),
		Timeout: f.timeout,
	}
	return c
}

type Client struct {
	baseURL string
	storage Storage
	log     zerolog.Logger

	// api carries the bearer token and recovers from 401 by refreshing.
	api *http.Client
	// forms carries the bearer token but surfaces 401 as is.
	forms *http.Client
	// bare has no token handling; refresh and validate go through it.
	bare *http.Client
}

func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	resp, err := c.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *Client) sendJSON(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(hc, req, out)
}

func (c *Client) do(hc *http.Client, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
