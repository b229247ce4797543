package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/config"
	"github.com/ariffaisalsheam/menux-app/internal/metrics"
	"github.com/ariffaisalsheam/menux-app/internal/middleware"
)

const (
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
)

// EngineOptions tunes the shared middleware stack used by both the api and
// the web process.
type EngineOptions struct {
	Environment string
	Metrics     *metrics.Metrics
	CORSOrigins []string
	// OnPanic replaces the default JSON 500 body after a recovered panic.
	OnPanic gin.HandlerFunc
}

func NewEngine(log zerolog.Logger, opts EngineOptions) *gin.Engine {
	if opts.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.RedirectFixedPath = true

	recovery := middleware.Recovery(log)
	if opts.OnPanic != nil {
		recovery = middleware.Recovery(log, opts.OnPanic)
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log, HealthPath, "/api"+HealthPath, MetricsPath),
		recovery,
	)
	if len(opts.CORSOrigins) > 0 {
		engine.Use(middleware.CORS(opts.CORSOrigins))
	}
	if opts.Metrics != nil {
		engine.Use(middleware.Metrics(opts.Metrics))
		engine.GET(MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}
	return engine
}

type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

func (s *HTTPServer) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}
