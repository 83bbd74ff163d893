package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/detector"
	"mercator-hq/leakscan/pkg/ratelimit"
	"mercator-hq/leakscan/pkg/scan"
	"mercator-hq/leakscan/pkg/telemetry/health"
	"mercator-hq/leakscan/pkg/telemetry/metrics"
	"mercator-hq/leakscan/pkg/telemetry/tracing"
	"mercator-hq/leakscan/pkg/tuning"
)

// Scanner runs a scan. *scan.Service implements it.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) (*scan.Report, error)
}

// RuleProvider exposes the detector's current tables. *detector.Detector
// implements it.
type RuleProvider interface {
	Rules() detector.RuleSet
}

// TuningStatus reports on the tuning loader. *tuning.Loader implements it.
type TuningStatus interface {
	Status() tuning.Status
	Ready() <-chan struct{}
}

// Options holds the server's collaborators. Scanner and Rules are required.
type Options struct {
	Scanner Scanner
	Rules   RuleProvider

	// Tuning, when set, gates readiness on the first tuning load and is
	// reported by /v1/rules.
	Tuning TuningStatus

	// Metrics, when set, records request metrics and serves MetricsPath.
	Metrics     *metrics.Collector
	MetricsPath string

	// Health overrides the default checker.
	Health *health.Checker

	Logger *slog.Logger

	// Build information served by /version.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the leak scanning HTTP API.
type Server struct {
	config  *config.ServerConfig
	opts    Options
	scanner Scanner
	rules   RuleProvider
	tuning  TuningStatus
	metrics *metrics.Collector
	health  *health.Checker
	limiter *ratelimit.Limiter
	logger  *slog.Logger

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server.
func NewServer(cfg *config.ServerConfig, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is nil")
	}
	if opts.Scanner == nil {
		return nil, errors.New("scanner is required")
	}
	if opts.Rules == nil {
		return nil, errors.New("rule provider is required")
	}

	s := &Server{
		config:  cfg,
		opts:    opts,
		scanner: opts.Scanner,
		rules:   opts.Rules,
		tuning:  opts.Tuning,
		metrics: opts.Metrics,
		health:  opts.Health,
		limiter: newLimiter(cfg.RateLimit),
		logger:  opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "server")

	if s.health == nil {
		s.health = health.New(0)
		if s.tuning != nil {
			s.health.RegisterCheck("tuning", health.ChannelClosed(s.tuning.Ready(), "initial tuning load in progress"))
		}
	}
	if s.opts.MetricsPath == "" {
		s.opts.MetricsPath = config.DefaultMetricsPath
	}

	return s, nil
}

// Start listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running, srv := s.isRunning, s.httpServer
		s.mu.RUnlock()
		if !running || srv == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server is listening on, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/v1/scan", s.instrument("/v1/scan", s.rateLimit(http.HandlerFunc(s.handleScan))))
	mux.Handle("/v1/rules", s.instrument("/v1/rules", http.HandlerFunc(s.handleRules)))
	mux.Handle("/healthz", s.instrument("/healthz", s.health.LivenessHandler()))
	mux.Handle("/readyz", s.instrument("/readyz", s.health.ReadinessHandler()))
	mux.Handle("/version", s.instrument("/version", health.VersionHandler(s.opts.Version, s.opts.Commit, s.opts.BuildTime)))
	if s.metrics != nil {
		mux.Handle(s.opts.MetricsPath, s.metrics.Handler())
	}
	mux.Handle("/", s.instrument("other", http.HandlerFunc(s.handleNotFound)))

	var handler http.Handler = mux
	handler = corsMiddleware(s.config.CORS)(handler)
	handler = loggingMiddleware(s.logger)(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger)(handler)

	return handler
}
