package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/gofibs/pkg/store"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host            string        // Host to bind to (default "localhost")
	Port            int           // Port to listen on (default 8080)
	ReadTimeout     time.Duration // Read timeout (default 30s)
	WriteTimeout    time.Duration // Write timeout (default 30s)
	IdleTimeout     time.Duration // Idle timeout (default 60s)
	ShutdownTimeout time.Duration // Grace period on shutdown (default 10s)
	MaxFastWorkers  int           // Max concurrent line requests (default 100)
	MaxSlowWorkers  int           // Max concurrent replays (default 4)
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxFastWorkers:  100,
		MaxSlowWorkers:  4,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	handlers *Handlers
	server   *http.Server
	pool     *WorkerPool
	version  string
	log      *zap.Logger
}

// NewServer creates a new API server. st may be nil to run without a match
// archive.
func NewServer(config ServerConfig, version string, st *store.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: config.MaxFastWorkers,
		MaxSlowWorkers: config.MaxSlowWorkers,
	})

	return &Server{
		config:   config,
		handlers: NewHandlers(version, pool, st, log),
		pool:     pool,
		version:  version,
		log:      log,
	}
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs all requests.
func loggingMiddleware(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

// Handler returns the routed API handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handlers.Health)
	mux.HandleFunc("POST /api/parse", s.handlers.Parse)
	mux.HandleFunc("POST /api/checkmove", s.handlers.CheckMove)
	mux.HandleFunc("POST /api/replay", s.handlers.Replay)
	mux.HandleFunc("POST /api/replay/stream", s.handlers.ReplaySSE)
	mux.HandleFunc("GET /api/matches", s.handlers.Matches)
	mux.HandleFunc("GET /api/matches/{id}", s.handlers.GetMatch)
	mux.HandleFunc("/api/ws", s.handlers.WebSocket)

	return corsMiddleware(loggingMiddleware(s.log, mux))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.log.Info("starting API server",
		zap.String("version", s.version),
		zap.String("addr", addr),
		zap.Bool("store", s.handlers.store != nil))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.log.Info("shutting down", zap.Stringer("signal", sig))
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
