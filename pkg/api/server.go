package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
)

// ServerConfig holds the server configuration. Every field can be set from
// the environment.
type ServerConfig struct {
	Host           string        `env:"AWSIM_HOST" envDefault:"localhost"`    // Host to bind to
	Port           int           `env:"AWSIM_PORT" envDefault:"8080"`         // Port to listen on
	ReadTimeout    time.Duration `env:"AWSIM_READ_TIMEOUT" envDefault:"30s"`  // Read timeout
	WriteTimeout   time.Duration `env:"AWSIM_WRITE_TIMEOUT" envDefault:"60s"` // Write timeout, covers league streams
	IdleTimeout    time.Duration `env:"AWSIM_IDLE_TIMEOUT" envDefault:"60s"`
	MaxFastWorkers int           `env:"AWSIM_FAST_WORKERS" envDefault:"100"`
	MaxSlowWorkers int           `env:"AWSIM_SLOW_WORKERS" envDefault:"4"`
	CORSOrigin     string        `env:"AWSIM_CORS_ORIGIN" envDefault:"*"` // Access-Control-Allow-Origin value
	SessionIdle    time.Duration `env:"AWSIM_SESSION_IDLE" envDefault:"30m"` // Sessions untouched this long are dropped
}

// DefaultConfig matches the envDefault tags above.
func DefaultConfig() ServerConfig {
	pool := DefaultPoolConfig()
	return ServerConfig{
		Host:           "localhost",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxFastWorkers: pool.MaxFastWorkers,
		MaxSlowWorkers: pool.MaxSlowWorkers,
		CORSOrigin:     "*",
		SessionIdle:    30 * time.Minute,
	}
}

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 10 * time.Second

// route is one endpoint. The same table registers the mux and prints the
// startup listing.
type route struct {
	pattern string // method and path, as accepted by http.ServeMux
	handler http.HandlerFunc
	about   string
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	engine   *engine.Engine
	handlers *Handlers
	server   *http.Server
	version  string
}

// NewServer creates a new API server over an engine and the league it
// computed.
func NewServer(e *engine.Engine, table *league.Table, config ServerConfig, version string) *Server {
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: config.MaxFastWorkers,
		MaxSlowWorkers: config.MaxSlowWorkers,
	})
	s := &Server{
		config:   config,
		engine:   e,
		handlers: NewHandlersWithPool(e, table, version, pool),
		version:  version,
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) routes() []route {
	h := s.handlers
	return []route{
		{"GET /api/health", h.Health, "Health check"},
		{"GET /api/opponents", h.Opponents, "Opponent roster"},
		{"POST /api/decide", h.Decide, "Strategy decision"},
		{"POST /api/resolve", h.Resolve, "Resolve one round"},
		{"POST /api/match", h.Match, "Automated match"},
		{"POST /api/round", h.Round, "Play one live round"},
		{"POST /api/sample", h.Sample, "Repeated matches"},

		{"GET /api/league", h.League, "League table"},
		{"GET /api/league/stream", h.LeagueSSE, "League bracket (SSE)"},

		{"POST /api/sessions", h.CreateSession, "Start a session"},
		{"GET /api/sessions/{id}", h.GetSession, "Session state"},
		{"DELETE /api/sessions/{id}", h.DeleteSession, "End a session"},
		{"POST /api/sessions/{id}/events", h.SessionEvent, "Advance a session"},

		{"/api/ws", h.WebSocket, "WebSocket for interactive play"},
	}
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, rt := range s.routes() {
		mux.HandleFunc(rt.pattern, rt.handler)
	}
	return corsMiddleware(s.config.CORSOrigin, loggingMiddleware(mux))
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs all requests.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Start listens and serves until the server is shut down.
func (s *Server) Start() error {
	log.Printf("Starting AW simulation server v%s on %s (seed %d)", s.version, s.server.Addr, s.engine.Seed())
	log.Printf("Endpoints:")
	for _, rt := range s.routes() {
		pattern := rt.pattern
		if pattern[0] == '/' {
			pattern = "WS " + pattern
		}
		log.Printf("  %-36s - %s", pattern, rt.about)
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown serves until SIGINT or SIGTERM, then
// drains in-flight requests.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if store := s.handlers.store; store != nil && s.config.SessionIdle > 0 {
		go store.Expire(ctx, s.config.SessionIdle/2, s.config.SessionIdle)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Printf("Shutdown requested, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped gracefully")
	return nil
}
