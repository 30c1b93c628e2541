package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/HarshilMaks/TFT-Stock-Trader/internal/risk"
)

// Server exposes the risk validation gate over HTTP. It holds no trading
// state: every validate call is independent and side-effect-free, so requests
// may be served concurrently without coordination.
type Server struct {
	router  *mux.Router
	server  *http.Server
	config  ServerConfig
	metrics *Metrics
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// Rate limiting per client IP.
	RateLimit float64 `yaml:"rate_limit"` // requests per second
	RateBurst int     `yaml:"rate_burst"`
}

// DefaultServerConfig returns a local-only server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		RateLimit:    20,
		RateBurst:    40,
	}
}

// NewServer creates an HTTP server serving the given validator.
func NewServer(config ServerConfig, validator *risk.Validator, metrics *Metrics) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:  router,
		config:  config,
		metrics: metrics,
	}

	handlers := NewHandlers(validator)

	limiter := newClientLimiter(config.RateLimit, config.RateBurst)
	api := router.PathPrefix("/v1").Subrouter()
	api.Use(limiter.middleware)
	api.Use(s.instrument)
	api.HandleFunc("/risk/validate", handlers.ValidateSignal).Methods(http.MethodPost)
	api.HandleFunc("/risk/stats", handlers.GateStats).Methods(http.MethodGet)

	router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

// instrument records request counts and latencies.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.URL.Path, time.Since(start))
		}
	})
}
