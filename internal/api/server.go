package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robohome/robohome-core/internal/audit"
	"github.com/robohome/robohome-core/internal/automation"
	"github.com/robohome/robohome-core/internal/infrastructure/config"
	"github.com/robohome/robohome-core/internal/infrastructure/database"
	"github.com/robohome/robohome-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ConnectionChecker reports broker connectivity.
type ConnectionChecker interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	House   *automation.House
	DB      *database.DB      // optional: health and pool metrics
	MQTT    ConnectionChecker // optional: health and metrics
	Audit   audit.Repository  // optional: mutation trail
	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	house     *automation.House
	db        *database.DB
	mqtt      ConnectionChecker
	audit     audit.Repository
	version   string
	startTime time.Time
	server    *http.Server
}

// New creates a server. It is not listening until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.House == nil {
		return nil, fmt.Errorf("house is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		house:     deps.House,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		audit:     deps.Audit,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Close waits up to gracefulShutdownTimeout for in-flight requests, then
// closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
