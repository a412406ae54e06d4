package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/taskforge/taskforge-core/internal/audit"
	"github.com/taskforge/taskforge-core/internal/auth"
	"github.com/taskforge/taskforge-core/internal/infrastructure/config"
	"github.com/taskforge/taskforge-core/internal/infrastructure/logging"
	"github.com/taskforge/taskforge-core/internal/notification"
	"github.com/taskforge/taskforge-core/internal/project"
	"github.com/taskforge/taskforge-core/internal/task"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        config.ServerConfig
	Security      config.SecurityConfig
	Logger        *logging.Logger
	Keys          *auth.KeyPair
	Users         auth.UserRepository
	Tasks         *task.Service
	Projects      project.Repository
	Notifications notification.Repository
	Audit         audit.Repository
	ExternalHub   *Hub // If set, the server uses this hub instead of creating its own
	Version       string
}

// Server is the HTTP API server for Taskforge Core.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket
// hub. The server is created with New() and started with Start().
type Server struct {
	cfg           config.ServerConfig
	secCfg        config.SecurityConfig
	logger        *logging.Logger
	keys          *auth.KeyPair
	policy        *auth.Policy
	users         auth.UserRepository
	tasks         *task.Service
	projects      project.Repository
	notifications notification.Repository
	auditRepo     audit.Repository
	version       string
	server        *http.Server
	hub           *Hub
	cancel        context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Keys == nil {
		return nil, fmt.Errorf("signing key pair is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Tasks == nil {
		return nil, fmt.Errorf("task service is required")
	}

	s := &Server{
		cfg:           deps.Config,
		secCfg:        deps.Security,
		logger:        deps.Logger,
		keys:          deps.Keys,
		policy:        auth.NewPolicy(),
		users:         deps.Users,
		tasks:         deps.Tasks,
		projects:      deps.Projects,
		notifications: deps.Notifications,
		auditRepo:     deps.Audit,
		version:       deps.Version,
		hub:           deps.ExternalHub,
	}

	return s, nil
}

// Hub returns the server's WebSocket hub, creating it if needed. Main
// uses this to wire the hub into the task service's publisher chain
// before Start().
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server is stopped with
// Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// recordAudit writes one audit entry for a mutation. Failures are
// logged and swallowed: the mutation itself has already succeeded.
func (s *Server) recordAudit(ctx context.Context, action, entityType, entityID string, details map[string]any) {
	if s.auditRepo == nil {
		return
	}

	var subject string
	if id, ok := auth.IdentityFrom(ctx); ok {
		subject = id.Subject
	}

	entry := &audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Subject:    subject,
		Details:    details,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("writing audit entry", "action", action, "error", err)
	}
}
