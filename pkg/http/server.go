package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"punchcoach-server/pkg/config"
	"punchcoach-server/pkg/metrics"
	"punchcoach-server/pkg/session"
)

// Server is the HTTP/WebSocket front of the engine
type Server struct {
	logger  *logrus.Logger
	config  config.HTTPConfig
	hub     *EventHub
	handler *SessionHandler
	server  *http.Server
	started time.Time
}

// NewServer wires the HTTP server around a session registry and event hub
func NewServer(logger *logrus.Logger, cfg config.HTTPConfig, registry *session.Registry, hub *EventHub) *Server {
	s := &Server{
		logger:  logger,
		config:  cfg,
		hub:     hub,
		handler: NewSessionHandler(logger, registry, hub),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws/drill", s.handler.HandleDrillSocket)
	mux.HandleFunc("/ws/events", s.handler.HandleEventSocket)
	mux.HandleFunc("/api/sessions/", s.handler.HandleSessionState)
	if cfg.EnableMetrics {
		mux.Handle("/metrics", metrics.Handler())
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Start runs the event hub and serves until the listener fails or Shutdown
// is called.
func (s *Server) Start(ctx context.Context) error {
	s.started = time.Now()
	go s.hub.Run(ctx)

	s.logger.WithField("addr", s.server.Addr).Info("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports liveness and basic uptime
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}
