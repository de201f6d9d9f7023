package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reelcut/reelcut-agent/internal/library"
	"github.com/reelcut/reelcut-agent/internal/session"
	"github.com/reelcut/reelcut-agent/internal/shorts"
	"github.com/reelcut/reelcut-agent/internal/upload"
	"github.com/reelcut/reelcut-agent/internal/youtube"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	Version        string
	AllowedOrigins []string
	// UIBaseURL prefixes the browser pages the auth flow redirects to
	// (/login, /dashboard). Empty keeps the redirects relative.
	UIBaseURL string
	// Backend names the processing mode reported by /health.
	Backend string

	Tokens    TokenStore
	Session   *session.Session
	Upload    *upload.Controller
	Shorts    *shorts.Workflow
	Library   library.LibraryService
	Media     http.Handler
	ExportDir string
	// Music may be nil, /music then answers 503.
	Music youtube.MusicSearcher

	Logger    *slog.Logger
	StartTime time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
