package web

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/admuter/admuter/internal/config"
	"github.com/admuter/admuter/internal/database"
)

type Server struct {
	config   *config.Config
	handler  *Handler
	server   *http.Server
	listener net.Listener
}

func NewServer(cfg *config.Config, status StatusSource, repo *database.Repository) *Server {
	handler := NewHandler(cfg, status, repo)
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	addr := net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.Port))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
	}
}

// Listen binds the status API address, so a port already taken by another
// admuter instance is reported before the mute loop starts.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	s.listener = ln
	s.server.Addr = ln.Addr().String()
	return nil
}

// Start serves until Shutdown is called, in which case it returns nil. It
// binds first if Listen was not called.
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	logrus.Infof("Starting web server on http://%s", s.server.Addr)
	if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logrus.Info("Shutting down web server...")
	return s.server.Shutdown(ctx)
}

// GetAddress returns the bound address once Listen has run, the configured one before.
func (s *Server) GetAddress() string {
	return s.server.Addr
}
