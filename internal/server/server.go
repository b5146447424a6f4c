// Package server wires the configured chain, relays and HTTP router into a running process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/smartcontractkit/bloodledger/internal/config"
	"github.com/smartcontractkit/bloodledger/pkg/logger"
)

// readHeaderTimeout bounds the time to read request headers.
const readHeaderTimeout = 5 * time.Second

// HTTPServer wraps http.Server with graceful startup and shutdown.
type HTTPServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	lggr            logger.Logger
}

// NewHTTPServer returns a server for handler listening on the configured port.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler, lggr logger.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Port),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.WriteTimeout,
		lggr:            lggr,
	}
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully. In-flight requests get the
// write timeout to finish, since a relayed write may be waiting for its confirmation.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.lggr.Infow("API listening", "addr", ln.Addr().String())
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.lggr.Info("Server stopped")

	return nil
}
