// Package httpapi is the HTTP request gateway: it decodes requests, resolves
// bearer tokens to users and calls the services.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/metrics"
	"github.com/deferscky/stringeditor/internal/server/services"
	"github.com/labstack/echo/v4"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Accounts       *services.AccountService
	Content        *services.ContentService
	History        *services.HistoryService
	Store          dbx.Pinger
	Metrics        *metrics.Metrics
	ActiveSessions func() int
	Version        string
}

type HTTPServer struct {
	address         string
	shutdownTimeout time.Duration
	echo            *echo.Echo
	logger          logging.Logger
}

func NewHTTPServer(a string, shutdownTimeout time.Duration, l logging.Logger, d Deps) *HTTPServer {
	logger := l.With("module", "http_server")
	return &HTTPServer{
		address:         a,
		shutdownTimeout: shutdownTimeout,
		echo:            newRouter(logger, d),
		logger:          logger,
	}
}

// Handler exposes the router, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is done, then shuts down within the configured timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}
