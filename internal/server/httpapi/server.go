// Package httpapi is the REST request layer of the account directory. It
// decodes requests, calls the directory and maps its errors to status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/userdir/internal/logging"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/dmitrijs2005/userdir/internal/server/services"
	"github.com/dmitrijs2005/userdir/internal/timex"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 5 * time.Second

// AccountDirectory is the set of directory operations served over HTTP.
type AccountDirectory interface {
	ListAll(ctx context.Context) ([]*models.Account, error)
	Create(ctx context.Context, c services.Candidate) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	RequireExists(ctx context.Context, id int64) error
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	TogglePresence(ctx context.Context, id int64) error
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdateBirthday(ctx context.Context, id int64, birthday *timex.Date) error
	Login(ctx context.Context, username, password string) (*models.Account, error)
}

// Pinger reports whether the account store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	address string
	logger  logging.Logger
	dir     AccountDirectory
	store   Pinger
	router  chi.Router
}

func NewServer(address string, l logging.Logger, dir AccountDirectory, store Pinger) *Server {
	s := &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		dir:     dir,
		store:   store,
	}
	s.router = s.routes()
	return s
}

// Handler returns the router wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "userdir-http")
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
