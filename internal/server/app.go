// Package server initializes and runs the userdir server: it opens the
// account store, builds the directory and serves the REST API and the gRPC
// health service until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/userdir/internal/logging"
	"github.com/dmitrijs2005/userdir/internal/server/config"
	gs "github.com/dmitrijs2005/userdir/internal/server/grpc"
	"github.com/dmitrijs2005/userdir/internal/server/httpapi"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/userdir/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userdir/internal/server/services"
	"github.com/dmitrijs2005/userdir/internal/telemetry"
)

// Version is reported in trace resources.
var Version = "dev"

// openStore is a seam for tests.
var openStore = repomanager.Open

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     accounts.Store
	directory *services.Directory
	shutdown  func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	telemetry.InitMetrics()

	shutdown := func(context.Context) error { return nil }
	if c.TracingEnabled {
		s, err := telemetry.InitTracer(os.Stdout, Version)
		if err != nil {
			return nil, fmt.Errorf("tracing init error: %w", err)
		}
		shutdown = s
	}

	store, err := openStore(ctx, c)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("store init error: %w", err)
	}

	dir := services.NewDirectory(store, logger.With("module", "directory"), c.StoreTimeout)

	return &App{
		config:    c,
		logger:    logger,
		store:     store,
		directory: dir,
		shutdown:  shutdown,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.directory, app.store)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.store, 0, app.config.StoreTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is done, a signal arrives or a server fails, then
// releases the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if err := app.store.Flush(ctx); err != nil {
		app.logger.Error(ctx, "store flush error", "error", err)
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}
	if err := app.shutdown(ctx); err != nil {
		app.logger.Error(ctx, "tracer shutdown error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
