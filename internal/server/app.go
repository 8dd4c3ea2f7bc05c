// Package server wires the string editor together: storage, sessions,
// services, and the HTTP and gRPC servers, and runs them until a signal
// arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/deferscky/stringeditor/internal/buildinfo"
	"github.com/deferscky/stringeditor/internal/cryptox"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/config"
	"github.com/deferscky/stringeditor/internal/server/httpapi"
	"github.com/deferscky/stringeditor/internal/server/metrics"
	"github.com/deferscky/stringeditor/internal/server/repositories/repomanager"
	"github.com/deferscky/stringeditor/internal/server/services"
	"github.com/deferscky/stringeditor/internal/server/sessions"

	gs "github.com/deferscky/stringeditor/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	sessions   *sessions.Table
	httpServer *httpapi.HTTPServer
	grpcServer *gs.GRPCServer
}

func NewApp(c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	db, rm, err := repomanager.Open(context.Background(), c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	table := sessions.New()
	mx := metrics.New(func() float64 { return float64(table.Count()) })
	hasher := cryptox.NewHasher(cryptox.DefaultParams)

	history := services.NewHistoryService(db, rm, mx, logger)
	accounts := services.NewAccountService(db, rm, table, hasher, c.PasswordMinLength, mx, logger)
	content := services.NewContentService(db, rm, history, logger)

	httpServer := httpapi.NewHTTPServer(c.EndpointAddrHTTP, c.ShutdownTimeout, logger, httpapi.Deps{
		Accounts:       accounts,
		Content:        content,
		History:        history,
		Store:          db,
		Metrics:        mx,
		ActiveSessions: table.Count,
		Version:        buildinfo.Version(),
	})
	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		sessions:   table,
		httpServer: httpServer,
		grpcServer: grpcServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runServer runs one server and cancels the whole app if it fails.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails,
// then waits for both servers to stop and closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "database", app.config.DatabasePath)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.httpServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", app.grpcServer.Run)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err)
	}

	app.logger.Info(ctx, "Stopped", "sessions_dropped", app.sessions.Count())
}
