// Package server initializes and runs the link sync server.
// It opens the database, applies migrations, wires the push dispatcher and
// handles graceful shutdown of the HTTP endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nononsenseapps/linksync/internal/logging"
	"github.com/nononsenseapps/linksync/internal/server/config"
	"github.com/nononsenseapps/linksync/internal/server/httpapi"
	"github.com/nononsenseapps/linksync/internal/server/push"
	"github.com/nononsenseapps/linksync/internal/server/repositories/repomanager"
	"github.com/nononsenseapps/linksync/internal/server/services"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	rm            repomanager.RepositoryManager
	linkService   *services.LinkService
	deviceService *services.DeviceService
}

func NewApp(c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	ds := services.NewDeviceService(db, rm)

	gcm := push.NewGCMClient(c.GCMEndpoint, c.GCMAPIKey)
	dispatcher := push.NewDispatcher(ds, gcm, logger, c.DispatchTimeout)

	ls := services.NewLinkService(db, rm, dispatcher, logger)

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		rm:            rm,
		linkService:   ls,
		deviceService: ds,
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.linkService, app.deviceService, app.config.SecretKey)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	if err := app.rm.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, err.Error())
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
