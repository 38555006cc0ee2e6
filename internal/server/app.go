// Package server wires storage, the identity resolver, the domain services
// and the WebSocket transport into one application and runs it until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/simplegameutils/sgu/internal/logging"
	"github.com/simplegameutils/sgu/internal/server/auth"
	"github.com/simplegameutils/sgu/internal/server/config"
	"github.com/simplegameutils/sgu/internal/server/dispatch"
	"github.com/simplegameutils/sgu/internal/server/identity"
	"github.com/simplegameutils/sgu/internal/server/repositories/repomanager"
	"github.com/simplegameutils/sgu/internal/server/services"
	"github.com/simplegameutils/sgu/internal/server/session"
	"github.com/simplegameutils/sgu/internal/server/ws"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *ws.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var resolver identity.Resolver = identity.NewHTTPResolver(c.IdentityURL, c.IdentityTimeout)
	if c.RedisAddr != "" {
		app.redis, err = identity.Connect(ctx, c.RedisAddr, c.RedisDB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		resolver = identity.NewCachedResolver(resolver, identity.NewRedisCache(app.redis, c.IdentityCacheTTL), logger)
	}

	ledger := services.NewLedger(db, rm)
	us := services.NewUserService(db, rm, resolver, auth.NewDigester(c.SecretKey))
	gs := services.NewGroupService(db, rm)
	ps := services.NewProjectService(db, rm, ledger)

	router, err := dispatch.NewRouter(logger, us, gs, ps, ledger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("router init error: %w", err)
	}

	app.server = ws.NewServer(c.ListenAddr, logger, router, session.NewManager(), db, ws.Options{
		IdleTimeout:    c.IdleTimeout,
		RequestTimeout: c.RequestTimeout,
		MessageRate:    c.MessageRate,
		MessageBurst:   c.MessageBurst,
	})

	return app, nil
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

func (app *App) startServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	_ = app.db.Close()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(ctx, "App stopped")
}
