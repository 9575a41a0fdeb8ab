package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/memory"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/platform/redis"
	"github.com/phrazzld/taskboard-api/internal/reminder"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/validation"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Connections, nil when the matching feature is disabled
	db    *sql.DB
	redis *goredis.Client

	userStore store.UserStore
	taskStore store.TaskStore

	hub         *notify.Hub
	jwtService  auth.JWTService
	verifier    auth.Verifier
	userService service.UserService
	taskService service.TaskService
	deduper     *redis.Deduper
	scheduler   *reminder.Scheduler
}

// newApplication wires every dependency. On failure anything already opened
// is closed again.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: logger,
	}
	// The error returns below nil out the result, so cleanup works on the
	// local instead.
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	if err = app.setupStores(ctx); err != nil {
		return nil, err
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.verifier = auth.NewBearerVerifier(app.jwtService)
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.hub = notify.NewHub(logger)

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		validation.NewTaskValidator(),
		app.hub,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.userService = service.NewUserService(
		app.userStore,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		app.jwtService,
		logger,
	)

	if cfg.Redis.URL != "" {
		app.redis, err = redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.deduper = redis.NewDeduper(app.redis, cfg.Redis.IdempotencyTTL())
		logger.Info("idempotent task creation enabled",
			"ttl_minutes", cfg.Redis.IdempotencyTTLMinutes)
	}

	if cfg.Reminder.Enabled {
		app.scheduler, err = reminder.NewScheduler(app.taskStore, app.hub, cfg.Reminder.Schedule, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create reminder scheduler: %w", err)
		}
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) setupStores(ctx context.Context) error {
	switch app.config.Database.Driver {
	case config.DriverMemory:
		app.taskStore = memory.NewTaskStore()
		app.userStore = memory.NewUserStore()
		app.logger.Warn("using in-memory storage, data is lost on restart")
	case config.DriverPostgres:
		db, err := openDatabase(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		app.db = db
		app.taskStore = postgres.NewPostgresTaskStore(db)
		app.userStore = postgres.NewPostgresUserStore(db)
	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}
	return nil
}

// Run starts background work and serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if app.scheduler != nil {
		app.scheduler.Start()
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources in reverse dependency order. It is safe to call
// on a partially built application.
func (app *application) cleanup() {
	if app.scheduler != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.scheduler.Stop(stopCtx); err != nil {
			app.logger.Error("error stopping reminder scheduler", "error", err)
		}
		cancel()
	}

	if app.hub != nil {
		app.hub.Close()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
