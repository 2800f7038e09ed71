package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/cmd/identityd/config"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	auth   identity.Authenticator
	auther identity.HTTPAuthenticator
	repo   identity.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) SetRepository(repo identity.RepositoryManager) {
	a.repo = repo
}

func (a *App) SetDB(db *bun.DB) {
	a.bunDB = db
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) SetHTTPServer(srv router.Server[*fiber.App]) {
	a.srv = srv
}

func (a *App) SetAuthenticator(auth identity.Authenticator) {
	a.auth = auth
}

func (a *App) SetHTTPAuth(auther identity.HTTPAuthenticator) {
	a.auther = auther
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("identityd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		lgr.Error("unable to load configuration", "error", err)
		os.Exit(1)
	}

	if err := cfg.Raw().Validate(); err != nil {
		lgr.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("http server bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPAuth(ctx, app); err != nil {
		lgr.Error("auth bootstrap failed", "error", err)
		os.Exit(1)
	}

	WithNotFoundHandler(app)

	addr := app.Config().GetApp().GetAddress()
	lgr.Info("listening", "address", addr)
	app.srv.Serve(addr)

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*identity.User)(nil))

	cfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(identity.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.SetDB(client.DB())
	app.SetRepository(identity.NewRepositoryManager(client.DB()))

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       app.Config().GetApp().GetName(),
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	app.SetHTTPServer(srv)

	return nil
}

func WithHTTPAuth(ctx context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	repo := app.repo
	if err := repo.Validate(); err != nil {
		return err
	}

	userProvider := identity.NewUserProvider(repo.Users())
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	activitySink := identity.ActivitySinkFunc(func(ctx context.Context, event identity.ActivityEvent) error {
		app.GetLogger("auth:activity").Info("auth event",
			"event_type", string(event.EventType),
			"user_id", event.UserID,
		)
		return nil
	})

	authenticator := identity.NewAuthenticator(userProvider, cfg)
	authenticator.WithLogger(app.GetLogger("auth:authn"))
	authenticator.WithActivitySink(activitySink)

	app.SetAuthenticator(authenticator)

	httpAuth, err := identity.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}

	httpAuth.WithLogger(app.GetLogger("auth:http"))
	app.SetHTTPAuth(httpAuth)

	identity.RegisterAuthRoutes(app.srv.Router().Group("/auth"),
		func(ac *identity.AuthController) *identity.AuthController {
			ac.Auther = httpAuth
			ac.Repo = repo
			ac.Config = cfg
			ac.ActivitySink = activitySink
			ac.WithLogger(app.GetLogger("auth:ctrl"))
			return ac
		})

	return nil
}

// WithNotFoundHandler mounts a trailing catch-all so unmatched routes get a
// JSON 404 instead of the transport default.
func WithNotFoundHandler(app *App) {
	app.srv.Router().Use(func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			return ctx.JSON(router.StatusNotFound, map[string]any{
				"success": false,
				"message": "not found",
			})
		}
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
