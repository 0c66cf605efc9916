package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/rentdesk/rentdesk/internal/activation"
	"github.com/rentdesk/rentdesk/internal/app"
	"github.com/rentdesk/rentdesk/internal/auth"
	"github.com/rentdesk/rentdesk/internal/authz"
	"github.com/rentdesk/rentdesk/internal/devices"
	"github.com/rentdesk/rentdesk/internal/expenses"
	"github.com/rentdesk/rentdesk/internal/observability"
	"github.com/rentdesk/rentdesk/internal/orders"
	"github.com/rentdesk/rentdesk/internal/platform/cache"
	"github.com/rentdesk/rentdesk/internal/platform/db"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/shared"
	"github.com/rentdesk/rentdesk/internal/users"
	"github.com/rentdesk/rentdesk/jobs"
)

// deferredIssuer lets the account service reach the activation service built after it.
type deferredIssuer struct {
	svc *activation.Service
}

func (d *deferredIssuer) Issue(ctx context.Context, u *users.User) error {
	if d.svc == nil {
		return errors.New("activation service not configured")
	}
	return d.svc.Issue(ctx, u)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PGDSN, logger); err != nil {
			return err
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	engine := authz.NewEngine(authz.MustDefaultPolicy(), authz.WithObserver(metrics))
	rbacMiddleware := rbac.Middleware{Engine: engine, Logger: logger}
	sessionManager := shared.NewSessionManager(redisClient, "session_id", cfg.SessionTTL, cfg.IsProduction())

	issuer := &deferredIssuer{}
	usersService := users.NewService(users.NewRepository(dbpool), engine, issuer, logger)
	activationService := activation.NewService(
		activation.NewStore(redisClient, cfg.ActivationTTL),
		usersService,
		engine,
		jobsClient,
		cfg.PublicURL,
		logger,
	)
	issuer.svc = activationService

	authService := auth.NewService(usersService, sessionManager, engine, logger)
	devicesService := devices.NewService(devices.NewRepository(dbpool), engine, logger)
	expensesService := expenses.NewService(expenses.NewRepository(dbpool), engine, logger)
	ordersService := orders.NewService(orders.NewRepository(dbpool), usersService, engine, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		Caller:            auth.Caller(authService, sessionManager, logger),
		AuthHandler:       auth.NewHandler(logger, authService, sessionManager, rbacMiddleware),
		UsersHandler:      users.NewHandler(logger, usersService, rbacMiddleware),
		ActivationHandler: activation.NewHandler(logger, activationService, rbacMiddleware),
		DevicesHandler:    devices.NewHandler(logger, devicesService, rbacMiddleware),
		ExpensesHandler:   expenses.NewHandler(logger, expensesService, rbacMiddleware),
		OrdersHandler:     orders.NewHandler(logger, ordersService, rbacMiddleware),
		JobHandler:        jobs.NewHandler(inspector, logger),
		HealthChecks: map[string]app.HealthCheck{
			"database": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
