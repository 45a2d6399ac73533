package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-crm/meridian-crm/internal/app"
	"github.com/meridian-crm/meridian-crm/internal/auth"
	"github.com/meridian-crm/meridian-crm/internal/catalog/products"
	"github.com/meridian-crm/meridian-crm/internal/catalog/promotions"
	"github.com/meridian-crm/meridian-crm/internal/crm/followups"
	"github.com/meridian-crm/meridian-crm/internal/crm/leads"
	"github.com/meridian-crm/meridian-crm/internal/crm/losses"
	"github.com/meridian-crm/meridian-crm/internal/observability"
	"github.com/meridian-crm/meridian-crm/internal/quotes"
	quoteshttp "github.com/meridian-crm/meridian-crm/internal/quotes/http"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/roles"
	"github.com/meridian-crm/meridian-crm/internal/shared"
	"github.com/meridian-crm/meridian-crm/internal/users"
	"github.com/meridian-crm/meridian-crm/internal/view"
	"github.com/meridian-crm/meridian-crm/jobs"
	"github.com/meridian-crm/meridian-crm/report"
)

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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, templates, csrfManager, sessionManager, rbacMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	leadRepo := leads.NewRepository(dbpool)
	leadService := leads.NewService(logger, leadRepo)
	leadHandler := leads.NewHandler(logger, leadService, templates, csrfManager, rbacMiddleware)

	followUpRepo := followups.NewRepository(dbpool)
	followUpService := followups.NewService(logger, followUpRepo, jobClient)
	followUpHandler := followups.NewHandler(logger, followUpService, templates, csrfManager, rbacMiddleware)

	lossRepo := losses.NewRepository(dbpool)
	lossService := losses.NewService(logger, lossRepo, leadService)
	lossHandler := losses.NewHandler(logger, lossService, templates, csrfManager, rbacMiddleware)

	productRepo := products.NewRepository(dbpool)
	productService := products.NewService(productRepo)
	productHandler := products.NewHandler(logger, productService, templates, csrfManager, rbacMiddleware)

	promotionRepo := promotions.NewRepository(dbpool)
	promotionService := promotions.NewService(promotionRepo)
	promotionHandler := promotions.NewHandler(logger, promotionService, productService, templates, csrfManager, rbacMiddleware)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)

	quoteRepo := quotes.NewRepository(dbpool)
	quoteService := quotes.NewService(logger, quoteRepo, productService, promotionService, leadService)
	quoteHandler := quoteshttp.NewHandler(logger, quoteService, productService, promotionService, templates, csrfManager, rbacMiddleware, reportClient, idempotencyStore)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo)
	userHandler := users.NewHandler(logger, userService, templates, csrfManager, sessionManager, rbacMiddleware)

	roleRepo := roles.NewRepository(dbpool)
	roleService := roles.NewService(roleRepo)
	roleHandler := roles.NewHandler(logger, roleService, templates, csrfManager, sessionManager, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,

		AuthHandler:      authHandler,
		LeadHandler:      leadHandler,
		FollowUpHandler:  followUpHandler,
		LossHandler:      lossHandler,
		ProductHandler:   productHandler,
		PromotionHandler: promotionHandler,
		QuoteHandler:     quoteHandler,

		UserHandler:        userHandler,
		RoleHandler:        roleHandler,
		ReportHandler:      reportHandler,
		JobHandler:         jobHandler,
		PermissionsHandler: permissionsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
