package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"go.uber.org/zap"

	httptransport "github.com/starter-kit/account-service/internal/api/http"
	"github.com/starter-kit/account-service/internal/api/http/handlers"
	"github.com/starter-kit/account-service/internal/auth"
	"github.com/starter-kit/account-service/internal/config"
	"github.com/starter-kit/account-service/internal/events"
	"github.com/starter-kit/account-service/internal/notify"
	"github.com/starter-kit/account-service/internal/observability"
	"github.com/starter-kit/account-service/internal/persistence"
	"github.com/starter-kit/account-service/internal/repository"
	"github.com/starter-kit/account-service/internal/service"
	"github.com/starter-kit/account-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	sessions := auth.NewSessionManager(redis.Client, cfg.Session)
	resetTokens := auth.NewResetTokenManager(cfg.Auth.ResetTokenSecret, cfg.Auth.ResetTokenTTL(), redis.Client)

	engine := django.New("./views", ".html")
	if err := engine.Load(); err != nil {
		logger.Fatal("failed to load templates", zap.Error(err))
	}

	var sender notify.Sender
	if cfg.Mail.SMTPHost != "" {
		smtpSender, err := notify.NewSMTPSender(cfg.Mail)
		if err != nil {
			logger.Fatal("failed to init smtp sender", zap.Error(err))
		}
		sender = smtpSender
	} else {
		sender = notify.NewNopSender(logger)
	}
	mailer := notify.NewDispatcher(engine, sender, logger, cfg.App, cfg.Mail)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, mailer, logger)
	worker.StartNotificationWorker(notificationService)

	accountService := service.NewAccountService(service.AccountDependencies{
		UserRepo:   userRepo,
		ResetsMgr:  resetTokens,
		Dispatcher: dispatcher,
		Mailer:     mailer,
	}, cfg.Auth.BcryptCost)
	adminService := service.NewUserAdminService(userRepo, dispatcher, cfg.Auth.BcryptCost)

	sessionMiddleware := auth.NewSessionMiddleware(sessions, userRepo, logger)

	app := fiber.New(fiber.Config{Views: engine})
	httptransport.RegisterMiddlewares(app, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, pg, redis),
		Pages:             handlers.NewPagesHandler(),
		Accounts:          handlers.NewAccountsHandler(accountService, sessions),
		Users:             handlers.NewUsersHandler(adminService),
		SessionMiddleware: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
