package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"parceldesk/internal/api"
	"parceldesk/internal/config"
	"parceldesk/internal/handlers"
	"parceldesk/internal/repository"
	"parceldesk/internal/repository/postgres"
	"parceldesk/internal/repository/sheets"
	"parceldesk/internal/service"
	"parceldesk/internal/telegram"
	"parceldesk/internal/ws"
	"parceldesk/pkg/logger"
)

func main() {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting parceldesk...")

	// Storage: Postgres when DATABASE_URL is set, the spreadsheet service
	// otherwise.
	var (
		packageRepo  repository.PackageRepository
		residentRepo repository.ResidentRepository
		adminRepo    repository.AdminRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := config.NewDatabase(cfg.DatabaseURL, l)
		if err != nil {
			l.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate("migrations"); err != nil {
			l.Fatalf("Failed to run migrations: %v", err)
		}

		packageRepo = postgres.NewPackageRepository(db.DB)
		residentRepo = postgres.NewResidentRepository(db.DB)
		adminRepo = postgres.NewAdminRepository(db.DB)
	} else {
		client := sheets.NewClient(cfg.SheetsAPIURL, cfg.SheetsAPIToken, l)
		packageRepo = sheets.NewPackageRepository(client)
		residentRepo = sheets.NewResidentRepository(client)
		adminRepo = sheets.NewAdminRepository(client)
	}

	// Service layer
	svc := service.New(l, packageRepo, residentRepo, adminRepo, service.Options{
		CodeTTL:      cfg.OTPTTL,
		OverdueAfter: cfg.OverdueAfter,
		ExpireAfter:  cfg.ExpireAfter,
	})

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}
	svc.SetNotifier(bot)

	// Register command handlers
	bot.RegisterCommand("start", handlers.NewStartHandler(l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))
	bot.RegisterCommand("bind", handlers.NewBindHandler(svc, l))
	bot.RegisterCommand("unbind", handlers.NewUnbindHandler(svc, l))
	bot.RegisterCommand("packages", handlers.NewPackagesHandler(svc, l))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Live updates for desk dashboards
	hub := ws.NewHub(l)
	go hub.Run(ctx)
	svc.SetBroadcaster(hub)

	// Background sweep for overdue and expired packages
	go svc.StartOverdueSweeper(ctx, cfg.SweepInterval)

	// HTTP server
	apiServer := api.NewServer(svc, hub, bot, l, api.Options{
		JWTSecret:     cfg.JWTSecret,
		WebhookSecret: cfg.TelegramWebhookSecret,
	})
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Updates: webhook when a public URL is configured, long polling
	// otherwise.
	if cfg.TelegramWebhookURL != "" {
		if err := bot.SetWebhook(cfg.TelegramWebhookURL, cfg.TelegramWebhookSecret); err != nil {
			l.Fatalf("Failed to set webhook: %v", err)
		}
	} else {
		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	l.Info("parceldesk started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP shutdown error: %v", err)
	}

	l.Info("parceldesk stopped")
}
