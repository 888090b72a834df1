package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "tenantflow-backend/internal/api/http"
	"tenantflow-backend/internal/config"
	"tenantflow-backend/internal/identity"
	"tenantflow-backend/internal/logger"
	"tenantflow-backend/internal/repository/postgres"
	"tenantflow-backend/internal/security"
	"tenantflow-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting TenantFlow Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)
	if err := store.ApplyMigrations(); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	logger.Info("Database migrations applied")

	// Initialize Identity Provider
	ctx := context.Background()
	provider, err := identity.NewFirebaseProvider(ctx, cfg.Firebase)
	if err != nil {
		logger.Error("Failed to initialize identity provider", "error", err)
		log.Fatalf("Failed to initialize identity provider: %v", err)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize Services
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	invitationSvc := service.NewInvitationService(
		store,
		provider,
		emailSvc,
		cfg.Onboarding.InvitationTTLDays,
		cfg.Onboarding.ConfirmBaseURL,
		cfg.Onboarding.RedirectURL,
	)
	provisioningSvc := service.NewProvisioningService(store)
	accessSvc := service.NewAccessService(store)
	bootstrapSvc := service.NewBootstrapService(store, provider)
	confirmationRouter := service.NewConfirmationRouter(provisioningSvc)

	// Initialize HTTP handlers
	router := httpapi.NewRouter(httpapi.RouterDeps{
		Invitations:   httpapi.NewInvitationHandler(invitationSvc),
		Webhooks:      httpapi.NewWebhookHandler(confirmationRouter),
		Admin:         httpapi.NewAdminHandler(accessSvc, bootstrapSvc, cfg.Onboarding.BootstrapSecret),
		Tokens:        tokenManager,
		WebhookSecret: cfg.Webhook.Secret,
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
