package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akmatori/snowbridge/internal/alerts"
	"github.com/akmatori/snowbridge/internal/alerts/adapters"
	"github.com/akmatori/snowbridge/internal/config"
	"github.com/akmatori/snowbridge/internal/database"
	"github.com/akmatori/snowbridge/internal/handlers"
	"github.com/akmatori/snowbridge/internal/logging"
	"github.com/akmatori/snowbridge/internal/middleware"
	"github.com/akmatori/snowbridge/internal/notify"
	"github.com/akmatori/snowbridge/internal/pipeline"
	"github.com/akmatori/snowbridge/internal/ratelimit"
	"github.com/akmatori/snowbridge/internal/servicenow"
	"github.com/akmatori/snowbridge/internal/templates"
	"github.com/akmatori/snowbridge/internal/ticket"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	log.Printf("Starting ControlHub to ServiceNow bridge...")

	// Subtype table: defaults, optionally replaced by <config dir>/subtypes.yaml
	rules := alerts.DefaultSubtypeRules
	rulesPath := filepath.Join(cfg.AlertConfigDir, "subtypes.yaml")
	if _, err := os.Stat(rulesPath); err == nil {
		rules, err = alerts.LoadSubtypeRules(rulesPath)
		if err != nil {
			log.Fatalf("Failed to load subtype rules: %v", err)
		}
		log.Printf("Loaded %d subtype rules from %s", len(rules), rulesPath)
	}
	classifier := alerts.NewClassifier(rules)

	store, err := openTemplateStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open template store: %v", err)
	}
	if cfg.TemplateCacheTTL > 0 {
		cached := templates.NewCachedStore(store, cfg.TemplateCacheTTL)
		defer cached.Stop()
		store = cached
		log.Printf("Template cache enabled (TTL: %v)", cfg.TemplateCacheTTL)
	}

	snow := servicenow.NewClient(servicenow.Config{
		InstanceURL:    cfg.ServiceNowInstance,
		Username:       cfg.ServiceNowUsername,
		Password:       cfg.ServiceNowPassword,
		Timeout:        cfg.ServiceNowTimeout,
		CallerCacheTTL: cfg.CallerCacheTTL,
		Limiter:        ratelimit.New(cfg.ServiceNowRate, cfg.ServiceNowBurst),
	}, log.Default())
	defer snow.Stop()
	log.Printf("ServiceNow client initialized for %s (user: %s)", cfg.ServiceNowInstance, cfg.ServiceNowUsername)

	reporters := notify.MultiReporter{notify.NewLogReporter(log.Default())}
	if cfg.SlackEnabled() {
		reporters = append(reporters, notify.NewSlackReporterFromToken(cfg.SlackBotToken, cfg.SlackAlertsChannel))
		log.Printf("Slack notifications ENABLED (channel: %s)", cfg.SlackAlertsChannel)
	}

	assembler := ticket.NewAssembler(snow, snow.Username(), log.Default())
	// Each issue key makes at most a caller lookup and an incident create.
	alertPipeline := pipeline.New(classifier, store, assembler, snow, reporters, log.Default()).
		WithIssueTimeout(2 * cfg.ServiceNowTimeout)

	webhookHandler := handlers.NewWebhookHandler(
		adapters.NewControlHubAdapter(cfg.WebhookSecret),
		alertPipeline,
	)

	mux := http.NewServeMux()
	handlers.NewHTTPHandler(webhookHandler).SetupRoutes(mux)

	if cfg.AdminAPIEnabled() {
		passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		jwtAuth := middleware.NewJWTAuthMiddleware(middleware.JWTAuthConfig{
			AdminUsername:     cfg.AdminUsername,
			AdminPasswordHash: passwordHash,
			JWTSecret:         cfg.JWTSecret,
			TokenTTL:          time.Duration(cfg.JWTExpiryHours) * time.Hour,
		})
		handlers.NewAuthHandler(jwtAuth).SetupRoutes(mux)
		handlers.NewTemplatesHandler(store, classifier.Rules()).SetupRoutes(mux, jwtAuth)
		log.Printf("Template admin API enabled for user: %s", cfg.AdminUsername)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           middleware.RequestIDMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Webhook endpoint: http://localhost:%d/", cfg.HTTPPort)
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.ServiceNowTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	log.Println("Shutdown complete")
}

func openTemplateStore(cfg *config.Config) (templates.Store, error) {
	files := templates.NewFileStore(cfg.AlertConfigDir)
	if cfg.TemplateStore != config.TemplateStoreDatabase {
		log.Printf("Reading ticket templates from %s", cfg.AlertConfigDir)
		return files, nil
	}

	db, err := database.Open(cfg.DatabaseURL, logger.Warn)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	store := templates.NewDBStore(db)
	if cfg.TemplateSeedFromFiles {
		if _, err := store.Seed(context.Background(), files); err != nil {
			return nil, fmt.Errorf("failed to seed templates from %s: %w", cfg.AlertConfigDir, err)
		}
	}
	return store, nil
}
