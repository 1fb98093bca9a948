package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Template store backends
const (
	TemplateStoreFile     = "file"
	TemplateStoreDatabase = "database"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Server Configuration
	HTTPPort int

	// Control Hub webhook
	WebhookSecret string

	// ServiceNow Configuration
	ServiceNowInstance string
	ServiceNowUsername string
	ServiceNowPassword string
	ServiceNowTimeout  time.Duration
	ServiceNowRate     float64
	ServiceNowBurst    int
	CallerCacheTTL     time.Duration

	// Ticket template configuration
	AlertConfigDir        string
	TemplateStore         string
	DatabaseURL           string
	TemplateSeedFromFiles bool
	TemplateCacheTTL      time.Duration

	// Slack operator notifications (optional)
	SlackBotToken      string
	SlackAlertsChannel string

	// Logging
	LogDir string

	// Admin API authentication
	AdminUsername  string
	AdminPassword  string
	JWTSecret      string
	JWTExpiryHours int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPPort = getEnvAsIntOrDefault("HTTP_PORT", 5000)

	cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")

	cfg.ServiceNowInstance = strings.TrimSuffix(os.Getenv("SERVICENOW_INSTANCE"), "/")
	cfg.ServiceNowUsername = os.Getenv("SERVICENOW_USERNAME")
	cfg.ServiceNowPassword = os.Getenv("SERVICENOW_PASSWORD")
	cfg.ServiceNowTimeout = time.Duration(getEnvAsIntOrDefault("SERVICENOW_TIMEOUT_SECONDS", 30)) * time.Second
	cfg.ServiceNowRate = getEnvAsFloatOrDefault("SERVICENOW_RATE_LIMIT", 5)
	cfg.ServiceNowBurst = getEnvAsIntOrDefault("SERVICENOW_BURST", 10)
	cfg.CallerCacheTTL = time.Duration(getEnvAsIntOrDefault("CALLER_CACHE_TTL_SECONDS", 300)) * time.Second

	cfg.AlertConfigDir = getEnvOrDefault("ALERT_CONFIG_DIR", "alert_configurations")
	cfg.TemplateStore = strings.ToLower(getEnvOrDefault("TEMPLATE_STORE", TemplateStoreFile))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.TemplateSeedFromFiles = getEnvAsBoolOrDefault("TEMPLATE_SEED_FROM_FILES", true)
	cfg.TemplateCacheTTL = time.Duration(getEnvAsIntOrDefault("TEMPLATE_CACHE_TTL_SECONDS", 0)) * time.Second

	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	cfg.SlackAlertsChannel = os.Getenv("SLACK_ALERTS_CHANNEL")

	cfg.LogDir = getEnvOrDefault("LOG_DIR", "logs")

	cfg.AdminUsername = getEnvOrDefault("ADMIN_USERNAME", "admin")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.JWTExpiryHours = getEnvAsIntOrDefault("JWT_EXPIRY_HOURS", 24)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" && cfg.AdminPassword != "" {
		log.Printf("JWT_SECRET not set, generated a per-process secret (tokens will not survive a restart)")
		cfg.JWTSecret = generateSecureSecret(32)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once
func (c *Config) Validate() error {
	var problems []string

	required := map[string]string{
		"WEBHOOK_SECRET":      c.WebhookSecret,
		"SERVICENOW_INSTANCE": c.ServiceNowInstance,
		"SERVICENOW_USERNAME": c.ServiceNowUsername,
		"SERVICENOW_PASSWORD": c.ServiceNowPassword,
	}
	for _, key := range []string{"WEBHOOK_SECRET", "SERVICENOW_INSTANCE", "SERVICENOW_USERNAME", "SERVICENOW_PASSWORD"} {
		if required[key] == "" {
			problems = append(problems, key+" is not set")
		}
	}

	switch c.TemplateStore {
	case TemplateStoreFile:
	case TemplateStoreDatabase:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when TEMPLATE_STORE=database")
		}
	default:
		problems = append(problems, fmt.Sprintf("TEMPLATE_STORE must be %q or %q, got %q", TemplateStoreFile, TemplateStoreDatabase, c.TemplateStore))
	}

	if (c.SlackBotToken == "") != (c.SlackAlertsChannel == "") {
		problems = append(problems, "SLACK_BOT_TOKEN and SLACK_ALERTS_CHANNEL must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// SlackEnabled reports whether pipeline failures are posted to Slack
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAlertsChannel != ""
}

// AdminAPIEnabled reports whether the template admin API is served
func (c *Config) AdminAPIEnabled() bool {
	return c.AdminPassword != ""
}

// generateSecureSecret generates a cryptographically secure random string
func generateSecureSecret(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Could not generate secure random bytes: %v", err)
	}
	return hex.EncodeToString(b)
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the value of an environment variable as an integer or a default value
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
