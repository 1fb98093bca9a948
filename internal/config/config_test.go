package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WEBHOOK_SECRET", "hook")
	t.Setenv("SERVICENOW_INSTANCE", "https://dev1234.service-now.com/")
	t.Setenv("SERVICENOW_USERNAME", "integration.user")
	t.Setenv("SERVICENOW_PASSWORD", "pw")

	for _, key := range []string{
		"HTTP_PORT", "TEMPLATE_STORE", "DATABASE_URL", "TEMPLATE_SEED_FROM_FILES",
		"SLACK_BOT_TOKEN", "SLACK_ALERTS_CHANNEL", "ADMIN_PASSWORD", "JWT_SECRET",
		"ALERT_CONFIG_DIR", "SERVICENOW_TIMEOUT_SECONDS", "SERVICENOW_RATE_LIMIT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 5000 {
		t.Errorf("Expected default port 5000, got %d", cfg.HTTPPort)
	}
	if cfg.ServiceNowInstance != "https://dev1234.service-now.com" {
		t.Errorf("Expected trailing slash trimmed, got %q", cfg.ServiceNowInstance)
	}
	if cfg.ServiceNowTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.ServiceNowTimeout)
	}
	if cfg.TemplateStore != TemplateStoreFile {
		t.Errorf("Expected file template store, got %q", cfg.TemplateStore)
	}
	if cfg.AlertConfigDir != "alert_configurations" {
		t.Errorf("Expected alert_configurations, got %q", cfg.AlertConfigDir)
	}
	if !cfg.TemplateSeedFromFiles {
		t.Error("Expected seeding from files by default")
	}
	if cfg.SlackEnabled() {
		t.Error("Expected Slack to be disabled by default")
	}
	if cfg.AdminAPIEnabled() {
		t.Error("Expected admin API to be disabled without ADMIN_PASSWORD")
	}
	if cfg.JWTSecret != "" {
		t.Error("Expected no JWT secret without admin API")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("SERVICENOW_TIMEOUT_SECONDS", "5")
	t.Setenv("SERVICENOW_RATE_LIMIT", "2.5")
	t.Setenv("TEMPLATE_STORE", "Database")
	t.Setenv("DATABASE_URL", "sqlite://templates.db")
	t.Setenv("TEMPLATE_SEED_FROM_FILES", "false")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("SLACK_ALERTS_CHANNEL", "C123")
	t.Setenv("ADMIN_PASSWORD", "admin-pw")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.ServiceNowTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.ServiceNowTimeout)
	}
	if cfg.ServiceNowRate != 2.5 {
		t.Errorf("Expected rate 2.5, got %v", cfg.ServiceNowRate)
	}
	if cfg.TemplateStore != TemplateStoreDatabase {
		t.Errorf("Expected database store, got %q", cfg.TemplateStore)
	}
	if cfg.TemplateSeedFromFiles {
		t.Error("Expected seeding disabled")
	}
	if !cfg.SlackEnabled() {
		t.Error("Expected Slack enabled")
	}
	if !cfg.AdminAPIEnabled() {
		t.Error("Expected admin API enabled")
	}
	if len(cfg.JWTSecret) != 64 {
		t.Errorf("Expected generated 32-byte hex secret, got %q", cfg.JWTSecret)
	}
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 5000 {
		t.Errorf("Expected fallback port 5000, got %d", cfg.HTTPPort)
	}
}

func TestLoad_ReportsAllMissing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEBHOOK_SECRET", "")
	t.Setenv("SERVICENOW_INSTANCE", "")
	t.Setenv("SERVICENOW_USERNAME", "")
	t.Setenv("SERVICENOW_PASSWORD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected error for missing configuration")
	}
	for _, key := range []string{"WEBHOOK_SECRET", "SERVICENOW_INSTANCE", "SERVICENOW_USERNAME", "SERVICENOW_PASSWORD"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected error to mention %s, got %v", key, err)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			WebhookSecret:      "hook",
			ServiceNowInstance: "https://x.service-now.com",
			ServiceNowUsername: "u",
			ServiceNowPassword: "p",
			TemplateStore:      TemplateStoreFile,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"database without url", func(c *Config) { c.TemplateStore = TemplateStoreDatabase }, "DATABASE_URL"},
		{"unknown store", func(c *Config) { c.TemplateStore = "redis" }, "TEMPLATE_STORE"},
		{"slack token only", func(c *Config) { c.SlackBotToken = "xoxb" }, "SLACK_BOT_TOKEN"},
		{"slack channel only", func(c *Config) { c.SlackAlertsChannel = "C1" }, "SLACK_ALERTS_CHANNEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
