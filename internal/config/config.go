// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	IG            IGConfig           `mapstructure:"ig"`
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// IGConfig holds IG Markets API credentials and endpoint settings.
// Credentials are inputs only and are never persisted by this program.
type IGConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	BaseURL  string `mapstructure:"base_url"`
}

// MonitorConfig holds monitoring loop configuration.
type MonitorConfig struct {
	Interval      time.Duration `mapstructure:"interval"`       // per-instrument poll interval
	DropThreshold float64       `mapstructure:"drop_threshold"` // percent drop that triggers an alert
	LedgerPath    string        `mapstructure:"ledger_path"`    // alert dedup ledger file
	DBPath        string        `mapstructure:"db_path"`        // positions database
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	EmailJS EmailJSConfig `mapstructure:"emailjs"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// EmailJSConfig holds EmailJS delivery configuration.
type EmailJSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ServiceID  string `mapstructure:"service_id"`
	TemplateID string `mapstructure:"template_id"`
	UserID     string `mapstructure:"user_id"`
	PrivateKey string `mapstructure:"private_key"`
}

// WebhookConfig holds webhook delivery configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// DefaultBaseURL is the production IG Markets gateway.
const DefaultBaseURL = "https://api.ig.com/gateway/deal"

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/igstock"
	}
	return filepath.Join(home, ".config", "igstock")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("ig.base_url", DefaultBaseURL)
	v.SetDefault("monitor.interval", "1m")
	v.SetDefault("monitor.drop_threshold", 10.0)
	v.SetDefault("monitor.ledger_path", filepath.Join(configDir, "email_log.json"))
	v.SetDefault("monitor.db_path", filepath.Join(configDir, "positions.db"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		// Missing file is fine: defaults plus environment cover everything.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides using the
// same variable names the .env file carries.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IG_API_KEY"); v != "" {
		cfg.IG.APIKey = v
	}
	if v := os.Getenv("IG_USERNAME"); v != "" {
		cfg.IG.Username = v
	}
	if v := os.Getenv("IG_PASSWORD"); v != "" {
		cfg.IG.Password = v
	}
	if v := os.Getenv("IG_BASE_URL"); v != "" {
		cfg.IG.BaseURL = v
	}

	if v := os.Getenv("EMAILJS_SERVICE_ID"); v != "" {
		cfg.Notifications.EmailJS.ServiceID = v
		cfg.Notifications.EmailJS.Enabled = true
	}
	if v := os.Getenv("EMAILJS_TEMPLATE_ID"); v != "" {
		cfg.Notifications.EmailJS.TemplateID = v
	}
	if v := os.Getenv("EMAILJS_USER_ID"); v != "" {
		cfg.Notifications.EmailJS.UserID = v
	}
	if v := os.Getenv("EMAILJS_PRIVATE_KEY"); v != "" {
		cfg.Notifications.EmailJS.PrivateKey = v
	}

	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
	}
}

// Validate checks that every value required to talk to the upstream API
// is present. A missing value here is a fatal startup error, never a
// runtime one.
func (c *Config) Validate() error {
	if c.IG.APIKey == "" {
		return fmt.Errorf("ig.api_key is required (or set IG_API_KEY)")
	}
	if c.IG.Username == "" {
		return fmt.Errorf("ig.username is required (or set IG_USERNAME)")
	}
	if c.IG.Password == "" {
		return fmt.Errorf("ig.password is required (or set IG_PASSWORD)")
	}
	if c.IG.BaseURL == "" {
		return fmt.Errorf("ig.base_url must not be empty")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %s", c.Monitor.Interval)
	}
	if c.Monitor.DropThreshold <= 0 {
		return fmt.Errorf("monitor.drop_threshold must be positive, got %g", c.Monitor.DropThreshold)
	}
	return nil
}

// ValidateNotifications checks that at least one delivery channel is
// fully configured. Required before monitoring starts; lookup-only
// commands do not need a channel.
func (c *Config) ValidateNotifications() error {
	if c.Notifications.EmailJS.Enabled {
		e := c.Notifications.EmailJS
		if e.ServiceID == "" || e.TemplateID == "" || e.UserID == "" {
			return fmt.Errorf("emailjs channel enabled but service_id/template_id/user_id incomplete")
		}
		return nil
	}
	if c.Notifications.Webhook.Enabled {
		if c.Notifications.Webhook.URL == "" {
			return fmt.Errorf("webhook channel enabled but url is empty")
		}
		return nil
	}
	return fmt.Errorf("no notification channel configured")
}
