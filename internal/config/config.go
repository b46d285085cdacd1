// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type ICSConfig struct {
	// FetchTimeoutSeconds bounds a single feed download.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
	// SyncCron schedules the background vendor calendar sync.
	// Empty disables the job.
	SyncCron string `yaml:"sync_cron"`
}

type MetaConfig struct {
	BaseURL     string `yaml:"base_url,omitempty"`
	AdAccountID string `yaml:"ad_account_id"`
	AccessToken string `yaml:"-"` // Loaded from environment

	// MaxTierBudgetMinor clamps any single tier's lifetime budget.
	MaxTierBudgetMinor int64 `yaml:"max_tier_budget_minor"`
	// EndBufferHours pulls ad schedules this many hours before the
	// event start.
	EndBufferHours int `yaml:"end_buffer_hours"`
}

type EmailConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	ICS      ICSConfig      `yaml:"ics"`
	Meta     MetaConfig     `yaml:"meta"`
	Email    EmailConfig    `yaml:"email"`
}

// Load loads both .env and yaml configuration.
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Sensitive values come from the environment only.
	cfg.Meta.AccessToken = os.Getenv("META_ACCESS_TOKEN")
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.ICS.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("ics fetch timeout must not be negative")
	}
	if c.Meta.EndBufferHours < 0 {
		return fmt.Errorf("meta end buffer hours must not be negative")
	}
	return nil
}
