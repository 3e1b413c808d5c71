package config

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration. Values come from environment
// variables, optionally seeded from a .env file in the working directory.
type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Env         string `mapstructure:"ENV"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`

	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     int    `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`

	PayPalBaseURL      string `mapstructure:"PAYPAL_BASE_URL"`
	PayPalClientID     string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `mapstructure:"PAYPAL_CLIENT_SECRET"`
}

// defaults must name every key: viper's AutomaticEnv only surfaces variables
// for keys it already knows about.
var defaults = map[string]any{
	"SERVICE_NAME":      "storefront",
	"ENV":               "development",
	"HTTP_ADDR":         ":8080",
	"POSTGRES_HOST":     "",
	"POSTGRES_PORT":     5432,
	"POSTGRES_USER":     "storefront",
	"POSTGRES_PASSWORD": "",
	"POSTGRES_DB":       "storefront",
	"POSTGRES_SSLMODE":  "disable",
	"STRIPE_SECRET_KEY": "",

	"PAYPAL_BASE_URL":      "https://api-m.sandbox.paypal.com",
	"PAYPAL_CLIENT_ID":     "",
	"PAYPAL_CLIENT_SECRET": "",
}

func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read .env: %w", err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Watch re-reads the .env file on change and invokes onChange with the fresh
// config. It is a no-op when no .env file is present.
func Watch(onChange func(*Config)) error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: watch read: %w", err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			return
		}
		onChange(&cfg)
	})
	v.WatchConfig()
	return nil
}

// DatabaseDSN builds the postgres connection string, or returns "" when no
// database host is configured and the in-memory stores should be used.
func (c *Config) DatabaseDSN() string {
	if c.PostgresHost == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}
