// Package config loads pricer settings from environment variables and an
// optional .env file using viper.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone data for hosts without a zoneinfo database

	"github.com/spf13/viper"

	"github.com/TimurManjosov/gopricer/internal/ruleset"
)

// Config holds all settings. Priority: environment > .env file > defaults.
type Config struct {
	AppEnv          string        // dev, staging, prod
	RulesFile       string        // rule file path (.yaml, .yml or .json)
	Timezone        string        // IANA zone that defines the calendar day for lifecycle checks
	LogLevel        string        // zerolog level name
	LogFormat       string        // console or json
	MetricsAddr     string        // monitor's /metrics and /healthz listener
	MonitorInterval time.Duration // how often the monitor refreshes lifecycle gauges
	AuditFile       string        // optional JSON-lines file receiving rule edit events
}

// Load reads configuration from the environment and .env (if present).
// It does not validate; call Validate before use.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	_ = v.ReadInConfig() // .env is optional
	v.AutomaticEnv()

	setConfigDefaults(v)

	return &Config{
		AppEnv:          v.GetString("APP_ENV"),
		RulesFile:       v.GetString("RULES_FILE"),
		Timezone:        v.GetString("TIMEZONE"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		MetricsAddr:     v.GetString("METRICS_ADDR"),
		MonitorInterval: v.GetDuration("MONITOR_INTERVAL"),
		AuditFile:       v.GetString("AUDIT_FILE"),
	}, nil
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("RULES_FILE", "rules.yaml")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("MONITOR_INTERVAL", "1m")
	v.SetDefault("AUDIT_FILE", "")
}

// Location resolves Timezone. Lifecycle and rental-day checks happen on
// calendar days in this location.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, ValidationError{Field: "TIMEZONE", Message: err.Error()}
	}
	return loc, nil
}

// ValidationError describes a setting that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate returns the first misconfiguration found.
//
// Outside dev, console logging is rejected so log shippers always get JSON.
func (c *Config) Validate() error {
	if c.RulesFile == "" {
		return ValidationError{Field: "RULES_FILE", Message: "rule file path cannot be empty"}
	}
	if _, err := ruleset.FormatOf(c.RulesFile); err != nil {
		return ValidationError{Field: "RULES_FILE", Message: err.Error()}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return ValidationError{
			Field:   "LOG_FORMAT",
			Message: fmt.Sprintf("must be 'console' or 'json', got '%s'", c.LogFormat),
		}
	}
	if c.MetricsAddr == "" {
		return ValidationError{Field: "METRICS_ADDR", Message: "metrics server address cannot be empty"}
	}
	if c.MonitorInterval <= 0 {
		return ValidationError{
			Field:   "MONITOR_INTERVAL",
			Message: fmt.Sprintf("must be positive, got %s", c.MonitorInterval),
		}
	}

	if c.AppEnv != "dev" && c.LogFormat != "json" {
		return ValidationError{
			Field:   "LOG_FORMAT",
			Message: fmt.Sprintf("json logging is required outside dev, APP_ENV is '%s'", c.AppEnv),
		}
	}
	return nil
}
