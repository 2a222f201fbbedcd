/*
Package config loads server configuration and the directory seed file.

PURPOSE:
  One YAML file configures the HTTP server, the database, the lifecycle
  policy and the sweep. Every key is optional: a missing file or key keeps
  the default. Environment variables override the file, and cmd/server
  flags override both.

FILE FORMAT (wfh.yaml):
  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
  database:
    path: wfh.db
  policy:
    timezone: Asia/Singapore
    top_exec_id: 130002
    withdrawal_before_days: 14
    withdrawal_after_days: 14
    force_before_months: 1
    force_after_months: 3
    stale_after_weeks: 8
    max_recurrence: 0
  sweep:
    enabled: true
    interval: 1h
  directory:
    seed_file: seed/employees.yaml

ENVIRONMENT:
  WFH_PORT, WFH_DB_PATH, WFH_TIMEZONE, WFH_TOP_EXEC_ID,
  WFH_SWEEP_INTERVAL, WFH_SWEEP_ENABLED, WFH_SEED_FILE

SEE ALSO:
  - cmd/server/main.go: Precedence of flags over this package
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // policy timezones resolve without a system zoneinfo

	"gopkg.in/yaml.v3"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

type DatabaseConfig struct {
	// Path is a SQLite file, or ":memory:".
	Path string `yaml:"path"`
}

type PolicyConfig struct {
	Timezone             string `yaml:"timezone"`
	TopExecID            int64  `yaml:"top_exec_id"`
	WithdrawalBeforeDays int    `yaml:"withdrawal_before_days"`
	WithdrawalAfterDays  int    `yaml:"withdrawal_after_days"`
	ForceBeforeMonths    int    `yaml:"force_before_months"`
	ForceAfterMonths     int    `yaml:"force_after_months"`
	StaleAfterWeeks      int    `yaml:"stale_after_weeks"`
	MaxRecurrence        int    `yaml:"max_recurrence"`
}

type SweepConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type DirectoryConfig struct {
	// SeedFile is loaded into the directory at startup when set.
	SeedFile string `yaml:"seed_file"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Policy    PolicyConfig    `yaml:"policy"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Directory DirectoryConfig `yaml:"directory"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "wfh.db"},
		Policy: PolicyConfig{
			Timezone:             "Asia/Singapore",
			TopExecID:            int64(wfh.DefaultTopExecID),
			WithdrawalBeforeDays: 14,
			WithdrawalAfterDays:  14,
			ForceBeforeMonths:    1,
			ForceAfterMonths:     3,
			StaleAfterWeeks:      8,
		},
		Sweep: SweepConfig{Enabled: true, Interval: time.Hour},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = GetEnvAsInt("WFH_PORT", c.Server.Port)
	c.Database.Path = GetEnv("WFH_DB_PATH", c.Database.Path)
	c.Policy.Timezone = GetEnv("WFH_TIMEZONE", c.Policy.Timezone)
	c.Directory.SeedFile = GetEnv("WFH_SEED_FILE", c.Directory.SeedFile)

	if v, ok := os.LookupEnv("WFH_TOP_EXEC_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WFH_TOP_EXEC_ID: %w", err)
		}
		c.Policy.TopExecID = id
	}
	if v, ok := os.LookupEnv("WFH_SWEEP_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WFH_SWEEP_INTERVAL: %w", err)
		}
		c.Sweep.Interval = d
	}
	if v, ok := os.LookupEnv("WFH_SWEEP_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WFH_SWEEP_ENABLED: %w", err)
		}
		c.Sweep.Enabled = enabled
	}
	return nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	p := c.Policy
	if p.WithdrawalBeforeDays < 0 || p.WithdrawalAfterDays < 0 || p.ForceBeforeMonths < 0 || p.ForceAfterMonths < 0 {
		return errors.New("policy windows must not be negative")
	}
	if p.StaleAfterWeeks <= 0 {
		return fmt.Errorf("policy.stale_after_weeks must be positive, got %d", p.StaleAfterWeeks)
	}
	if p.MaxRecurrence < 0 {
		return fmt.Errorf("policy.max_recurrence must not be negative, got %d", p.MaxRecurrence)
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive, got %v", c.Sweep.Interval)
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("policy.timezone: %w", err)
	}
	return nil
}

// WFHPolicy builds the lifecycle policy.
func (c Config) WFHPolicy() (wfh.Policy, error) {
	loc, err := time.LoadLocation(c.Policy.Timezone)
	if err != nil {
		return wfh.Policy{}, fmt.Errorf("config: policy.timezone: %w", err)
	}
	return wfh.Policy{
		Location:       loc,
		TopExecID:      wfh.StaffID(c.Policy.TopExecID),
		Withdrawal:     wfh.Window{BeforeDays: c.Policy.WithdrawalBeforeDays, AfterDays: c.Policy.WithdrawalAfterDays},
		Force:          wfh.Window{BeforeMonths: c.Policy.ForceBeforeMonths, AfterMonths: c.Policy.ForceAfterMonths},
		StaleAfterDays: c.Policy.StaleAfterWeeks * 7,
		MaxRecurrence:  c.Policy.MaxRecurrence,
	}, nil
}

// =============================================================================
// ENVIRONMENT HELPERS
// =============================================================================

// GetEnv returns the environment variable or fallback when unset.
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvAsInt returns the environment variable as an int, or fallback when
// unset or not a number.
func GetEnvAsInt(key string, fallback int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
