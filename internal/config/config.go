package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Backend names accepted in DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendGorm   = "gorm"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendGorm}

type Config struct {
	// HTTP Server
	Port string `env:"PORT" envDefault:"8081"`

	// Storage
	DataBackend  string `env:"DATA_BACKEND" envDefault:"memory"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/expenses.db"`
	GormDBPath   string `env:"GORM_DB_PATH" envDefault:"./data/expenses-gorm.db"`
	SeedFile     string `env:"SEED_FILE"`

	// AMQP, optional: empty URL disables change events
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"expenses"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"expense_changes"`

	// Categories and analytics
	CategoryMergePolicy string        `env:"CATEGORY_MERGE_POLICY" envDefault:"replace"`
	AnalyticsCacheSize  int           `env:"ANALYTICS_CACHE_SIZE" envDefault:"24"`
	AnalyticsCacheTTL   time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"5m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		errs = append(errs, checkDBPath("SQLite", c.SQLiteDBPath)...)
	case BackendGorm:
		errs = append(errs, checkDBPath("gorm", c.GormDBPath)...)
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.CategoryMergePolicy) {
	case "replace", "union":
	default:
		errs = append(errs, fmt.Sprintf("invalid category merge policy '%s': must be 'replace' or 'union'", c.CategoryMergePolicy))
	}

	if c.AnalyticsCacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid analytics cache size %d: must be at least 1", c.AnalyticsCacheSize))
	}
	if c.AnalyticsCacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid analytics cache TTL %v: must be at least 1 second", c.AnalyticsCacheTTL))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateWatcher checks what the change watcher needs on top of Validate:
// a broker to consume from and a store shared with the API server. The
// memory backend lives inside one process, so the watcher would only ever
// read its own empty copy.
func (c *Config) ValidateWatcher() error {
	var errs []string
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP URL is required for the watcher")
	}
	if c.DataBackend == BackendMemory {
		errs = append(errs, fmt.Sprintf("data backend '%s' is not shared between processes: use '%s' or '%s' for the watcher", BackendMemory, BackendSQLite, BackendGorm))
	}
	if len(errs) > 0 {
		return fmt.Errorf("watcher configuration invalid:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func checkDBPath(name, path string) []string {
	if path == "" {
		return []string{fmt.Sprintf("%s database path cannot be empty when using %s backend", name, strings.ToLower(name))}
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return []string{fmt.Sprintf("cannot create %s database directory '%s': %v", name, dir, err)}
		}
	}
	return nil
}
