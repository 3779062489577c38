// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/billbatista/eventfund/store"
)

const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

const defaultDatabaseURL = "host=localhost port=5432 user=postgres password=postgres dbname=expenses sslmode=disable"

type Config struct {
	Addr             string
	Store            string
	BadgerDir        string
	DatabaseURL      string
	SQLitePath       string
	AuditDriver      string
	AuditDSN         string
	KeyLayout        store.Layout
	SessionTTL       time.Duration
	ActiveWindowDays int
	AuditBuffer      int
}

// Load reads EVENTFUND_* variables, falling back to defaults for unset ones.
func Load() (Config, error) {
	cfg := Config{
		Addr:        getEnvOrDefault("EVENTFUND_ADDR", ":5000"),
		Store:       getEnvOrDefault("EVENTFUND_STORE", StoreBadger),
		BadgerDir:   getEnvOrDefault("EVENTFUND_BADGER_DIR", "./data"),
		DatabaseURL: getEnvOrDefault("EVENTFUND_DATABASE_URL", defaultDatabaseURL),
		SQLitePath:  getEnvOrDefault("EVENTFUND_SQLITE_PATH", "./eventfund.db"),
		AuditDriver: getEnvOrDefault("EVENTFUND_AUDIT_DRIVER", "sqlite3"),
		AuditDSN:    getEnvOrDefault("EVENTFUND_AUDIT_DSN", "./audit.db"),
		KeyLayout:   store.Layout(getEnvOrDefault("EVENTFUND_KEY_LAYOUT", string(store.LayoutNamespaced))),
	}

	switch cfg.Store {
	case StoreBadger, StorePostgres, StoreSQLite, StoreMemory:
	default:
		return Config{}, fmt.Errorf("EVENTFUND_STORE: unknown store %q", cfg.Store)
	}

	switch cfg.AuditDriver {
	case "sqlite3", "postgres", "":
	default:
		return Config{}, fmt.Errorf("EVENTFUND_AUDIT_DRIVER: unsupported driver %q", cfg.AuditDriver)
	}

	if _, err := store.NewKeyspace(cfg.KeyLayout); err != nil {
		return Config{}, fmt.Errorf("EVENTFUND_KEY_LAYOUT: %w", err)
	}

	var err error
	cfg.SessionTTL, err = time.ParseDuration(getEnvOrDefault("EVENTFUND_SESSION_TTL", "168h"))
	if err != nil || cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("EVENTFUND_SESSION_TTL: must be a positive duration")
	}

	cfg.ActiveWindowDays, err = positiveInt("EVENTFUND_ACTIVE_WINDOW_DAYS", "15", true)
	if err != nil {
		return Config{}, err
	}
	cfg.AuditBuffer, err = positiveInt("EVENTFUND_AUDIT_BUFFER", "100", false)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func positiveInt(key, defaultValue string, allowZero bool) (int, error) {
	n, err := strconv.Atoi(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 || (n == 0 && !allowZero) {
		return 0, fmt.Errorf("%s: %d is out of range", key, n)
	}
	return n, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
