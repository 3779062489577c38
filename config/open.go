package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/billbatista/eventfund/eventlogger"
	"github.com/billbatista/eventfund/store"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// OpenStore opens the configured document store, creating its table or
// directory when needed.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Store {
	case StoreMemory:
		return store.NewMemory(), nil
	case StoreBadger:
		b, err := store.OpenBadger(c.BadgerDir, slog.Default())
		if err != nil {
			return nil, err
		}
		return b, nil
	case StorePostgres, StoreSQLite:
		driver, dsn := "postgres", c.DatabaseURL
		if c.Store == StoreSQLite {
			driver, dsn = "sqlite3", c.SQLitePath
		}
		s, err := openSQLStore(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", c.Store)
	}
}

func (c Config) Keyspace() (store.Keyspace, error) {
	return store.NewKeyspace(c.KeyLayout)
}

// OpenAuditDB returns nil when auditing is disabled by an empty driver.
func (c Config) OpenAuditDB(ctx context.Context) (*sql.DB, error) {
	if c.AuditDriver == "" {
		return nil, nil
	}
	return openDB(ctx, c.AuditDriver, c.AuditDSN)
}

// StartAudit starts an audit worker on the audit database. stop drains the
// worker and closes the database. With auditing disabled the logger discards.
func (c Config) StartAudit(ctx context.Context) (audit eventlogger.Logger, stop func(), err error) {
	db, err := c.OpenAuditDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return eventlogger.Discard, func() {}, nil
	}

	evtlogger := eventlogger.NewSqlEventLogger(db)
	if err := evtlogger.CreateTable(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("creating audit table: %w", err)
	}
	worker := eventlogger.NewWorker(evtlogger, c.AuditBuffer)
	worker.Start()
	return worker, func() {
		worker.Shutdown()
		db.Close()
	}, nil
}

func openSQLStore(ctx context.Context, driver, dsn string) (*store.SQL, error) {
	db, err := openDB(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	s := store.NewSQL(db)
	if err := s.CreateTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return s, nil
}

func openDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}
