package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLConfig holds everything needed to reach the relational store.
type SQLConfig struct {
	Driver   string // "postgres" | "mysql"
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// DSN builds the driver-specific connection string.
func (c SQLConfig) DSN() (string, error) {
	switch c.Driver {
	case "postgres":
		return buildPostgresDSN(c), nil
	case "mysql":
		return buildMySQLDSN(c), nil
	default:
		return "", fmt.Errorf("unsupported relational driver: %q", c.Driver)
	}
}

// OpenSQL opens a relational database handle and verifies connectivity
// with a bounded ping. The caller owns the handle and must Close it.
func OpenSQL(ctx context.Context, cfg SQLConfig) (*sql.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	// One batch job, one writer — a small pool is plenty.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}
