// Package db opens the source and target database handles. It carries no
// business logic; schema and data mutation belong to the replication engine.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"starmirror/pkg/errors"
	"starmirror/pkg/models"
)

// OpenSource opens and pings the operational PostgreSQL database.
func OpenSource(cfg models.Source) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode)

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.ConnectionError("Failed to open source connection", err).
			WithContext("host", cfg.Host).
			WithContext("database", cfg.Database)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.ConnectionError("Failed to connect to source database", err).
			WithContext("host", cfg.Host).
			WithContext("database", cfg.Database)
	}

	return conn, nil
}

// OpenTarget opens the file-based mirror database, creating parent
// directories as needed.
func OpenTarget(cfg models.Target) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Database); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, errors.ConnectionError("Failed to create target directory", err).
				WithContext("path", cfg.Database)
		}
	}

	conn, err := sql.Open("sqlite3", cfg.Database)
	if err != nil {
		return nil, errors.ConnectionError("Failed to open target database", err).
			WithContext("path", cfg.Database)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.ConnectionError("Failed to connect to target database", err).
			WithContext("path", cfg.Database)
	}

	// The full-replace load strategy is single-writer
	conn.SetMaxOpenConns(1)

	return conn, nil
}

// Close closes a handle. Safe to call with nil and safe to call twice.
func Close(conn *sql.DB) {
	if conn != nil {
		_ = conn.Close()
	}
}
