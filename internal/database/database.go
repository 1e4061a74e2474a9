// Package database provides SQL persistence for leaderboards and player
// settings on SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

// Database wraps the SQL connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database selected by cfg.Driver and runs the
// migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	_, postgres := dialect.(*PostgresDialect)

	dsn := cfg.SQLitePath
	if postgres {
		dsn = cfg.Postgres.DSN()
	} else if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if postgres {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Opened database", "driver", dialect.DriverName())
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		// Best score per player per mode
		`CREATE TABLE IF NOT EXISTS scores (
			mode TEXT NOT NULL,
			uuid TEXT NOT NULL,
			name TEXT NOT NULL,
			time TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (mode, uuid)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scores_mode_score ON scores(mode, score)`,

		// Player settings
		`CREATE TABLE IF NOT EXISTS players (
			uuid TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			style TEXT NOT NULL DEFAULT '',
			block_lead INTEGER NOT NULL DEFAULT 4,
			particles BOOLEAN NOT NULL DEFAULT TRUE,
			sound BOOLEAN NOT NULL DEFAULT TRUE,
			use_score_difficulty BOOLEAN NOT NULL DEFAULT FALSE,
			use_schematic BOOLEAN NOT NULL DEFAULT TRUE,
			use_special_blocks BOOLEAN NOT NULL DEFAULT TRUE,
			schematic_difficulty REAL NOT NULL DEFAULT 0.2,
			show_fall_message BOOLEAN NOT NULL DEFAULT TRUE,
			show_scoreboard BOOLEAN NOT NULL DEFAULT TRUE,
			selected_time INTEGER NOT NULL DEFAULT 6000,
			collected_rewards TEXT NOT NULL DEFAULT '',
			locale TEXT NOT NULL DEFAULT 'en'
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the SQL dialect in use.
func (d *Database) Dialect() Dialect {
	return d.dialect
}
