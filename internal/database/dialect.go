package database

import (
	"slices"
	"strings"
)

// Dialect covers the SQL that differs between SQLite and PostgreSQL. Queries
// in this package are written with ? placeholders and passed through Rebind.
type Dialect interface {
	// DriverName is the database/sql driver: "sqlite" or "postgres".
	DriverName() string

	// InitStatements run once on a fresh connection.
	InitStatements() []string

	// Rebind rewrites ? placeholders into the driver's form.
	Rebind(query string) string

	// Upsert returns a rebound INSERT that updates columns when a row with
	// the same key exists.
	Upsert(table string, key, columns []string) string
}

// DialectType names a dialect in configuration.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the dialect for t. Anything unknown is SQLite.
func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return &PostgresDialect{}
	}
	return &SQLiteDialect{}
}

// upsert builds INSERT ... ON CONFLICT with ? placeholders. Both dialects
// accept the same syntax.
func upsert(table string, key, columns []string) string {
	all := append(slices.Clone(key), columns...)
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")

	stmt := "INSERT INTO " + table + " (" + strings.Join(all, ", ") + ") VALUES (" + marks + ")" +
		" ON CONFLICT (" + strings.Join(key, ", ") + ")"
	if len(columns) == 0 {
		return stmt + " DO NOTHING"
	}

	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = c + " = excluded." + c
	}
	return stmt + " DO UPDATE SET " + strings.Join(sets, ", ")
}
