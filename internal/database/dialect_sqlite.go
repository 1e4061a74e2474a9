package database

// SQLiteDialect targets modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite"
}

// InitStatements enables WAL so the feed can read while runs are written.
func (d *SQLiteDialect) InitStatements() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

// Rebind returns query unchanged; SQLite understands ?.
func (d *SQLiteDialect) Rebind(query string) string {
	return query
}

// Upsert needs SQLite 3.24 or later.
func (d *SQLiteDialect) Upsert(table string, key, columns []string) string {
	return upsert(table, key, columns)
}
