package database

import (
	"strconv"
	"strings"
)

// PostgresDialect targets github.com/lib/pq.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// InitStatements is empty; the schema needs no session settings.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

// Rebind numbers the placeholders: the n-th ? becomes $n.
func (d *PostgresDialect) Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, part := range strings.SplitAfter(query, "?") {
		if !strings.HasSuffix(part, "?") {
			b.WriteString(part)
			continue
		}
		n++
		b.WriteString(part[:len(part)-1])
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

func (d *PostgresDialect) Upsert(table string, key, columns []string) string {
	return d.Rebind(upsert(table, key, columns))
}
