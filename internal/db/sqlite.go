package db

import (
	"strings"

	"github.com/torchdb/toolgate/internal/sqlbuild"
)

type sqliteAdapter struct{}

func (sqliteAdapter) DriverName() string        { return "sqlite" }
func (sqliteAdapter) Dialect() sqlbuild.Dialect { return sqlbuild.DialectSQLite }

// DatabaseName returns the file name without directory or extension.
func (sqliteAdapter) DatabaseName(dsn string) string {
	path := dsn
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	name = strings.TrimSuffix(name, ".db")
	name = strings.TrimSuffix(name, ".sqlite")
	name = strings.TrimSuffix(name, ".sqlite3")
	return name
}

// SQLite has no information_schema; table and column metadata come from
// sqlite_master joined with pragma_table_info.
func (sqliteAdapter) SchemaQuery(database string) (string, []any) {
	return `SELECT m.name AS table_name, p.name AS column_name, p.type AS data_type,
		CASE p."notnull" WHEN 1 THEN 'NO' ELSE 'YES' END AS is_nullable,
		p.dflt_value AS column_default
		FROM sqlite_master m
		JOIN pragma_table_info(m.name) p
		WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
		ORDER BY m.name, p.cid`, nil
}

func (sqliteAdapter) TableStructureQuery(database, table string) (string, []any) {
	return `SELECT p.name AS column_name, p.type AS data_type,
		CASE p."notnull" WHEN 1 THEN 'NO' ELSE 'YES' END AS is_nullable,
		p.dflt_value AS column_default,
		CASE WHEN p.pk > 0 THEN 'PRI' ELSE '' END AS column_key
		FROM pragma_table_info(?) p
		ORDER BY p.cid`, []any{table}
}

func (sqliteAdapter) StatsQuery(database string) (string, []any) {
	return `SELECT COUNT(*) AS table_count
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`, nil
}
