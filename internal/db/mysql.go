package db

import (
	"strings"

	"github.com/torchdb/toolgate/internal/sqlbuild"
)

type mysqlAdapter struct{}

func (mysqlAdapter) DriverName() string        { return "mysql" }
func (mysqlAdapter) Dialect() sqlbuild.Dialect { return sqlbuild.DialectMySQL }

// DatabaseName extracts the schema name from a go-sql-driver DSN of the form
// user:pass@tcp(host:port)/dbname?params.
func (mysqlAdapter) DatabaseName(dsn string) string {
	idx := strings.LastIndex(dsn, "/")
	if idx < 0 {
		return ""
	}
	name := dsn[idx+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	return name
}

func (mysqlAdapter) SchemaQuery(database string) (string, []any) {
	return `SELECT table_name, column_name, data_type, is_nullable, column_key, column_default, extra
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`, []any{database}
}

func (mysqlAdapter) TableStructureQuery(database, table string) (string, []any) {
	return `SELECT column_name, data_type, is_nullable, column_key, column_default, extra
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, []any{database, table}
}

func (mysqlAdapter) StatsQuery(database string) (string, []any) {
	return `SELECT COUNT(*) AS table_count,
		COALESCE(SUM(table_rows), 0) AS total_rows,
		COALESCE(SUM(data_length + index_length), 0) AS total_size,
		COALESCE(SUM(data_length), 0) AS data_size,
		COALESCE(SUM(index_length), 0) AS index_size
		FROM information_schema.tables
		WHERE table_schema = ?`, []any{database}
}
