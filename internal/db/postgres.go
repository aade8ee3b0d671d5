package db

import (
	"net/url"
	"strings"

	"github.com/torchdb/toolgate/internal/sqlbuild"
)

type postgresAdapter struct{}

func (postgresAdapter) DriverName() string        { return "pgx" }
func (postgresAdapter) Dialect() sqlbuild.Dialect { return sqlbuild.DialectPostgres }

func (postgresAdapter) DatabaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

func (postgresAdapter) SchemaQuery(database string) (string, []any) {
	return `SELECT table_name, column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_catalog = $1 AND table_schema = 'public'
		ORDER BY table_name, ordinal_position`, []any{database}
}

func (postgresAdapter) TableStructureQuery(database, table string) (string, []any) {
	return `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_catalog = $1 AND table_schema = 'public' AND table_name = $2
		ORDER BY ordinal_position`, []any{database, table}
}

func (postgresAdapter) StatsQuery(database string) (string, []any) {
	// pg_total_relation_size covers table data plus indexes and toast.
	return `SELECT COUNT(*) AS table_count,
		COALESCE(SUM(c.reltuples::bigint), 0) AS total_rows,
		COALESCE(SUM(pg_total_relation_size(c.oid)), 0) AS total_size
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = 'public' AND c.relkind = 'r'`, nil
}
