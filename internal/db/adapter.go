// Package db is the database-execution collaborator: it owns the connection
// pool and runs already-built parameterized statements. Per-engine behavior
// (driver name, placeholder dialect, catalog queries) lives behind the
// Adapter interface so the dispatcher never branches on the engine.
package db

import (
	"fmt"

	"github.com/torchdb/toolgate/internal/sqlbuild"
)

// Adapter captures engine-specific behavior for one supported database.
type Adapter interface {
	// DriverName returns the database/sql driver name.
	DriverName() string

	// Dialect returns the statement-building dialect for this engine.
	Dialect() sqlbuild.Dialect

	// DatabaseName extracts the logical database name from a DSN.
	DatabaseName(dsn string) string

	// SchemaQuery returns the query and arguments listing every column of
	// every table in the database, ordered by table and ordinal position.
	SchemaQuery(database string) (string, []any)

	// TableStructureQuery returns the query and arguments describing the
	// columns of one table. The table name is passed as a bound parameter.
	TableStructureQuery(database, table string) (string, []any)

	// StatsQuery returns the query and arguments aggregating table count
	// and storage statistics for the database.
	StatsQuery(database string) (string, []any)
}

// NewAdapter returns the adapter for an engine name from configuration.
func NewAdapter(engine string) (Adapter, error) {
	switch engine {
	case "mysql":
		return mysqlAdapter{}, nil
	case "postgres":
		return postgresAdapter{}, nil
	case "sqlite":
		return sqliteAdapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported database engine %q", engine)
	}
}
