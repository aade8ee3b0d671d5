package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/torchdb/toolgate/internal/sqlbuild"
)

// Pool configuration. Values mirror what a single-agent workload needs;
// QueryTimeout is overridable through configuration.
const (
	connectTimeout  = 10 * time.Second
	maxIdleConns    = 5
	maxOpenConns    = 10
	connMaxLifetime = time.Hour
)

// RowSet is the result of a row-returning statement: column names in result
// order plus one map per row.
type RowSet struct {
	Columns []string
	Rows    []map[string]any
}

// Executor runs parameterized statements against one database. Each call
// acquires its own connection from the pool and releases it before
// returning; no lock is held across execution.
type Executor struct {
	db       *sql.DB
	adapter  Adapter
	database string
	timeout  time.Duration
	maxRows  int
	logger   *zap.Logger
}

// Open connects to the database behind the adapter, configures the pool and
// verifies connectivity with a bounded ping.
func Open(ctx context.Context, adapter Adapter, dsn string, timeout time.Duration, maxRows int, logger *zap.Logger) (*Executor, error) {
	handle, err := sql.Open(adapter.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", adapter.DriverName(), err)
	}
	handle.SetMaxIdleConns(maxIdleConns)
	handle.SetMaxOpenConns(maxOpenConns)
	handle.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := handle.PingContext(pingCtx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping %s: %w", adapter.DriverName(), err)
	}

	return &Executor{
		db:       handle,
		adapter:  adapter,
		database: adapter.DatabaseName(dsn),
		timeout:  timeout,
		maxRows:  maxRows,
		logger:   logger,
	}, nil
}

// Adapter returns the engine adapter this executor was opened with.
func (e *Executor) Adapter() Adapter { return e.adapter }

// DatabaseName returns the logical database name from the DSN.
func (e *Executor) DatabaseName() string { return e.database }

// Query runs a row-returning statement and scans every row into a map.
// Results are truncated at the configured row cap; truncation is logged,
// not an error.
func (e *Executor) Query(ctx context.Context, stmt sqlbuild.Statement) (*RowSet, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, stmt.SQL, argsOf(stmt)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return e.scanRows(rows)
}

// QueryRaw runs an adapter-supplied catalog query with plain arguments.
func (e *Executor) QueryRaw(ctx context.Context, query string, args []any) (*RowSet, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return e.scanRows(rows)
}

// Exec runs a statement that returns no rows and reports the affected count.
func (e *Executor) Exec(ctx context.Context, stmt sqlbuild.Statement) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.db.ExecContext(ctx, stmt.SQL, argsOf(stmt)...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Some engines cannot report the count; the statement still ran.
		return 0, nil
	}
	return affected, nil
}

// Close releases the pool.
func (e *Executor) Close() error { return e.db.Close() }

func (e *Executor) scanRows(rows *sql.Rows) (*RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	set := &RowSet{Columns: columns}
	for rows.Next() {
		if e.maxRows > 0 && len(set.Rows) >= e.maxRows {
			e.logger.Warn("result truncated at row cap", zap.Int("max_rows", e.maxRows))
			break
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		set.Rows = append(set.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func argsOf(stmt sqlbuild.Statement) []any {
	args := make([]any, len(stmt.Args))
	for i, v := range stmt.Args {
		args[i] = v.Arg()
	}
	return args
}
