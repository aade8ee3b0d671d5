package audit

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse call_events table for the
// audit listing endpoint.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// ListEventsParams holds filters and pagination for audit event listing.
type ListEventsParams struct {
	Identity  *string
	Tool      *string
	Outcome   *string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

// ListEvents returns paginated, filtered call events newest first, plus the
// total count matching the filters.
func (r *Reader) ListEvents(ctx context.Context, params ListEventsParams) ([]CallEvent, int, error) {
	conditions := []string{"1 = 1"}
	var args []any

	if params.Identity != nil {
		conditions = append(conditions, "identity = @identity")
		args = append(args, clickhouse.Named("identity", *params.Identity))
	}
	if params.Tool != nil {
		conditions = append(conditions, "tool = @tool")
		args = append(args, clickhouse.Named("tool", *params.Tool))
	}
	if params.Outcome != nil {
		conditions = append(conditions, "outcome = @outcome")
		args = append(args, clickhouse.Named("outcome", *params.Outcome))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 50
	}
	offset := (params.Page - 1) * params.PageSize

	var total uint64
	countQuery := "SELECT count() FROM call_events WHERE " + where
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListEvents count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT request_id, timestamp, identity, role, tool, operation, tbl,
		       outcome, detail, query_preview, rows_affected, row_count, latency_ms
		FROM call_events
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT %d OFFSET %d`, where, params.PageSize, offset)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEvents query: %w", err)
	}
	defer rows.Close()

	var events []CallEvent
	for rows.Next() {
		var e CallEvent
		var rowCount uint32
		if err := rows.Scan(
			&e.RequestID, &e.Timestamp, &e.Identity, &e.Role, &e.Tool,
			&e.Operation, &e.Table, &e.Outcome, &e.Detail, &e.QueryPreview,
			&e.RowsAffected, &rowCount, &e.LatencyMs,
		); err != nil {
			return nil, 0, fmt.Errorf("ListEvents scan: %w", err)
		}
		e.RowCount = int(rowCount)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListEvents rows: %w", err)
	}

	return events, int(total), nil
}
