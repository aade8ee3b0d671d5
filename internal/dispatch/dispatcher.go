// Package dispatch orchestrates tool calls: argument validation, role
// resolution, permission gating, statement construction, execution, result
// shaping, and audit emission. Every call is stateless; role and validation
// are recomputed per call against the startup configuration snapshot.
package dispatch

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/torchdb/toolgate/internal/audit"
	"github.com/torchdb/toolgate/internal/config"
	"github.com/torchdb/toolgate/internal/db"
	"github.com/torchdb/toolgate/internal/rbac"
	"github.com/torchdb/toolgate/internal/sqlbuild"
	"github.com/torchdb/toolgate/internal/sqlcheck"
)

// Executor is the database-execution collaborator. db.Executor satisfies it;
// tests substitute call-counting stubs.
type Executor interface {
	Query(ctx context.Context, stmt sqlbuild.Statement) (*db.RowSet, error)
	QueryRaw(ctx context.Context, query string, args []any) (*db.RowSet, error)
	Exec(ctx context.Context, stmt sqlbuild.Statement) (int64, error)
	Adapter() db.Adapter
	DatabaseName() string
}

// rawQueryKinds are the statement kinds execute_safe_query accepts. Admin
// statements (GRANT/REVOKE) are never runnable through the raw tool.
var rawQueryKinds = map[rbac.OperationKind]bool{
	rbac.OpSchemaRead:  true,
	rbac.OpRead:        true,
	rbac.OpWrite:       true,
	rbac.OpSchemaWrite: true,
}

// ToolCall is one parsed invocation from the transport.
type ToolCall struct {
	Tool      string
	Arguments map[string]any
}

// Dispatcher routes tool calls through validation and the permission gate
// before execution. It holds no per-call state and no lock is held across
// the database execution step.
type Dispatcher struct {
	cfg      *config.Snapshot
	resolver *rbac.Resolver
	exec     Executor
	writer   audit.EventWriter
	logger   *zap.Logger

	tools   map[string]*ToolDef
	ordered []ToolDef
}

// New builds a Dispatcher. Tool schemas are compiled here so a malformed
// schema fails startup instead of the first call.
func New(cfg *config.Snapshot, exec Executor, writer audit.EventWriter, logger *zap.Logger) (*Dispatcher, error) {
	byName, ordered, err := compileTools()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		cfg:      cfg,
		resolver: rbac.NewResolver(cfg.Admins, cfg.Writers, cfg.Readers),
		exec:     exec,
		writer:   writer,
		logger:   logger,
		tools:    byName,
		ordered:  ordered,
	}, nil
}

// Tools returns the tool definitions in listing order.
func (d *Dispatcher) Tools() []ToolDef { return d.ordered }

// callState carries audit metadata accumulated while handling one call.
type callState struct {
	op           rbac.OperationKind
	table        string
	preview      string
	rowsAffected int64
	rowCount     int
}

// Dispatch runs one tool call end to end. It always returns a structured
// Result and always emits exactly one audit event, whatever the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, call ToolCall) Result {
	start := time.Now()
	requestID := uuid.New().String()

	identity, _ := call.Arguments["user"].(string)
	role := d.resolver.Resolve(identity)

	st := &callState{}
	res := d.handle(ctx, call, role, st)

	event := &audit.CallEvent{
		RequestID:    requestID,
		Timestamp:    time.Now(),
		Identity:     identity,
		Role:         role.String(),
		Tool:         call.Tool,
		Operation:    st.op.String(),
		Table:        st.table,
		Outcome:      res.outcome(),
		Detail:       res.detail(),
		QueryPreview: audit.TruncateQuery(st.preview, audit.QueryPreviewLength),
		RowsAffected: st.rowsAffected,
		RowCount:     st.rowCount,
		LatencyMs:    float32(time.Since(start)) / float32(time.Millisecond),
	}
	d.writer.Write(event)

	if !res.Success {
		d.logger.Info("tool call rejected or failed",
			zap.String("request_id", requestID),
			zap.String("tool", call.Tool),
			zap.String("identity", identity),
			zap.String("outcome", event.Outcome),
			zap.String("detail", event.Detail),
		)
	}
	return res
}

func (d *Dispatcher) handle(ctx context.Context, call ToolCall, role rbac.Role, st *callState) Result {
	tool, ok := d.tools[call.Tool]
	if !ok {
		return fail(KindValidationError, "unknown tool: "+call.Tool)
	}
	if err := tool.compiled.Validate(toJSONValue(call.Arguments)); err != nil {
		return fail(KindValidationError, "invalid arguments: "+err.Error())
	}

	switch call.Tool {
	case "execute_safe_query":
		return d.execSafeQuery(ctx, call.Arguments, role, st)
	case "select_table_data":
		return d.selectTableData(ctx, call.Arguments, role, st)
	case "insert_table_data":
		return d.insertTableData(ctx, call.Arguments, role, st)
	case "update_table_data":
		return d.updateTableData(ctx, call.Arguments, role, st)
	case "delete_table_data":
		return d.deleteTableData(ctx, call.Arguments, role, st)
	case "discover_database_schema":
		return d.discoverSchema(ctx, role, st)
	case "get_table_structure":
		return d.tableStructure(ctx, call.Arguments, role, st)
	case "create_table_secure":
		return d.createTable(ctx, call.Arguments, role, st)
	case "get_database_statistics":
		return d.databaseStatistics(ctx, role, st)
	case "check_user_permissions":
		return d.checkPermissions(call.Arguments, role, st)
	default:
		return fail(KindInternalError, "tool registered without a handler: "+call.Tool)
	}
}

// authorize maps a gate denial to a permission_denied result, nil otherwise.
func authorize(role rbac.Role, op rbac.OperationKind) *Result {
	err := rbac.Authorize(role, op)
	if err == nil {
		return nil
	}
	res := fail(KindPermissionDenied, err.Error())
	return &res
}

func (d *Dispatcher) execSafeQuery(ctx context.Context, args map[string]any, role rbac.Role, st *callState) Result {
	query, _ := args["query"].(string)
	st.preview = query

	kind, err := sqlcheck.ScanRawSQL(query, rawQueryKinds)
	st.op = kind
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	if res := authorize(role, kind); res != nil {
		return *res
	}

	var params []any
	if raw, ok := args["params"].([]any); ok {
		params = raw
	}
	vals, err := sqlbuild.FromJSONList(params)
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	stmt := sqlbuild.Statement{SQL: query, Args: vals}

	if kind == rbac.OpRead || kind == rbac.OpSchemaRead {
		set, err := d.exec.Query(ctx, stmt)
		if err != nil {
			return d.dbFailure(err)
		}
		st.rowCount = len(set.Rows)
		return okRows(set.Columns, set.Rows)
	}

	affected, err := d.exec.Exec(ctx, stmt)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowsAffected = affected
	return okAffected(affected)
}

func (d *Dispatcher) selectTableData(ctx context.Context, args map[string]any, role rbac.Role, st *callState) Result {
	st.op = rbac.OpRead
	table, _ := args["table"].(string)
	st.table = table

	if res := authorize(role, rbac.OpRead); res != nil {
		return *res
	}

	var columns []string
	if raw, ok := args["columns"].([]any); ok {
		for _, c := range raw {
			s, _ := c.(string)
			columns = append(columns, s)
		}
	}
	where, err := assignmentsFromMap(args["where_conditions"])
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	orderBy, _ := args["order_by"].(string)

	stmt, err := sqlbuild.BuildSelect(d.exec.Adapter().Dialect(), table, sqlbuild.SelectOpts{
		Columns:      columns,
		Where:        where,
		OrderBy:      orderBy,
		Limit:        intArg(args, "limit"),
		Offset:       intArg(args, "offset"),
		DefaultLimit: d.cfg.DefaultLimit,
		MaxLimit:     d.cfg.MaxLimit,
	})
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	st.preview = stmt.SQL

	set, err := d.exec.Query(ctx, stmt)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowCount = len(set.Rows)
	return okRows(set.Columns, set.Rows)
}

func (d *Dispatcher) insertTableData(ctx context.Context, args map[string]any, role rbac.Role, st *callState) Result {
	st.op = rbac.OpWrite
	table, _ := args["table"].(string)
	st.table = table

	if res := authorize(role, rbac.OpWrite); res != nil {
		return *res
	}

	rows, err := insertRows(args["data"])
	if err != nil {
		return fail(KindValidationError, err.Error())
	}

	stmt, err := sqlbuild.BuildInsert(d.exec.Adapter().Dialect(), table, rows)
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	st.preview = stmt.SQL

	affected, err := d.exec.Exec(ctx, stmt)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowsAffected = affected
	return okAffected(affected)
}

func (d *Dispatcher) updateTableData(ctx context.Context, args map[string]any, role rbac.Role, st *callState) Result {
	st.op = rbac.OpWrite
	table, _ := args["table"].(string)
	st.table = table

	if res := authorize(role, rbac.OpWrite); res != nil {
		return *res
	}

	set, err := assignmentsFromMap(args["data"])
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	where, err := assignmentsFromMap(args["where_conditions"])
	if err != nil {
		return fail(KindValidationError, err.Error())
	}

	stmt, err := sqlbuild.BuildUpdate(d.exec.Adapter().Dialect(), table, set, where)
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	st.preview = stmt.SQL

	affected, err := d.exec.Exec(ctx, stmt)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowsAffected = affected
	return okAffected(affected)
}

func (d *Dispatcher) deleteTableData(ctx context.Context, args map[string]any, role rbac.Role, st *callState) Result {
	st.op = rbac.OpWrite
	table, _ := args["table"].(string)
	st.table = table

	if res := authorize(role, rbac.OpWrite); res != nil {
		return *res
	}

	where, err := assignmentsFromMap(args["where_conditions"])
	if err != nil {
		return fail(KindValidationError, err.Error())
	}

	stmt, err := sqlbuild.BuildDelete(d.exec.Adapter().Dialect(), table, where)
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	st.preview = stmt.SQL

	affected, err := d.exec.Exec(ctx, stmt)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowsAffected = affected
	return okAffected(affected)
}

func (d *Dispatcher) discoverSchema(ctx context.Context, role rbac.Role, st *callState) Result {
	st.op = rbac.OpSchemaRead
	if res := authorize(role, rbac.OpSchemaRead); res != nil {
		return *res
	}

	query, qargs := d.exec.Adapter().SchemaQuery(d.exec.DatabaseName())
	st.preview = query

	set, err := d.exec.QueryRaw(ctx, query, qargs)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowCount = len(set.Rows)
	return okRows(set.Columns, set.Rows)
}

func (d *Dispatcher) tableStructure(ctx context.Context, args map[string]any, role rbac.Role, st *callState) Result {
	st.op = rbac.OpSchemaRead
	table, _ := args["table"].(string)
	st.table = table

	if res := authorize(role, rbac.OpSchemaRead); res != nil {
		return *res
	}
	if err := sqlcheck.ValidateIdentifier(table); err != nil {
		return fail(KindValidationError, err.Error())
	}

	query, qargs := d.exec.Adapter().TableStructureQuery(d.exec.DatabaseName(), table)
	st.preview = query

	set, err := d.exec.QueryRaw(ctx, query, qargs)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowCount = len(set.Rows)
	return okRows(set.Columns, set.Rows)
}

func (d *Dispatcher) createTable(ctx context.Context, args map[string]any, role rbac.Role, st *callState) Result {
	st.op = rbac.OpSchemaWrite
	table, _ := args["table"].(string)
	st.table = table

	if res := authorize(role, rbac.OpSchemaWrite); res != nil {
		return *res
	}

	rawCols, _ := args["columns"].(map[string]any)
	cols := make([]sqlbuild.ColumnDef, 0, len(rawCols))
	for _, name := range sortedKeys(rawCols) {
		typ, _ := rawCols[name].(string)
		cols = append(cols, sqlbuild.ColumnDef{Name: name, Type: typ})
	}

	stmt, err := sqlbuild.BuildCreateTable(d.exec.Adapter().Dialect(), table, cols)
	if err != nil {
		return fail(KindValidationError, err.Error())
	}
	st.preview = stmt.SQL

	if _, err := d.exec.Exec(ctx, stmt); err != nil {
		return d.dbFailure(err)
	}
	return okAffected(0)
}

func (d *Dispatcher) databaseStatistics(ctx context.Context, role rbac.Role, st *callState) Result {
	st.op = rbac.OpSchemaRead
	if res := authorize(role, rbac.OpSchemaRead); res != nil {
		return *res
	}

	query, qargs := d.exec.Adapter().StatsQuery(d.exec.DatabaseName())
	st.preview = query

	set, err := d.exec.QueryRaw(ctx, query, qargs)
	if err != nil {
		return d.dbFailure(err)
	}
	st.rowCount = len(set.Rows)
	return okRows(set.Columns, set.Rows)
}

func (d *Dispatcher) checkPermissions(args map[string]any, role rbac.Role, st *callState) Result {
	st.op = rbac.OpSchemaRead
	identity, _ := args["user"].(string)

	if role == rbac.RoleUnauthorized {
		return fail(KindPermissionDenied, rbac.ErrUnknownIdentity.Error())
	}
	return Result{
		Success: true,
		Data: map[string]any{
			"username":  identity,
			"role":      role.String(),
			"can_read":  role.CanRead(),
			"can_write": role.CanWrite(),
			"can_admin": role.CanAdmin(),
		},
	}
}

// dbFailure logs the raw driver error and returns the sanitized version.
func (d *Dispatcher) dbFailure(err error) Result {
	d.logger.Error("database execution failed", zap.Error(err))
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fail(KindDatabaseError, "query timed out or was cancelled")
	}
	return fail(KindDatabaseError, sanitizeDBError(err))
}

// assignmentsFromMap converts a JSON object of column to value into sorted
// assignments. Sorting keeps statement text byte-identical across calls with
// the same arguments, which matters for testing and audit previews.
func assignmentsFromMap(raw any) ([]sqlbuild.Assignment, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("expected an object of column to value")
	}
	out := make([]sqlbuild.Assignment, 0, len(m))
	for _, k := range sortedKeys(m) {
		v, err := sqlbuild.FromJSON(m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, sqlbuild.Assignment{Column: k, Value: v})
	}
	return out, nil
}

// insertRows normalizes the data argument (object or array of objects) into
// assignment rows sharing the first row's column order. Columns missing from
// later rows bind NULL; keys outside the first row's column set are ignored.
func insertRows(raw any) ([][]sqlbuild.Assignment, error) {
	var maps []map[string]any
	switch x := raw.(type) {
	case map[string]any:
		maps = []map[string]any{x}
	case []any:
		for _, item := range x {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.New("data array must contain objects")
			}
			maps = append(maps, m)
		}
	default:
		return nil, errors.New("data must be an object or an array of objects")
	}
	if len(maps) == 0 || len(maps[0]) == 0 {
		return nil, errors.New("no data to insert")
	}

	columns := sortedKeys(maps[0])
	rows := make([][]sqlbuild.Assignment, 0, len(maps))
	for _, m := range maps {
		row := make([]sqlbuild.Assignment, 0, len(columns))
		for _, col := range columns {
			val := sqlbuild.Null()
			if rawVal, ok := m[col]; ok {
				v, err := sqlbuild.FromJSON(rawVal)
				if err != nil {
					return nil, err
				}
				val = v
			}
			row = append(row, sqlbuild.Assignment{Column: col, Value: val})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func intArg(args map[string]any, key string) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	if i, ok := args[key].(int); ok {
		return i
	}
	return 0
}
