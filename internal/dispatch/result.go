package dispatch

// Error kinds surfaced to callers. Validation and permission failures are
// routine outcomes resolved before the database is touched; database errors
// are translated driver failures; internal errors are dispatcher bugs.
const (
	KindValidationError  = "validation_error"
	KindPermissionDenied = "permission_denied"
	KindDatabaseError    = "database_error"
	KindInternalError    = "internal_error"
)

// ErrorInfo describes a failed call without leaking driver internals.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is the response shape for every tool call.
type Result struct {
	Success      bool       `json:"success"`
	Data         any        `json:"data,omitempty"`
	Error        *ErrorInfo `json:"error,omitempty"`
	RowsAffected *int64     `json:"rows_affected,omitempty"`
}

func okRows(columns []string, rows []map[string]any) Result {
	if rows == nil {
		rows = []map[string]any{}
	}
	return Result{
		Success: true,
		Data: map[string]any{
			"columns": columns,
			"rows":    rows,
		},
	}
}

func okAffected(n int64) Result {
	return Result{Success: true, RowsAffected: &n}
}

func fail(kind, message string) Result {
	return Result{Success: false, Error: &ErrorInfo{Kind: kind, Message: message}}
}

// outcome returns the audit outcome string for a result.
func (r Result) outcome() string {
	if r.Success {
		return "ok"
	}
	if r.Error == nil {
		return KindInternalError
	}
	return r.Error.Kind
}

// detail returns the audit detail string for a result.
func (r Result) detail() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}
