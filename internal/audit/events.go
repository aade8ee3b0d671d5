// Package audit records one event per tool call, whether the call was
// allowed, denied, or failed. Writers must never block the dispatcher.
package audit

import "time"

// EventWriter is the interface for recording call events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *CallEvent)
	Close()
}

// CallEvent is the audit record for a single tool call.
type CallEvent struct {
	RequestID    string
	Timestamp    time.Time
	Identity     string
	Role         string
	Tool         string
	Operation    string // OperationKind name
	Table        string // empty for raw-SQL and whole-database tools
	Outcome      string // "ok", "validation_error", "permission_denied", "database_error", "internal_error"
	Detail       string // deny/rejection reason or sanitized error message
	QueryPreview string // first QueryPreviewLength chars of the statement text
	RowsAffected int64
	RowCount     int
	LatencyMs    float32
}

// QueryPreviewLength is the max chars of statement text stored per event.
const QueryPreviewLength = 500

// TruncateQuery returns the first maxLen runes of a statement for preview
// storage without splitting a multi-byte character.
func TruncateQuery(query string, maxLen int) string {
	runes := []rune(query)
	if len(runes) <= maxLen {
		return query
	}
	return string(runes[:maxLen])
}
