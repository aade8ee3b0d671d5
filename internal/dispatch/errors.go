package dispatch

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	passwordPattern = regexp.MustCompile(`(?i)password["']?\s*[:=]\s*["']?[^"'\s]+`)
	dsnPattern      = regexp.MustCompile(`(?i)(mysql|postgres|postgresql)://[^@\s]+@`)
)

// sanitizeDBError maps a driver error to a message safe to return to the
// caller. The full error is still logged server-side; what goes back over
// the wire must never contain credentials, hosts, or stack detail.
func sanitizeDBError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "query timed out or was cancelled"
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "access denied") || strings.Contains(lower, "authentication failed"):
		return "database authentication failed"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return "database connection timed out"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "can't connect"):
		return "unable to connect to database"
	case strings.Contains(lower, "unknown database") || strings.Contains(lower, "does not exist") && strings.Contains(lower, "database"):
		return "database not found"
	case strings.Contains(lower, "doesn't exist") || strings.Contains(lower, "no such table") || strings.Contains(lower, "does not exist"):
		return "table or column does not exist"
	case strings.Contains(lower, "duplicate entry") || strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		return "duplicate entry: a record with this value already exists"
	case strings.Contains(lower, "foreign key"):
		return "foreign key constraint violation"
	case strings.Contains(lower, "syntax error") || strings.Contains(lower, "sql syntax"):
		return "SQL syntax error"
	}

	// Fall back to the driver message with credentials redacted.
	msg := err.Error()
	msg = passwordPattern.ReplaceAllString(msg, "password=***")
	msg = dsnPattern.ReplaceAllString(msg, "$1://***@")
	return "database error: " + msg
}
