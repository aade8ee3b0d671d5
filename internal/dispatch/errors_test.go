package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSanitizeDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, "query timed out or was cancelled"},
		{"cancelled", context.Canceled, "query timed out or was cancelled"},
		{"access denied", errors.New("Error 1045: Access denied for user 'root'@'10.0.0.1'"), "database authentication failed"},
		{"timeout", errors.New("read tcp 10.0.0.1:3306: i/o timeout"), "database connection timed out"},
		{"refused", errors.New("dial tcp 10.0.0.1:3306: connection refused"), "unable to connect to database"},
		{"unknown database", errors.New("Error 1049: Unknown database 'app'"), "database not found"},
		{"missing table", errors.New("Error 1146: Table 'app.ghosts' doesn't exist"), "table or column does not exist"},
		{"no such table", errors.New("no such table: ghosts"), "table or column does not exist"},
		{"duplicate", errors.New("Error 1062: Duplicate entry 'a@b.c' for key 'email'"), "duplicate entry: a record with this value already exists"},
		{"foreign key", errors.New("Error 1452: a foreign key constraint fails"), "foreign key constraint violation"},
		{"syntax", errors.New("Error 1064: You have an error in your SQL syntax"), "SQL syntax error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeDBError(tt.err); got != tt.want {
				t.Fatalf("sanitizeDBError = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeDBErrorRedactsCredentials(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		secret string
	}{
		{"password field", errors.New(`driver: bad conn password=hunter2 host=db`), "hunter2"},
		{"dsn user info", errors.New(`parse failed for mysql://root:hunter2@db:3306/app`), "hunter2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeDBError(tt.err)
			if strings.Contains(got, tt.secret) {
				t.Fatalf("secret leaked: %q", got)
			}
			if !strings.HasPrefix(got, "database error: ") {
				t.Fatalf("unexpected fallback message: %q", got)
			}
		})
	}
}
