package sqlcheck

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		ident   string
		wantErr error // nil means valid
	}{
		{"simple lowercase", "users", nil},
		{"underscore prefix", "_internal", nil},
		{"mixed case with digits", "Order2Items", nil},
		{"max length", strings.Repeat("a", MaxIdentifierLen), nil},
		{"empty", "", ErrEmptyIdentifier},
		{"too long", strings.Repeat("a", MaxIdentifierLen+1), ErrIdentifierTooLong},
		{"leading digit", "2users", ErrIdentifierPattern},
		{"embedded space", "user name", ErrIdentifierPattern},
		{"semicolon", "users;", ErrIdentifierPattern},
		{"quote", "users'", ErrIdentifierPattern},
		{"backtick", "use`rs", ErrIdentifierPattern},
		{"hyphen", "user-name", ErrIdentifierPattern},
		{"dotted path", "db.users", ErrIdentifierPattern},
		{"injection attempt", "users; DROP TABLE users", ErrIdentifierPattern},
		{"reserved keyword upper", "SELECT", ErrIdentifierReserved},
		{"reserved keyword lower", "select", ErrIdentifierReserved},
		{"reserved keyword mixed", "Union", ErrIdentifierReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.ident)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateIdentifier(%q) = %v, want nil", tt.ident, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateIdentifier(%q) = %v, want %v", tt.ident, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIdentifierDeterministic(t *testing.T) {
	// Same input must always produce the same verdict.
	for i := 0; i < 3; i++ {
		if err := ValidateIdentifier("users"); err != nil {
			t.Fatalf("run %d: unexpected error %v", i, err)
		}
		if err := ValidateIdentifier("users;"); err == nil {
			t.Fatalf("run %d: expected error, got nil", i)
		}
	}
}

func TestValidateIdentifiers(t *testing.T) {
	if err := ValidateIdentifiers([]string{"id", "name", "created_at"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidateIdentifiers([]string{"id", "na me"})
	if !errors.Is(err, ErrIdentifierPattern) {
		t.Fatalf("got %v, want %v", err, ErrIdentifierPattern)
	}
}
