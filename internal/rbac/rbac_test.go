package rbac

import (
	"errors"
	"testing"
)

func TestResolverMembership(t *testing.T) {
	r := NewResolver(
		[]string{"alice"},
		[]string{"bob"},
		[]string{"carol", "dave"},
	)

	tests := []struct {
		identity string
		want     Role
	}{
		{"alice", RoleAdmin},
		{"bob", RoleWriter},
		{"carol", RoleReader},
		{"dave", RoleReader},
		{"mallory", RoleUnauthorized},
		{"", RoleUnauthorized},
		{"Alice", RoleUnauthorized}, // identities are case-sensitive
	}
	for _, tt := range tests {
		if got := r.Resolve(tt.identity); got != tt.want {
			t.Errorf("Resolve(%q) = %v, want %v", tt.identity, got, tt.want)
		}
	}
}

func TestResolverPrecedence(t *testing.T) {
	// An identity in several lists gets the strongest role.
	r := NewResolver(
		[]string{"eve"},
		[]string{"eve", "frank"},
		[]string{"eve", "frank"},
	)
	if got := r.Resolve("eve"); got != RoleAdmin {
		t.Fatalf("Resolve(eve) = %v, want %v", got, RoleAdmin)
	}
	if got := r.Resolve("frank"); got != RoleWriter {
		t.Fatalf("Resolve(frank) = %v, want %v", got, RoleWriter)
	}
}

func TestResolverEmptyConfig(t *testing.T) {
	r := NewResolver(nil, nil, nil)
	if got := r.Resolve("anyone"); got != RoleUnauthorized {
		t.Fatalf("Resolve on empty config = %v, want %v", got, RoleUnauthorized)
	}
}

func TestAuthorizeMatrix(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		op      OperationKind
		allowed bool
	}{
		{"reader read", RoleReader, OpRead, true},
		{"reader schema read", RoleReader, OpSchemaRead, true},
		{"reader write", RoleReader, OpWrite, false},
		{"reader schema write", RoleReader, OpSchemaWrite, false},
		{"reader admin", RoleReader, OpAdmin, false},
		{"writer read", RoleWriter, OpRead, true},
		{"writer schema read", RoleWriter, OpSchemaRead, true},
		{"writer write", RoleWriter, OpWrite, true},
		{"writer schema write", RoleWriter, OpSchemaWrite, false},
		{"writer admin", RoleWriter, OpAdmin, false},
		{"admin read", RoleAdmin, OpRead, true},
		{"admin write", RoleAdmin, OpWrite, true},
		{"admin schema write", RoleAdmin, OpSchemaWrite, true},
		{"admin admin", RoleAdmin, OpAdmin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.role, tt.op)
			if tt.allowed && err != nil {
				t.Fatalf("Authorize(%v, %v) = %v, want nil", tt.role, tt.op, err)
			}
			if !tt.allowed && !errors.Is(err, ErrInsufficientRole) {
				t.Fatalf("Authorize(%v, %v) = %v, want %v", tt.role, tt.op, err, ErrInsufficientRole)
			}
		})
	}
}

func TestAuthorizeFailsClosed(t *testing.T) {
	// Unknown identities are denied everything, including reads.
	for _, op := range []OperationKind{OpSchemaRead, OpRead, OpWrite, OpSchemaWrite, OpAdmin} {
		if err := Authorize(RoleUnauthorized, op); !errors.Is(err, ErrUnknownIdentity) {
			t.Errorf("Authorize(RoleUnauthorized, %v) = %v, want %v", op, err, ErrUnknownIdentity)
		}
	}

	// Unmapped operation kinds are denied for every role.
	if err := Authorize(RoleAdmin, OpUnknown); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("Authorize(RoleAdmin, OpUnknown) = %v, want %v", err, ErrUnknownOperation)
	}
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role     Role
		read     bool
		write    bool
		admin    bool
		asString string
	}{
		{RoleUnauthorized, false, false, false, "unauthorized"},
		{RoleReader, true, false, false, "reader"},
		{RoleWriter, true, true, false, "writer"},
		{RoleAdmin, true, true, true, "admin"},
	}
	for _, tt := range tests {
		if got := tt.role.CanRead(); got != tt.read {
			t.Errorf("%v.CanRead() = %v, want %v", tt.role, got, tt.read)
		}
		if got := tt.role.CanWrite(); got != tt.write {
			t.Errorf("%v.CanWrite() = %v, want %v", tt.role, got, tt.write)
		}
		if got := tt.role.CanAdmin(); got != tt.admin {
			t.Errorf("%v.CanAdmin() = %v, want %v", tt.role, got, tt.admin)
		}
		if got := tt.role.String(); got != tt.asString {
			t.Errorf("%v.String() = %q, want %q", tt.role, got, tt.asString)
		}
	}
}
