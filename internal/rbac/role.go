// Package rbac maps caller identities to roles and decides whether a role
// may perform a given database operation. Roles are recomputed on every call
// from the immutable membership sets loaded at startup; nothing here is
// cached or mutated after construction.
package rbac

// Role is the authorization tier derived from a caller identity.
// Capability ordering: Admin > Writer > Reader > Unauthorized.
type Role int

const (
	RoleUnauthorized Role = iota
	RoleReader
	RoleWriter
	RoleAdmin
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleWriter:
		return "writer"
	case RoleReader:
		return "reader"
	default:
		return "unauthorized"
	}
}

// CanRead reports whether the role may read table data.
func (r Role) CanRead() bool { return r >= RoleReader }

// CanWrite reports whether the role may modify table data.
func (r Role) CanWrite() bool { return r >= RoleWriter }

// CanAdmin reports whether the role may change schema or run admin statements.
func (r Role) CanAdmin() bool { return r == RoleAdmin }

// OperationKind classifies a requested action for permission checks.
// Every tool call is classified into exactly one kind before the gate check.
type OperationKind int

const (
	OpUnknown OperationKind = iota
	OpSchemaRead
	OpRead
	OpWrite
	OpSchemaWrite
	OpAdmin
)

// String returns the snake_case kind name (used in audit events).
func (k OperationKind) String() string {
	switch k {
	case OpSchemaRead:
		return "schema_read"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpSchemaWrite:
		return "schema_write"
	case OpAdmin:
		return "admin"
	default:
		return "unknown"
	}
}
