package rbac

import "errors"

var (
	// ErrUnknownIdentity is returned when the caller has no configured role.
	ErrUnknownIdentity = errors.New("identity has no configured role")

	// ErrInsufficientRole is returned when the caller's role does not meet
	// the minimum required for the requested operation.
	ErrInsufficientRole = errors.New("role is insufficient for operation")

	// ErrUnknownOperation is returned for operation kinds outside the
	// capability table. Unknown operations are always denied.
	ErrUnknownOperation = errors.New("unknown operation kind")
)

// minRole is the capability table: the minimum role required per operation.
var minRole = map[OperationKind]Role{
	OpSchemaRead:  RoleReader,
	OpRead:        RoleReader,
	OpWrite:       RoleWriter,
	OpSchemaWrite: RoleAdmin,
	OpAdmin:       RoleAdmin,
}

// Authorize returns nil when role may perform op, or a sentinel error
// describing why not. RoleUnauthorized is denied for every operation with
// ErrUnknownIdentity so callers can distinguish "who are you" from
// "you may not do that".
func Authorize(role Role, op OperationKind) error {
	if role == RoleUnauthorized {
		return ErrUnknownIdentity
	}
	required, ok := minRole[op]
	if !ok {
		return ErrUnknownOperation
	}
	if role < required {
		return ErrInsufficientRole
	}
	return nil
}
