// Package sqlcheck validates SQL identifiers and scans raw SQL for dangerous
// shapes before a statement is built or executed.
//
// The scanner is a heuristic defense-in-depth layer, not a SQL parser. It
// blocks known dangerous constructs (stacked statements, comment injection,
// UNION-based schema probing) but cannot guarantee semantic safety.
// Parameterized statement construction (internal/sqlbuild) is the primary
// injection defense; everything in this package is a second line.
package sqlcheck

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxIdentifierLen mirrors the MySQL identifier length limit.
const MaxIdentifierLen = 64

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedWords are SQL keywords rejected as identifiers. Parameterization
// handles value injection; rejecting keywords as table/column names prevents
// query structure attacks through identifier positions.
var reservedWords = map[string]struct{}{
	"SELECT": {}, "INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {},
	"CREATE": {}, "ALTER": {}, "TRUNCATE": {}, "RENAME": {}, "REPLACE": {},
	"EXEC": {}, "EXECUTE": {}, "UNION": {}, "INTO": {}, "FROM": {},
	"WHERE": {}, "TABLE": {}, "DATABASE": {}, "SCHEMA": {}, "INDEX": {},
	"VIEW": {}, "GRANT": {}, "REVOKE": {}, "PROCEDURE": {}, "FUNCTION": {},
	"TRIGGER": {}, "ORDER": {}, "GROUP": {}, "HAVING": {}, "LIMIT": {},
	"OFFSET": {}, "JOIN": {}, "AND": {}, "OR": {}, "NOT": {}, "NULL": {},
}

var (
	ErrEmptyIdentifier    = errors.New("identifier is empty")
	ErrIdentifierTooLong  = fmt.Errorf("identifier exceeds %d characters", MaxIdentifierLen)
	ErrIdentifierPattern  = errors.New("identifier must match [A-Za-z_][A-Za-z0-9_]*")
	ErrIdentifierReserved = errors.New("identifier is a reserved SQL keyword")
)

// ValidateIdentifier checks a table or column name against the identifier
// allow-list. It is deterministic and side-effect free; a nil return means
// the name is safe to appear in statement text. Values never go through this
// path, they are always bound as parameters.
func ValidateIdentifier(name string) error {
	if name == "" {
		return ErrEmptyIdentifier
	}
	if len(name) > MaxIdentifierLen {
		return ErrIdentifierTooLong
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrIdentifierPattern, name)
	}
	if _, ok := reservedWords[strings.ToUpper(name)]; ok {
		return fmt.Errorf("%w: %q", ErrIdentifierReserved, name)
	}
	return nil
}

// ValidateIdentifiers validates each name, returning the first failure.
func ValidateIdentifiers(names []string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}
