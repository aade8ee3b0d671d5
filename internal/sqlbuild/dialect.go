package sqlbuild

import "strconv"

// Dialect controls placeholder style and identifier quoting per engine.
type Dialect int

const (
	DialectMySQL Dialect = iota
	DialectPostgres
	DialectSQLite
)

// String returns the engine name as used in configuration.
func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectSQLite:
		return "sqlite"
	default:
		return "mysql"
	}
}

// Placeholder returns the positional placeholder for the n-th parameter
// (1-based). MySQL and SQLite use "?", Postgres uses "$n".
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes an already-validated identifier. Validation guarantees
// the name contains no quote characters, so no escaping is needed.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}
