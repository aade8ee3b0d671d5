package sqlbuild

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/torchdb/toolgate/internal/sqlcheck"
)

// Statement is an immutable parameterized statement: SQL text with positional
// placeholders plus its ordered bound values. The placeholder count always
// equals len(Args).
type Statement struct {
	SQL  string
	Args []Value
}

// Assignment pairs a column with a bound value. Builders take ordered slices
// rather than maps so statement text is reproducible for identical inputs.
type Assignment struct {
	Column string
	Value  Value
}

// ColumnDef declares one column for CREATE TABLE.
type ColumnDef struct {
	Name string
	Type string
}

// SelectOpts carries the optional clauses of a SELECT.
type SelectOpts struct {
	Columns []string     // empty means *
	Where   []Assignment // ANDed equality conditions
	OrderBy string       // validated identifier, empty to skip
	Limit   int          // 0 means DefaultLimit
	Offset  int
	// Caps applied to Limit. Both must be positive.
	DefaultLimit int
	MaxLimit     int
}

var (
	ErrNoData          = errors.New("no data supplied")
	ErrNoConditions    = errors.New("where conditions are required")
	ErrNegativeLimit   = errors.New("limit and offset must be non-negative")
	ErrLimitTooLarge   = errors.New("limit exceeds configured maximum")
	ErrNoColumns       = errors.New("column definitions are required")
	ErrBadColumnType   = errors.New("column type contains a disallowed token")
	ErrInconsistentRow = errors.New("insert rows must share the same columns")
)

// allowedTypeTokens are the keywords permitted inside a CREATE TABLE column
// type string. Anything else (quotes, semicolons, arbitrary SQL) is rejected
// before the type reaches statement text.
var allowedTypeTokens = map[string]struct{}{
	"INT": {}, "INTEGER": {}, "BIGINT": {}, "SMALLINT": {}, "TINYINT": {},
	"DECIMAL": {}, "NUMERIC": {}, "FLOAT": {}, "DOUBLE": {}, "REAL": {},
	"SERIAL": {}, "BIGSERIAL": {},
	"VARCHAR": {}, "CHAR": {}, "TEXT": {}, "BLOB": {}, "BYTEA": {},
	"DATE": {}, "DATETIME": {}, "TIMESTAMP": {}, "TIME": {}, "TIMESTAMPTZ": {},
	"BOOLEAN": {}, "BOOL": {}, "JSON": {}, "JSONB": {}, "UUID": {},
	"PRIMARY": {}, "KEY": {}, "NOT": {}, "NULL": {}, "UNIQUE": {},
	"DEFAULT": {}, "UNSIGNED": {}, "AUTO_INCREMENT": {}, "AUTOINCREMENT": {},
	"CURRENT_TIMESTAMP": {}, "REFERENCES": {},
}

var typeTokenPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*|\d+|[(),]`)

// BuildSelect builds a parameterized SELECT. Table, column, condition and
// order-by names all pass through identifier validation; condition values,
// limit and offset are bound as parameters.
func BuildSelect(d Dialect, table string, opts SelectOpts) (Statement, error) {
	if err := sqlcheck.ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}

	cols := "*"
	if len(opts.Columns) > 0 {
		if err := sqlcheck.ValidateIdentifiers(opts.Columns); err != nil {
			return Statement{}, err
		}
		quoted := make([]string, len(opts.Columns))
		for i, c := range opts.Columns {
			quoted[i] = d.QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	var args []Value
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, d.QuoteIdent(table))

	if len(opts.Where) > 0 {
		clause, whereArgs, err := whereClause(d, opts.Where, len(args))
		if err != nil {
			return Statement{}, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(clause)
		args = append(args, whereArgs...)
	}

	if opts.OrderBy != "" {
		if err := sqlcheck.ValidateIdentifier(opts.OrderBy); err != nil {
			return Statement{}, err
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(d.QuoteIdent(opts.OrderBy))
	}

	limit, err := clampLimit(opts.Limit, opts.DefaultLimit, opts.MaxLimit)
	if err != nil {
		return Statement{}, err
	}
	if opts.Offset < 0 {
		return Statement{}, ErrNegativeLimit
	}
	sb.WriteString(" LIMIT ")
	sb.WriteString(d.Placeholder(len(args) + 1))
	args = append(args, Int(int64(limit)))
	if opts.Offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(d.Placeholder(len(args) + 1))
		args = append(args, Int(int64(opts.Offset)))
	}

	return Statement{SQL: sb.String(), Args: args}, nil
}

// BuildInsert builds a parameterized INSERT. Multiple rows become one
// statement with repeated value groups; every row must supply the same
// columns in the same order as the first.
func BuildInsert(d Dialect, table string, rows [][]Assignment) (Statement, error) {
	if err := sqlcheck.ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Statement{}, ErrNoData
	}

	first := rows[0]
	quoted := make([]string, len(first))
	for i, a := range first {
		if err := sqlcheck.ValidateIdentifier(a.Column); err != nil {
			return Statement{}, err
		}
		quoted[i] = d.QuoteIdent(a.Column)
	}

	var sb strings.Builder
	args := make([]Value, 0, len(rows)*len(first))
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", d.QuoteIdent(table), strings.Join(quoted, ", "))

	for ri, row := range rows {
		if len(row) != len(first) {
			return Statement{}, ErrInconsistentRow
		}
		if ri > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for ci, a := range row {
			if a.Column != first[ci].Column {
				return Statement{}, ErrInconsistentRow
			}
			if ci > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(len(args) + 1))
			args = append(args, a.Value)
		}
		sb.WriteByte(')')
	}

	return Statement{SQL: sb.String(), Args: args}, nil
}

// BuildUpdate builds a parameterized UPDATE. Non-empty where conditions are
// required so a malformed call can never rewrite a whole table.
func BuildUpdate(d Dialect, table string, set, where []Assignment) (Statement, error) {
	if err := sqlcheck.ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	if len(set) == 0 {
		return Statement{}, ErrNoData
	}
	if len(where) == 0 {
		return Statement{}, ErrNoConditions
	}

	var sb strings.Builder
	var args []Value
	fmt.Fprintf(&sb, "UPDATE %s SET ", d.QuoteIdent(table))

	for i, a := range set {
		if err := sqlcheck.ValidateIdentifier(a.Column); err != nil {
			return Statement{}, err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s = %s", d.QuoteIdent(a.Column), d.Placeholder(len(args)+1))
		args = append(args, a.Value)
	}

	clause, whereArgs, err := whereClause(d, where, len(args))
	if err != nil {
		return Statement{}, err
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(clause)
	args = append(args, whereArgs...)

	return Statement{SQL: sb.String(), Args: args}, nil
}

// BuildDelete builds a parameterized DELETE. Like BuildUpdate it refuses to
// run without where conditions.
func BuildDelete(d Dialect, table string, where []Assignment) (Statement, error) {
	if err := sqlcheck.ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	if len(where) == 0 {
		return Statement{}, ErrNoConditions
	}

	clause, args, err := whereClause(d, where, 0)
	if err != nil {
		return Statement{}, err
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", d.QuoteIdent(table), clause)
	return Statement{SQL: sql, Args: args}, nil
}

// BuildCreateTable builds a CREATE TABLE statement. Column names pass through
// identifier validation and every token of each declared type must be on the
// type allow-list, so a "type" like "TEXT); DROP TABLE users" is rejected.
// CREATE TABLE carries no bound values.
func BuildCreateTable(d Dialect, table string, cols []ColumnDef) (Statement, error) {
	if err := sqlcheck.ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	if len(cols) == 0 {
		return Statement{}, ErrNoColumns
	}

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		if err := sqlcheck.ValidateIdentifier(c.Name); err != nil {
			return Statement{}, err
		}
		if err := validateColumnType(c.Type); err != nil {
			return Statement{}, fmt.Errorf("column %q: %w", c.Name, err)
		}
		defs = append(defs, d.QuoteIdent(c.Name)+" "+strings.TrimSpace(c.Type))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdent(table), strings.Join(defs, ", "))
	return Statement{SQL: sql, Args: nil}, nil
}

func whereClause(d Dialect, conds []Assignment, offset int) (string, []Value, error) {
	parts := make([]string, 0, len(conds))
	args := make([]Value, 0, len(conds))
	for _, a := range conds {
		if err := sqlcheck.ValidateIdentifier(a.Column); err != nil {
			return "", nil, err
		}
		parts = append(parts, fmt.Sprintf("%s = %s", d.QuoteIdent(a.Column), d.Placeholder(offset+len(args)+1)))
		args = append(args, a.Value)
	}
	return strings.Join(parts, " AND "), args, nil
}

func clampLimit(limit, def, max int) (int, error) {
	if limit < 0 {
		return 0, ErrNegativeLimit
	}
	if limit == 0 {
		limit = def
	}
	if max > 0 && limit > max {
		return 0, fmt.Errorf("%w: %d > %d", ErrLimitTooLarge, limit, max)
	}
	return limit, nil
}

// validateColumnType tokenizes a declared column type and checks every word
// against the allow-list. Numbers and parentheses (length/precision) pass;
// anything the tokenizer does not recognize fails the whole declaration.
func validateColumnType(typ string) error {
	trimmed := strings.TrimSpace(typ)
	if trimmed == "" {
		return ErrBadColumnType
	}
	// Tokens must jointly cover the string: reject stray characters.
	covered := typeTokenPattern.ReplaceAllString(trimmed, "")
	if strings.TrimSpace(covered) != "" {
		return fmt.Errorf("%w: %q", ErrBadColumnType, typ)
	}
	for _, tok := range typeTokenPattern.FindAllString(trimmed, -1) {
		if tok == "(" || tok == ")" || tok == "," {
			continue
		}
		if tok[0] >= '0' && tok[0] <= '9' {
			continue
		}
		if _, ok := allowedTypeTokens[strings.ToUpper(tok)]; !ok {
			return fmt.Errorf("%w: %q", ErrBadColumnType, tok)
		}
	}
	return nil
}
