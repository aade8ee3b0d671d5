package sqlcheck

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/torchdb/toolgate/internal/rbac"
)

var (
	ErrEmptyQuery        = errors.New("empty query")
	ErrStackedStatements = errors.New("multiple statements are not allowed")
	ErrCommentSequence   = errors.New("comment sequences are not allowed")
	ErrUnknownStatement  = errors.New("unsupported statement type")
	ErrDisallowedKind    = errors.New("statement type not allowed for this tool")
	ErrDangerousPattern  = errors.New("query contains a blocked pattern")
)

// leadingKeywords classifies the first keyword of a statement. WITH is
// absent: CTE statements are classified by the keyword after the CTE list
// (see classifyWith), since both MySQL and Postgres accept data-modifying
// statements there.
var leadingKeywords = map[string]rbac.OperationKind{
	"SELECT":   rbac.OpRead,
	"SHOW":     rbac.OpSchemaRead,
	"DESCRIBE": rbac.OpSchemaRead,
	"DESC":     rbac.OpSchemaRead,
	"EXPLAIN":  rbac.OpSchemaRead,
	"INSERT":   rbac.OpWrite,
	"UPDATE":   rbac.OpWrite,
	"DELETE":   rbac.OpWrite,
	"REPLACE":  rbac.OpWrite,
	"CREATE":   rbac.OpSchemaWrite,
	"ALTER":    rbac.OpSchemaWrite,
	"DROP":     rbac.OpSchemaWrite,
	"TRUNCATE": rbac.OpSchemaWrite,
	"RENAME":   rbac.OpSchemaWrite,
	"GRANT":    rbac.OpAdmin,
	"REVOKE":   rbac.OpAdmin,
}

// blockedPatterns are exfiltration and privilege-escalation shapes rejected
// regardless of the caller's role. Matched against stripped SQL so quoted
// text cannot trigger or hide them.
var blockedPatterns = []struct {
	re   *regexp.Regexp
	desc string
}{
	{regexp.MustCompile(`(?i)\bUNION\b[\s(]*(ALL[\s(]*)?SELECT\b[^;]*\b(information_schema|mysql|performance_schema|pg_catalog|sys)\s*\.`), "UNION-based schema probe"},
	{regexp.MustCompile(`(?i)\b(information_schema|mysql|performance_schema|sys)\s*\.\s*(user|db|tables_priv|columns_priv)\b`), "privilege table access"},
	{regexp.MustCompile(`(?i)\b(INTO\s+OUTFILE|INTO\s+DUMPFILE|LOAD_FILE\s*\(|LOAD\s+DATA)\b`), "file access"},
	{regexp.MustCompile(`(?i)\b(xp_cmdshell|sp_executesql)\b`), "procedure escape"},
	{regexp.MustCompile(`(?i)\b(CREATE|DROP|ALTER)\s+USER\b`), "user management"},
	{regexp.MustCompile(`(?i)\bSET\s+(GLOBAL|SESSION)\b`), "session tampering"},
}

// ScanRawSQL validates a raw SQL string and classifies it into an
// OperationKind. allowed restricts which kinds the calling tool accepts;
// the permission gate still checks the classified kind against the caller's
// role afterwards. A non-nil error means the query must not execute.
func ScanRawSQL(sql string, allowed map[rbac.OperationKind]bool) (rbac.OperationKind, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return rbac.OpUnknown, ErrEmptyQuery
	}

	stripped := stripLiterals(trimmed)

	// Comment sequences outside string literals. These are rejected outright:
	// none of the exposed tools have a legitimate use for inline comments,
	// and they are the classic way to cut off the rest of a statement.
	for _, seq := range []string{"--", "#", "/*"} {
		if strings.Contains(stripped, seq) {
			return rbac.OpUnknown, fmt.Errorf("%w: %q", ErrCommentSequence, seq)
		}
	}

	// Stacked statements: a semicolon followed by anything but whitespace.
	if i := strings.IndexByte(stripped, ';'); i >= 0 {
		if strings.TrimSpace(stripped[i+1:]) != "" {
			return rbac.OpUnknown, ErrStackedStatements
		}
	}

	for _, p := range blockedPatterns {
		if p.re.MatchString(stripped) {
			return rbac.OpUnknown, fmt.Errorf("%w: %s", ErrDangerousPattern, p.desc)
		}
	}

	first := strings.ToUpper(firstWord(trimmed))
	var kind rbac.OperationKind
	if first == "WITH" {
		k, err := classifyWith(stripped)
		if err != nil {
			return rbac.OpUnknown, err
		}
		kind = k
	} else {
		k, ok := leadingKeywords[first]
		if !ok {
			return rbac.OpUnknown, fmt.Errorf("%w: %s", ErrUnknownStatement, first)
		}
		kind = k
	}

	if !allowed[kind] {
		return kind, fmt.Errorf("%w: %s", ErrDisallowedKind, kind)
	}
	return kind, nil
}

// classifyWith classifies a WITH statement by the first top-level keyword
// after the CTE definition list. CTE bodies sit inside parentheses, so the
// scan tracks paren depth and only considers words at depth zero; CTE names,
// AS, and RECURSIVE are skipped. A WITH with no statement after the list is
// rejected. Operates on stripped SQL so quoted text cannot confuse the scan.
func classifyWith(stripped string) (rbac.OperationKind, error) {
	depth := 0
	sawWith := false
	for i := 0; i < len(stripped); {
		c := stripped[i]
		switch {
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case isWordByte(c):
			j := i
			for j < len(stripped) && isWordByte(stripped[j]) {
				j++
			}
			word := strings.ToUpper(stripped[i:j])
			i = j
			if depth != 0 {
				continue
			}
			if !sawWith {
				sawWith = true // the leading WITH itself
				continue
			}
			if word == "RECURSIVE" || word == "AS" {
				continue
			}
			if kind, ok := leadingKeywords[word]; ok {
				return kind, nil
			}
			// Anything else at depth zero is a CTE name; keep scanning.
		default:
			i++
		}
	}
	return rbac.OpUnknown, fmt.Errorf("%w: WITH", ErrUnknownStatement)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';' {
			return s[:i]
		}
	}
	return s
}

// stripLiterals blanks the contents of single-quoted, double-quoted and
// backtick-quoted literals so separator and keyword checks cannot
// false-positive on (or be hidden inside) quoted text. Doubled quotes
// (doubled single, double, or backtick quotes) and backslash escapes inside
// single quotes are handled.
func stripLiterals(s string) string {
	b := []byte(s)
	const (
		none = iota
		single
		double
		backtick
	)
	mode := none

	for i := 0; i < len(b); i++ {
		c := b[i]
		switch mode {
		case none:
			switch c {
			case '\'':
				mode = single
			case '"':
				mode = double
			case '`':
				mode = backtick
			}
		case single:
			switch c {
			case '\\':
				// Blank the escape and whatever it escapes.
				b[i] = ' '
				if i+1 < len(b) {
					i++
					b[i] = ' '
				}
			case '\'':
				if i+1 < len(b) && b[i+1] == '\'' {
					i++
					b[i] = ' '
				} else {
					mode = none
				}
			default:
				b[i] = ' '
			}
		case double:
			if c == '"' {
				if i+1 < len(b) && b[i+1] == '"' {
					i++
					b[i] = ' '
				} else {
					mode = none
				}
			} else {
				b[i] = ' '
			}
		case backtick:
			if c == '`' {
				if i+1 < len(b) && b[i+1] == '`' {
					i++
					b[i] = ' '
				} else {
					mode = none
				}
			} else {
				b[i] = ' '
			}
		}
	}
	return string(b)
}
