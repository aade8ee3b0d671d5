// Package sqlbuild constructs parameterized SQL statements from validated
// identifiers and typed values. Caller-supplied values never appear in
// statement text; each becomes one positional placeholder with its value
// appended to the ordered argument list.
package sqlbuild

import (
	"fmt"
	"math"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindText
	KindBool
	KindTime
)

// Value is a tagged variant over the types that may be bound to a statement
// parameter. Using a closed set (rather than any) keeps type safety through
// binding and makes unsupported argument types a validation error instead of
// a driver error.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
}

func Null() Value            { return Value{kind: KindNull} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func Float(f float64) Value  { return Value{kind: KindFloat, f: f} }
func Text(s string) Value    { return Value{kind: KindText, s: s} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// Arg returns the value in the form expected by database/sql.
func (v Value) Arg() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// FromJSON converts a JSON-decoded argument value into a Value.
// JSON numbers arrive as float64; integral floats become KindInt so integer
// columns bind naturally. Composite values (objects, arrays) are rejected.
func FromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case string:
		return Text(x), nil
	case float64:
		// The upper bound must be strict: float64 cannot represent
		// MaxInt64 and rounds it up to 2^63, which overflows int64.
		if x == math.Trunc(x) && !math.IsInf(x, 0) &&
			x >= math.MinInt64 && x < 1<<63 {
			return Int(int64(x)), nil
		}
		return Float(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case time.Time:
		return Time(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported parameter type %T", raw)
	}
}

// FromJSONList converts a list of JSON-decoded values, preserving order.
func FromJSONList(raw []any) ([]Value, error) {
	vals := make([]Value, 0, len(raw))
	for i, r := range raw {
		v, err := FromJSON(r)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}
