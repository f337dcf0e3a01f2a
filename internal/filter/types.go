package filter

import (
	"math"
	"strconv"
	"strings"
)

// Field is a type used for grouping the filterable attributes of a record.
type Field string

// List of the supported fields.
const (
	FieldCPU  Field = "cpu"
	FieldMem  Field = "mem"
	FieldPID  Field = "pid"
	FieldName Field = "name"
	FieldUser Field = "user"
)

// NewField resolves a raw field token to one of the supported fields.
// Resolution is case-insensitive and "memory" is accepted as an alias for "mem".
func NewField(raw string) (Field, error) {
	switch strings.ToLower(raw) {
	case "cpu":
		return FieldCPU, nil
	case "mem", "memory":
		return FieldMem, nil
	case "pid":
		return FieldPID, nil
	case "name":
		return FieldName, nil
	case "user":
		return FieldUser, nil
	default:
		return "", &UnknownFieldError{Field: raw}
	}
}

// IsNumeric reports whether values of this field carry an ordering.
// Only numeric fields may be used with the ordering operators.
func (f Field) IsNumeric() bool {
	return f == FieldCPU || f == FieldMem || f == FieldPID
}

// CompOperator is a type used for grouping the individual comparison operators
// of a filter string.
type CompOperator string

// List of the supported comparison operators.
const (
	Equal            CompOperator = "=="
	UnEqual          CompOperator = "!="
	LessThan         CompOperator = "<"
	LessThanEqual    CompOperator = "<="
	GreaterThan      CompOperator = ">"
	GreaterThanEqual CompOperator = ">="
)

// operators lists all operator tokens in scanning priority order. The
// two-character tokens come first so that ">=" is never read as ">".
var operators = [...]CompOperator{
	GreaterThanEqual, LessThanEqual, UnEqual, Equal, GreaterThan, LessThan,
}

// NewCompOperator resolves an exact operator token.
func NewCompOperator(raw string) (CompOperator, error) {
	switch CompOperator(raw) {
	case Equal, UnEqual, LessThan, LessThanEqual, GreaterThan, GreaterThanEqual:
		return CompOperator(raw), nil
	default:
		return "", &UnknownOperatorError{Operator: raw}
	}
}

// IsComparison reports whether the operator imposes an ordering, as opposed to
// plain (in)equality.
func (op CompOperator) IsComparison() bool {
	switch op {
	case LessThan, LessThanEqual, GreaterThan, GreaterThanEqual:
		return true
	default:
		return false
	}
}

// ValueKind discriminates the typed payload of a Value.
type ValueKind uint8

const (
	KindFloat ValueKind = iota
	KindInt
	KindString
)

// Value is the typed right-hand side of a condition. Its kind always matches
// the value kind of the condition's field; NewCondition enforces that before a
// Value is ever built, so evaluation does not have to re-check it.
type Value struct {
	kind    ValueKind
	number  float32
	integer uint32
	text    string
	lowered string // case-folded copy of text, folded once at parse time
}

// Kind returns the kind tag of this Value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Condition represents a single field-operator-value predicate.
// All its fields are read-only and aren't supposed to change at runtime.
type Condition struct {
	field Field
	op    CompOperator
	value Value
}

// NewCondition builds a validated Condition from a resolved field and operator
// and the raw value text. The ordering operators are only legal on numeric
// fields and the value must parse as the field's value kind; violations are
// reported here and never surface during evaluation.
func NewCondition(field Field, op CompOperator, rawValue string) (*Condition, error) {
	if op.IsComparison() && !field.IsNumeric() {
		return nil, &TypeMismatchError{Op: op, Field: field}
	}

	var value Value
	switch field {
	case FieldCPU, FieldMem:
		number, err := strconv.ParseFloat(rawValue, 32)
		if err != nil {
			return nil, &InvalidValueError{
				Field:  field,
				Value:  rawValue,
				Reason: "expected a number (e.g., 10 or 5.5)",
			}
		}

		value = Value{kind: KindFloat, number: float32(number)}
	case FieldPID:
		integer, err := strconv.ParseUint(rawValue, 10, 32)
		if err != nil {
			return nil, &InvalidValueError{
				Field:  field,
				Value:  rawValue,
				Reason: "expected an integer (e.g., 1000)",
			}
		}

		value = Value{kind: KindInt, integer: uint32(integer)}
	default:
		value = Value{kind: KindString, text: rawValue, lowered: strings.ToLower(rawValue)}
	}

	return &Condition{field: field, op: op, value: value}, nil
}

// Field returns the field of this Condition.
func (c *Condition) Field() Field {
	return c.field
}

// Operator returns the comparison operator of this Condition.
func (c *Condition) Operator() CompOperator {
	return c.op
}

// Value returns the typed right-hand side of this Condition.
func (c *Condition) Value() Value {
	return c.value
}

// Eval evaluates this Condition against one record based on its field.
//
// Numeric fields compare against the record's corresponding metric, with an
// epsilon tolerance on float (in)equality. A name equality check is a
// case-folded substring containment, so "name == chrome" matches a process
// named "Google Chrome Helper". A user check is an exact, case-sensitive
// string comparison.
func (c *Condition) Eval(filterable Filterable) bool {
	switch c.field {
	case FieldCPU:
		return compareFloat(filterable.GetCPUPercent(), c.value.number, c.op)
	case FieldMem:
		return compareFloat(filterable.GetMemoryPercent(), c.value.number, c.op)
	case FieldPID:
		return compareInt(filterable.GetPID(), c.value.integer, c.op)
	case FieldName:
		contains := strings.Contains(strings.ToLower(filterable.GetName()), c.value.lowered)
		switch c.op {
		case Equal:
			return contains
		case UnEqual:
			return !contains
		}
	case FieldUser:
		switch c.op {
		case Equal:
			return filterable.GetUser() == c.value.text
		case UnEqual:
			return filterable.GetUser() != c.value.text
		}
	}

	// Unreachable with a parser-built condition.
	return false
}

// All is a filter chain that matches when both of its branches match.
type All struct {
	left, right Rule
}

// Eval evaluates the left branch first and short-circuits on a non-match.
func (a *All) Eval(filterable Filterable) bool {
	return a.left.Eval(filterable) && a.right.Eval(filterable)
}

// Any is a filter chain that matches when at least one of its branches matches.
type Any struct {
	left, right Rule
}

// Eval evaluates the left branch first and short-circuits on a match.
func (a *Any) Eval(filterable Filterable) bool {
	return a.left.Eval(filterable) || a.right.Eval(filterable)
}

// float32Epsilon is the difference between 1 and the next larger float32.
// Float (in)equality tolerates differences below it so that values which went
// through 32-bit float arithmetic still compare equal.
const float32Epsilon = 1.1920929e-07

func compareFloat(have, want float32, op CompOperator) bool {
	switch op {
	case GreaterThan:
		return have > want
	case GreaterThanEqual:
		return have >= want
	case LessThan:
		return have < want
	case LessThanEqual:
		return have <= want
	case Equal:
		return math.Abs(float64(have-want)) < float32Epsilon
	case UnEqual:
		return math.Abs(float64(have-want)) >= float32Epsilon
	default:
		return false
	}
}

func compareInt(have, want uint32, op CompOperator) bool {
	switch op {
	case GreaterThan:
		return have > want
	case GreaterThanEqual:
		return have >= want
	case LessThan:
		return have < want
	case LessThanEqual:
		return have <= want
	case Equal:
		return have == want
	case UnEqual:
		return have != want
	default:
		return false
	}
}

// Assert interface compliance.
var (
	_ Rule = (*Condition)(nil)
	_ Rule = (*All)(nil)
	_ Rule = (*Any)(nil)
)
