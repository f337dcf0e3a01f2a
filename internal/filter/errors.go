package filter

import (
	"fmt"
)

// InvalidExpressionError is returned for structurally broken expressions:
// empty input, no recognized operator, or a missing field, value or condition
// around an operator or connective keyword.
type InvalidExpressionError struct {
	Detail string
}

func (e *InvalidExpressionError) Error() string {
	return "invalid filter expression: " + e.Detail
}

// UnknownFieldError is returned when a field token matches none of the
// recognized field names or aliases.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q, valid fields: cpu, mem, pid, name, user", e.Field)
}

// UnknownOperatorError is returned when an operator token matches none of the
// recognized operator symbols. Parse itself only ever scans for the valid
// symbols, so this error surfaces through ParseCondition, which takes the
// operator token as given.
type UnknownOperatorError struct {
	Operator string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %q, valid operators: >, >=, <, <=, ==, !=", e.Operator)
}

// InvalidValueError is returned when the value text does not parse as the
// value kind required by the field.
type InvalidValueError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q: %s", e.Value, string(e.Field), e.Reason)
}

// TypeMismatchError is returned when an ordering operator is applied to a
// non-numeric field.
type TypeMismatchError struct {
	Op    CompOperator
	Field Field
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: operator %q cannot be used with field %q", string(e.Op), string(e.Field))
}
