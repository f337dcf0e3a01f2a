package filter

import (
	"strings"
)

// Parse parses a filter expression into an evaluable Rule.
//
// The expression is either a single "field operator value" condition or
// several conditions joined by the connective keywords "and" and "or". The
// keywords are matched case-insensitively and only as whole words, so a value
// like "android" is never split on its "and" substring. "or" binds more
// loosely than "and", and chains of the same connective nest to the right.
//
// The grammar has no quoting syntax. A value that is itself the literal word
// "and" or "or" cannot be expressed: it is read as a connective and the parse
// fails on the empty half.
func Parse(expression string) (Rule, error) {
	expr := strings.TrimSpace(expression)

	// "or" has the lowest precedence, so it splits first.
	if pos := findKeyword(expr, "or"); pos >= 0 {
		left, err := Parse(expr[:pos])
		if err != nil {
			return nil, err
		}

		right, err := Parse(expr[pos+len("or"):])
		if err != nil {
			return nil, err
		}

		return &Any{left: left, right: right}, nil
	}

	if pos := findKeyword(expr, "and"); pos >= 0 {
		left, err := Parse(expr[:pos])
		if err != nil {
			return nil, err
		}

		right, err := Parse(expr[pos+len("and"):])
		if err != nil {
			return nil, err
		}

		return &All{left: left, right: right}, nil
	}

	return parseCondition(expr)
}

// ParseCondition builds a single Condition from an already split
// field-operator-value triple. Unlike Parse, which only ever scans for the
// valid operator symbols, the operator token here is taken as given, so an
// unrecognized token is reported as an UnknownOperatorError.
func ParseCondition(field, operator, value string) (*Condition, error) {
	f, err := NewField(strings.TrimSpace(field))
	if err != nil {
		return nil, err
	}

	op, err := NewCompOperator(strings.TrimSpace(operator))
	if err != nil {
		return nil, err
	}

	return NewCondition(f, op, strings.TrimSpace(value))
}

// parseCondition parses one non-compound "field operator value" clause.
func parseCondition(expr string) (*Condition, error) {
	if expr == "" {
		return nil, &InvalidExpressionError{Detail: "empty filter expression"}
	}

	op, pos := scanOperator(expr)
	if pos < 0 {
		return nil, &InvalidExpressionError{Detail: "no valid operator found, use: >, >=, <, <=, ==, !="}
	}

	fieldText := strings.TrimSpace(expr[:pos])
	valueText := strings.TrimSpace(expr[pos+len(op):])

	if fieldText == "" {
		return nil, &InvalidExpressionError{Detail: "missing field before operator"}
	}

	if valueText == "" {
		return nil, &InvalidExpressionError{Detail: "missing value after operator"}
	}

	field, err := NewField(fieldText)
	if err != nil {
		return nil, err
	}

	return NewCondition(field, op, valueText)
}

// scanOperator locates the operator token to split a clause on. The tokens are
// tried in priority order and the first one present anywhere in the expression
// wins at its leftmost occurrence.
//
// This is a substring scan, not a tokenizer: a malformed token like ">>" is
// read as ">" at its first occurrence, leaving the second ">" glued onto the
// value text. "cpu >> 10" therefore fails value parsing rather than operator
// resolution. The priority order must stay exactly as listed to keep that
// behavior stable.
func scanOperator(expr string) (CompOperator, int) {
	for _, op := range operators {
		if pos := strings.Index(expr, string(op)); pos >= 0 {
			return op, pos
		}
	}

	return "", -1
}

// findKeyword returns the byte position of the first whole-word,
// case-insensitive occurrence of keyword in expr, or -1. An occurrence counts
// as a whole word when the characters immediately before and after it, if any,
// are whitespace.
func findKeyword(expr, keyword string) int {
	for at := 0; at+len(keyword) <= len(expr); at++ {
		if !strings.EqualFold(expr[at:at+len(keyword)], keyword) {
			continue
		}

		if at > 0 && !isSpace(expr[at-1]) {
			continue
		}

		if end := at + len(keyword); end < len(expr) && !isSpace(expr[end]) {
			continue
		}

		return at
	}

	return -1
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}
