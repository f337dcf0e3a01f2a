package filter

// Filter is a parsed filter expression, ready for evaluation.
type Filter struct {
	rule Rule
}

// ParseFilter parses a process filter expression.
func ParseFilter(expression string) (*Filter, error) {
	rule, err := Parse(expression)
	if err != nil {
		return nil, err
	}

	return &Filter{rule: rule}, nil
}

// MustParseFilter is like ParseFilter, but panics on invalid expressions.
func MustParseFilter(expression string) *Filter {
	f, err := ParseFilter(expression)
	if err != nil {
		panic(err)
	}

	return f
}

// Matches returns true if the given filterable record matches the parsed rules of this filter.
func (f *Filter) Matches(filterable Filterable) bool {
	return f.rule.Eval(filterable)
}
