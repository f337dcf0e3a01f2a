package filter

// Filterable is implemented by every record type a filter expression can be
// evaluated against. The accessors are read-only views of one process sample;
// evaluation never mutates the record.
type Filterable interface {
	GetPID() uint32
	GetName() string
	GetUser() string
	GetCPUPercent() float32
	GetMemoryPercent() float32
}

// Rule is implemented by every filter chain and filter condition.
//
// Eval reports whether the given record matches. It cannot fail: every invalid
// combination of field, operator and value is rejected at parse time, so a
// Rule that exists is safe to evaluate repeatedly and concurrently against
// any number of records.
type Rule interface {
	Eval(filterable Filterable) bool
}
