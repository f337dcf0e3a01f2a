package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordType is a minimal Filterable for evaluation tests.
type recordType struct {
	pid  uint32
	name string
	user string
	cpu  float32
	mem  float32
}

func (r *recordType) GetPID() uint32            { return r.pid }
func (r *recordType) GetName() string           { return r.name }
func (r *recordType) GetUser() string           { return r.user }
func (r *recordType) GetCPUPercent() float32    { return r.cpu }
func (r *recordType) GetMemoryPercent() float32 { return r.mem }

var _ Filterable = (*recordType)(nil)

func TestFilter(t *testing.T) {
	t.Parallel()

	t.Run("ParseFilterMatchesRecords", func(t *testing.T) {
		t.Parallel()

		f, err := ParseFilter("cpu > 10")
		require.NoError(t, err)
		assert.True(t, f.Matches(&recordType{cpu: 15}))
		assert.False(t, f.Matches(&recordType{cpu: 5}))

		_, err = ParseFilter("threads > 10")
		assert.Error(t, err)
	})

	t.Run("MustParseFilterPanicsOnInvalidExpressions", func(t *testing.T) {
		t.Parallel()

		assert.NotNil(t, MustParseFilter("cpu > 10"))
		assert.Panics(t, func() { MustParseFilter("threads > 10") })
	})

	t.Run("EvaluateConditions", func(t *testing.T) {
		t.Parallel()

		record := &recordType{
			pid:  500,
			name: "Google Chrome Helper",
			user: "alice",
			cpu:  15.0,
			mem:  7.5,
		}

		testdata := []struct {
			Expression string
			Expected   bool
		}{
			{"cpu > 10", true},
			{"cpu > 15", false},
			{"cpu >= 15", true},
			{"cpu < 20", true},
			{"cpu <= 15", true},
			{"cpu == 15", true},
			{"cpu != 15", false},
			{"mem > 5", true},
			{"memory > 5", true},
			{"mem == 7.5", true},
			{"pid == 500", true},
			{"pid != 500", false},
			{"pid < 1000", true},
			{"pid >= 501", false},
			{"name == chrome", true},
			{"name == CHROME", true},
			{"name != chrome", false},
			{"name == firefox", false},
			{"name != firefox", true},
			{"user == alice", true},
			{"user == Alice", false},
			{"user != alice", false},
			{"user != bob", true},
		}

		for _, td := range testdata {
			rule, err := Parse(td.Expression)
			require.NoError(t, err, "parsing %q should not return an error", td.Expression)
			assert.Equal(t, td.Expected, rule.Eval(record), "unexpected result for %q", td.Expression)
		}
	})

	t.Run("NameMatchIsSubstringContainment", func(t *testing.T) {
		t.Parallel()

		rule, err := Parse("name == android")
		require.NoError(t, err)
		assert.True(t, rule.Eval(&recordType{name: "android_app"}))
		assert.False(t, rule.Eval(&recordType{name: "iosd"}))
	})

	t.Run("EvaluateChains", func(t *testing.T) {
		t.Parallel()

		and, err := Parse("cpu > 10 and mem > 5")
		require.NoError(t, err)
		assert.True(t, and.Eval(&recordType{cpu: 15, mem: 10}))
		assert.False(t, and.Eval(&recordType{cpu: 15, mem: 3}))
		assert.False(t, and.Eval(&recordType{cpu: 5, mem: 10}))

		or, err := Parse("cpu > 50 or mem > 10")
		require.NoError(t, err)
		assert.True(t, or.Eval(&recordType{cpu: 60, mem: 5}))
		assert.True(t, or.Eval(&recordType{cpu: 10, mem: 15}))
		assert.True(t, or.Eval(&recordType{cpu: 60, mem: 15}))
		assert.False(t, or.Eval(&recordType{cpu: 10, mem: 5}))
	})

	t.Run("PrecedenceGroupsAndBeforeOr", func(t *testing.T) {
		t.Parallel()

		rule, err := Parse("cpu > 50 or mem > 10 and pid < 1000")
		require.NoError(t, err)

		// The OR side alone is enough, whatever mem and pid are.
		assert.True(t, rule.Eval(&recordType{pid: 5000, cpu: 60, mem: 5}))
		// The AND side alone is enough.
		assert.True(t, rule.Eval(&recordType{pid: 500, cpu: 10, mem: 15}))
		// Half of the AND side is not.
		assert.False(t, rule.Eval(&recordType{pid: 5000, cpu: 10, mem: 15}))
	})

	t.Run("ChainedStringFilters", func(t *testing.T) {
		t.Parallel()

		rule, err := Parse("name == chrome or name == firefox")
		require.NoError(t, err)

		assert.True(t, rule.Eval(&recordType{name: "chrome"}))
		assert.True(t, rule.Eval(&recordType{name: "firefox"}))
		assert.False(t, rule.Eval(&recordType{name: "safari"}))
	})

	t.Run("EvaluationIsPure", func(t *testing.T) {
		t.Parallel()

		rule, err := Parse("cpu > 10 and name == chrome")
		require.NoError(t, err)

		record := &recordType{name: "chrome", cpu: 15}
		first := rule.Eval(record)
		for i := 0; i < 100; i++ {
			assert.Equal(t, first, rule.Eval(record))
		}
	})

	t.Run("ReparsedTreesEvaluateIdentically", func(t *testing.T) {
		t.Parallel()

		const expression = "cpu > 50 or mem > 10 and pid < 1000"

		first, err := Parse(expression)
		require.NoError(t, err)
		second, err := Parse(expression)
		require.NoError(t, err)

		records := []*recordType{
			{pid: 500, cpu: 60, mem: 15},
			{pid: 500, cpu: 10, mem: 15},
			{pid: 5000, cpu: 10, mem: 15},
			{pid: 5000, cpu: 10, mem: 5},
		}
		for _, record := range records {
			assert.Equal(t, first.Eval(record), second.Eval(record))
		}
	})
}
