package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stoptool/stop/internal/filter"
)

func TestParseStatLine(t *testing.T) {
	t.Parallel()

	t.Run("PlainComm", func(t *testing.T) {
		t.Parallel()

		line := "1234 (bash) S 1 1234 1234 0 -1 4194560 1000 0 0 0 30 12 0 0 20 0 1 0 100 10000000 512 18446744073709551615 0 0 0 0 0 0 0 0 0 0 0 0 17 0 0 0 0 0 0"

		comm, jiffies, rssPages, err := parseStatLine(line)
		require.NoError(t, err)
		assert.Equal(t, "bash", comm)
		assert.Equal(t, uint64(42), jiffies, "jiffies should be utime + stime")
		assert.Equal(t, uint64(512), rssPages)
	})

	t.Run("CommWithSpacesAndParens", func(t *testing.T) {
		t.Parallel()

		line := "42 (Web Content (x)) R 1 42 42 0 -1 0 0 0 0 0 7 3 0 0 20 0 1 0 100 0 99 0 0 0 0 0 0 0 0 0 0 0 0 0 17 0 0 0 0 0 0"

		comm, jiffies, rssPages, err := parseStatLine(line)
		require.NoError(t, err)
		assert.Equal(t, "Web Content (x)", comm)
		assert.Equal(t, uint64(10), jiffies)
		assert.Equal(t, uint64(99), rssPages)
	})

	t.Run("MalformedLinesFail", func(t *testing.T) {
		t.Parallel()

		for _, line := range []string{"", "1234 bash S 1", "1234 (bash) S 1 2 3"} {
			_, _, _, err := parseStatLine(line)
			assert.Error(t, err, "parsing %q should fail", line)
		}
	})
}

func TestParseCPUStat(t *testing.T) {
	t.Parallel()

	total, idle, err := parseCPUStat("cpu  100 0 50 800 25 0 5 0 0 0\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(980), total)
	assert.Equal(t, uint64(825), idle, "idle should include iowait")

	_, _, err = parseCPUStat("intr 12345")
	assert.Error(t, err)
}

func TestCleanCmdline(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/usr/bin/foo --bar baz", cleanCmdline([]byte("/usr/bin/foo\x00--bar\x00baz\x00")))
	assert.Equal(t, "", cleanCmdline(nil))
}

func TestParseStatusUID(t *testing.T) {
	t.Parallel()

	uid, ok := parseStatusUID("Name:\tbash\nUid:\t1000\t1000\t1000\t1000\nGid:\t1000\n")
	require.True(t, ok)
	assert.Equal(t, uint32(1000), uid)

	_, ok = parseStatusUID("Name:\tbash\n")
	assert.False(t, ok)
}

func TestSortProcesses(t *testing.T) {
	t.Parallel()

	sample := func() []ProcessInfo {
		return []ProcessInfo{
			{Pid: 30, Name: "beta", CPUPercent: 5, MemoryPercent: 20},
			{Pid: 10, Name: "Alpha", CPUPercent: 50, MemoryPercent: 5},
			{Pid: 20, Name: "gamma", CPUPercent: 25, MemoryPercent: 10},
		}
	}

	t.Run("CPUHighestFirstIsTheDefault", func(t *testing.T) {
		t.Parallel()

		for _, key := range []string{"cpu", "CPU", "", "bogus"} {
			procs := sample()
			SortProcesses(procs, key)
			assert.Equal(t, []uint32{10, 20, 30}, pids(procs), "sorting by %q", key)
		}
	})

	t.Run("MemAndMemoryAgree", func(t *testing.T) {
		t.Parallel()

		procs := sample()
		SortProcesses(procs, "mem")
		assert.Equal(t, []uint32{30, 20, 10}, pids(procs))

		procs = sample()
		SortProcesses(procs, "memory")
		assert.Equal(t, []uint32{30, 20, 10}, pids(procs))
	})

	t.Run("PidAscending", func(t *testing.T) {
		t.Parallel()

		procs := sample()
		SortProcesses(procs, "pid")
		assert.Equal(t, []uint32{10, 20, 30}, pids(procs))
	})

	t.Run("NameIsCaseFolded", func(t *testing.T) {
		t.Parallel()

		procs := sample()
		SortProcesses(procs, "name")
		assert.Equal(t, []uint32{10, 30, 20}, pids(procs))
	})
}

func TestValidSortKey(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"cpu", "mem", "memory", "pid", "name", "CPU", "Name"} {
		assert.True(t, ValidSortKey(key), "%q should be a valid sort key", key)
	}
	for _, key := range []string{"", "threads", "user"} {
		assert.False(t, ValidSortKey(key), "%q should not be a valid sort key", key)
	}
}

func TestSnapshotApply(t *testing.T) {
	t.Parallel()

	build := func() *Snapshot {
		return &Snapshot{
			Processes: []ProcessInfo{
				{Pid: 1, Name: "init", CPUPercent: 1},
				{Pid: 100, Name: "chrome", CPUPercent: 40},
				{Pid: 200, Name: "chrome helper", CPUPercent: 20},
				{Pid: 300, Name: "bash", CPUPercent: 60},
			},
		}
	}

	t.Run("FilterSortTruncate", func(t *testing.T) {
		t.Parallel()

		snapshot := build()
		snapshot.Apply(filter.MustParseFilter("name == chrome"), "cpu", 1)

		require.Len(t, snapshot.Processes, 1)
		assert.Equal(t, uint32(100), snapshot.Processes[0].Pid)
	})

	t.Run("NilFilterKeepsEverything", func(t *testing.T) {
		t.Parallel()

		snapshot := build()
		snapshot.Apply(nil, "pid", 0)

		assert.Equal(t, []uint32{1, 100, 200, 300}, pids(snapshot.Processes))
	})
}

func pids(procs []ProcessInfo) []uint32 {
	out := make([]uint32, 0, len(procs))
	for i := range procs {
		out = append(out, procs[i].Pid)
	}

	return out
}
