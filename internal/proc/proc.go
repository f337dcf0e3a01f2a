package proc

import (
	"sort"
	"strings"

	"github.com/stoptool/stop/internal/filter"
)

// ProcessInfo is one sampled process. It implements filter.Filterable so a
// parsed filter expression can be evaluated against it directly.
type ProcessInfo struct {
	Pid           uint32  `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float32 `json:"cpu_percent"`
	MemoryBytes   uint64  `json:"memory_bytes"`
	MemoryPercent float32 `json:"memory_percent"`
	User          string  `json:"user"`
	Command       string  `json:"command"`
}

func (p *ProcessInfo) GetPID() uint32            { return p.Pid }
func (p *ProcessInfo) GetName() string           { return p.Name }
func (p *ProcessInfo) GetUser() string           { return p.User }
func (p *ProcessInfo) GetCPUPercent() float32    { return p.CPUPercent }
func (p *ProcessInfo) GetMemoryPercent() float32 { return p.MemoryPercent }

// Assert interface compliance.
var _ filter.Filterable = (*ProcessInfo)(nil)

// SystemMetrics are the machine-wide counters of one snapshot.
type SystemMetrics struct {
	CPUUsage      float32 `json:"cpu_usage"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryPercent float32 `json:"memory_percent"`
}

// Snapshot is one full reading of the system and its processes.
type Snapshot struct {
	Timestamp string        `json:"timestamp"`
	System    SystemMetrics `json:"system"`
	Processes []ProcessInfo `json:"processes"`
}

// Apply filters, sorts and truncates the process list in place. A nil filter
// keeps every process; a limit of zero or less keeps the list untruncated.
func (s *Snapshot) Apply(f *filter.Filter, sortKey string, limit int) {
	if f != nil {
		kept := s.Processes[:0]
		for i := range s.Processes {
			if f.Matches(&s.Processes[i]) {
				kept = append(kept, s.Processes[i])
			}
		}

		s.Processes = kept
	}

	SortProcesses(s.Processes, sortKey)

	if limit > 0 && len(s.Processes) > limit {
		s.Processes = s.Processes[:limit]
	}
}

// ValidSortKey reports whether key names a supported process ordering.
func ValidSortKey(key string) bool {
	switch strings.ToLower(key) {
	case "cpu", "mem", "memory", "pid", "name":
		return true
	default:
		return false
	}
}

// SortProcesses orders procs in place by the given key: cpu and mem highest
// first, pid ascending, name case-folded ascending. Unknown keys fall back to
// cpu; callers that want to warn about that should check ValidSortKey first.
func SortProcesses(procs []ProcessInfo, key string) {
	switch strings.ToLower(key) {
	case "mem", "memory":
		sort.SliceStable(procs, func(i, j int) bool {
			return procs[i].MemoryPercent > procs[j].MemoryPercent
		})
	case "pid":
		sort.SliceStable(procs, func(i, j int) bool {
			return procs[i].Pid < procs[j].Pid
		})
	case "name":
		sort.SliceStable(procs, func(i, j int) bool {
			return strings.ToLower(procs[i].Name) < strings.ToLower(procs[j].Name)
		})
	default:
		sort.SliceStable(procs, func(i, j int) bool {
			return procs[i].CPUPercent > procs[j].CPUPercent
		})
	}
}
