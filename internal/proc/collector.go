package proc

import (
	"bufio"
	"context"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// sampleWindow is how long a snapshot waits between its two /proc readings.
// Per-process CPU usage is the jiffy delta across this window.
const sampleWindow = 200 * time.Millisecond

// Collector produces snapshots of the running system from /proc.
// It holds no state between snapshots and is safe for concurrent use.
type Collector struct {
	root     string
	sample   time.Duration
	pageSize uint64
	logger   *zap.SugaredLogger
}

// NewCollector returns a Collector reading from /proc.
func NewCollector(logger *zap.SugaredLogger) *Collector {
	return &Collector{
		root:     "/proc",
		sample:   sampleWindow,
		pageSize: uint64(os.Getpagesize()),
		logger:   logger,
	}
}

// Snapshot collects one full system snapshot, waiting out the sampling window
// in between the two /proc readings unless ctx is cancelled first. Processes
// that vanish between the readings raced with their own exit and are skipped.
func (c *Collector) Snapshot(ctx context.Context) (*Snapshot, error) {
	totalBefore, idleBefore, err := c.readCPUStat()
	if err != nil {
		return nil, err
	}
	jiffiesBefore := c.readProcessJiffies()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.sample):
	}

	totalAfter, idleAfter, err := c.readCPUStat()
	if err != nil {
		return nil, err
	}

	totalDelta := totalAfter - totalBefore
	if totalDelta == 0 {
		totalDelta = 1
	}

	var busy uint64
	if busyDelta := totalDelta - (idleAfter - idleBefore); busyDelta < totalDelta {
		busy = busyDelta
	} else {
		busy = totalDelta
	}

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return nil, errors.Wrap(err, "cannot read sysinfo")
	}

	unit := uint64(info.Unit)
	memTotal := uint64(info.Totalram) * unit
	memUsed := memTotal - (uint64(info.Freeram)+uint64(info.Bufferram))*unit
	if memTotal == 0 {
		memTotal = 1
	}

	snapshot := &Snapshot{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		System: SystemMetrics{
			CPUUsage:      float32(float64(busy) / float64(totalDelta) * 100),
			MemoryTotal:   memTotal,
			MemoryUsed:    memUsed,
			MemoryPercent: float32(float64(memUsed) / float64(memTotal) * 100),
		},
	}

	usernames := make(map[uint32]string)
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", c.root)
	}

	for _, entry := range entries {
		pid, perr := strconv.ParseUint(entry.Name(), 10, 32)
		if perr != nil {
			continue
		}

		process, ok := c.readProcess(uint32(pid), jiffiesBefore, totalDelta, memTotal, usernames)
		if !ok {
			continue
		}

		snapshot.Processes = append(snapshot.Processes, process)
	}

	c.logger.Debugf("collected %d processes", len(snapshot.Processes))

	return snapshot, nil
}

// readProcess assembles one ProcessInfo from the per-PID files. It reports
// false when the process can no longer be read.
func (c *Collector) readProcess(
	pid uint32, jiffiesBefore map[uint32]uint64, totalDelta, memTotal uint64, usernames map[uint32]string,
) (ProcessInfo, bool) {
	dir := filepath.Join(c.root, strconv.FormatUint(uint64(pid), 10))

	stat, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return ProcessInfo{}, false
	}

	comm, jiffies, rssPages, err := parseStatLine(string(stat))
	if err != nil {
		c.logger.Debugw("skipping unparsable process", "pid", pid, zap.Error(err))
		return ProcessInfo{}, false
	}

	var cpuPercent float32
	if prev, ok := jiffiesBefore[pid]; ok && jiffies > prev {
		cpuPercent = float32(float64(jiffies-prev) / float64(totalDelta) * 100)
	}

	memBytes := rssPages * c.pageSize

	uid := uint32(0)
	if status, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
		uid, _ = parseStatusUID(string(status))
	}

	username, ok := usernames[uid]
	if !ok {
		username = lookupUsername(uid)
		usernames[uid] = username
	}

	command := ""
	if cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline")); err == nil {
		command = cleanCmdline(cmdline)
	}

	return ProcessInfo{
		Pid:           pid,
		Name:          comm,
		CPUPercent:    cpuPercent,
		MemoryBytes:   memBytes,
		MemoryPercent: float32(float64(memBytes) / float64(memTotal) * 100),
		User:          username,
		Command:       command,
	}, true
}

// readProcessJiffies takes the first reading of every process's consumed cpu
// time, keyed by PID.
func (c *Collector) readProcessJiffies() map[uint32]uint64 {
	jiffies := make(map[uint32]uint64)

	entries, err := os.ReadDir(c.root)
	if err != nil {
		return jiffies
	}

	for _, entry := range entries {
		pid, perr := strconv.ParseUint(entry.Name(), 10, 32)
		if perr != nil {
			continue
		}

		stat, rerr := os.ReadFile(filepath.Join(c.root, entry.Name(), "stat"))
		if rerr != nil {
			continue
		}

		if _, j, _, serr := parseStatLine(string(stat)); serr == nil {
			jiffies[uint32(pid)] = j
		}
	}

	return jiffies
}

// readCPUStat reads the aggregate cpu counters from /proc/stat.
func (c *Collector) readCPUStat() (total, idle uint64, err error) {
	f, err := os.Open(filepath.Join(c.root, "stat"))
	if err != nil {
		return 0, 0, errors.Wrap(err, "cannot open cpu statistics")
	}
	defer func() { _ = f.Close() }()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil {
		return 0, 0, errors.Wrap(err, "cannot read cpu statistics")
	}

	return parseCPUStat(line)
}

// lookupUsername resolves a UID to a username, falling back to the numeric
// form for UIDs without a passwd entry.
func lookupUsername(uid uint32) string {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return strconv.FormatUint(uint64(uid), 10)
	}

	return u.Username
}
