package proc

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// parseStatLine extracts the comm, consumed cpu jiffies (utime+stime) and rss
// page count from one /proc/<pid>/stat line. The comm field is enclosed in
// parentheses and may itself contain spaces or parentheses, so the remaining
// fields are located relative to the last ')'.
func parseStatLine(line string) (comm string, jiffies uint64, rssPages uint64, err error) {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < 0 || closing <= open {
		return "", 0, 0, errors.Errorf("malformed stat line %q", line)
	}

	comm = line[open+1 : closing]
	fields := strings.Fields(line[closing+1:])

	// Field numbering follows proc(5): fields[0] is field 3 (state) and we
	// need up to field 24 (rss).
	if len(fields) < 22 {
		return "", 0, 0, errors.Errorf("stat line has %d fields after comm, need at least 22", len(fields))
	}
	field := func(n int) string { return fields[n-3] }

	utime, _ := strconv.ParseUint(field(14), 10, 64)
	stime, _ := strconv.ParseUint(field(15), 10, 64)
	rssPages, _ = strconv.ParseUint(field(24), 10, 64)

	return comm, utime + stime, rssPages, nil
}

// parseCPUStat sums the aggregate "cpu" line of /proc/stat and splits out the
// non-busy portion (idle + iowait).
func parseCPUStat(line string) (total, idle uint64, err error) {
	fields := strings.Fields(line)
	if len(fields) < 6 || fields[0] != "cpu" {
		return 0, 0, errors.Errorf("malformed cpu stat line %q", line)
	}

	for i, tok := range fields[1:] {
		v, perr := strconv.ParseUint(tok, 10, 64)
		if perr != nil {
			continue
		}

		total += v
		if i == 3 || i == 4 { // idle, iowait
			idle += v
		}
	}

	return total, idle, nil
}

// cleanCmdline converts NUL-separated /proc/<pid>/cmdline data into one
// space-separated command string. Kernel threads have no cmdline, so the
// result may be empty.
func cleanCmdline(data []byte) string {
	for i := range data {
		if data[i] == 0 {
			data[i] = ' '
		}
	}

	return strings.TrimSpace(string(data))
}

// parseStatusUID extracts the real UID from /proc/<pid>/status content.
func parseStatusUID(data string) (uint32, bool) {
	for _, line := range strings.Split(data, "\n") {
		if !strings.HasPrefix(line, "Uid:") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}

		uid, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return 0, false
		}

		return uint32(uid), true
	}

	return 0, false
}
