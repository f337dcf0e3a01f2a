// Package output renders snapshots for the supported output formats. Data
// always goes to the writer the caller hands in (normally stdout); logging
// stays on stderr.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/stoptool/stop/internal"
	"github.com/stoptool/stop/internal/proc"
)

// WriteTable writes the human-readable snapshot view: a system summary block
// followed by the process table. filterExpr may be empty; shown is the number
// of processes on display after truncation.
func WriteTable(w io.Writer, snapshot *proc.Snapshot, filterExpr, sortKey string) error {
	_, err := fmt.Fprintf(w, "stop v%s\n\n", internal.Version.Version)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(
		w,
		"System:\n  CPU: %.1f%%\n  Memory: %.1f%% (%d / %d MB)\n\n",
		snapshot.System.CPUUsage,
		snapshot.System.MemoryPercent,
		snapshot.System.MemoryUsed/1024/1024,
		snapshot.System.MemoryTotal/1024/1024,
	); err != nil {
		return err
	}

	if filterExpr != "" {
		if _, err := fmt.Fprintf(w, "Filter: %s\n", filterExpr); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(
		w, "Sort: %s | Showing: %d processes\n\n", sortKey, len(snapshot.Processes),
	); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%-8s %-20s %8s %8s %-10s\n", "PID", "NAME", "CPU%", "MEM%", "USER"); err != nil {
		return err
	}

	if _, err := io.WriteString(w, strings.Repeat("-", 70)+"\n"); err != nil {
		return err
	}

	for i := range snapshot.Processes {
		p := &snapshot.Processes[i]
		if _, err := fmt.Fprintf(
			w, "%-8d %-20s %7.1f%% %7.1f%% %-10s\n",
			p.Pid, truncate(p.Name, 20), p.CPUPercent, p.MemoryPercent, truncate(p.User, 10),
		); err != nil {
			return err
		}
	}

	return nil
}

// WriteJSON writes the snapshot as indented JSON, for one-shot runs.
func WriteJSON(w io.Writer, snapshot *proc.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(snapshot)
}

// WriteNDJSON writes the snapshot as a single JSON line, for watch mode.
func WriteNDJSON(w io.Writer, snapshot *proc.Snapshot) error {
	return json.NewEncoder(w).Encode(snapshot)
}

// csvHeader lists the CSV columns, one row per process per snapshot.
var csvHeader = []string{
	"timestamp", "pid", "name", "cpu_percent", "memory_bytes", "memory_percent", "user", "command",
}

// WriteCSVHeader writes the CSV header row. In watch mode it is written once,
// before the first snapshot's rows.
func WriteCSVHeader(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVRows appends one row per process of the snapshot.
func WriteCSVRows(w io.Writer, snapshot *proc.Snapshot) error {
	cw := csv.NewWriter(w)
	for i := range snapshot.Processes {
		p := &snapshot.Processes[i]
		row := []string{
			snapshot.Timestamp,
			strconv.FormatUint(uint64(p.Pid), 10),
			p.Name,
			strconv.FormatFloat(float64(p.CPUPercent), 'f', 1, 32),
			strconv.FormatUint(p.MemoryBytes, 10),
			strconv.FormatFloat(float64(p.MemoryPercent), 'f', 1, 32),
			p.User,
			p.Command,
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFilterErrorJSON writes a filter parse failure as a structured JSON
// object, so machine consumers get the diagnostic on stdout like any other
// JSON-mode output.
func WriteFilterErrorJSON(w io.Writer, expression string, parseErr error) error {
	return json.NewEncoder(w).Encode(struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		Expression string `json:"expression"`
	}{
		Error:      "FilterError",
		Message:    parseErr.Error(),
		Expression: expression,
	})
}

// IsBrokenPipe reports whether err means the consumer of our output went away,
// e.g. when piping into head. Callers treat that as a graceful stop.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}

// truncate cuts s to at most max runes. Cutting on rune boundaries keeps
// multi-byte names valid UTF-8 in the table.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max])
}
