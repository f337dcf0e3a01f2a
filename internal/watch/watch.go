// Package watch implements continuous monitoring: collect, filter, sort and
// render on a fixed interval until the context is cancelled.
package watch

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/stoptool/stop/internal/filter"
	"github.com/stoptool/stop/internal/output"
	"github.com/stoptool/stop/internal/proc"
)

// Collector yields one snapshot per refresh.
type Collector interface {
	Snapshot(ctx context.Context) (*proc.Snapshot, error)
}

// Mode selects how each refresh is rendered.
type Mode int

const (
	// ModeTable clears the screen and redraws the human-readable table.
	ModeTable Mode = iota
	// ModeJSON emits one JSON line per refresh (NDJSON).
	ModeJSON
	// ModeCSV emits the header once, then one row per process per refresh.
	ModeCSV
)

// clearScreen moves the cursor home and wipes the terminal before a redraw.
const clearScreen = "\x1b[2J\x1b[H"

// Options configure one watch run. The filter is parsed once by the caller
// and reused on every refresh.
type Options struct {
	Filter     *filter.Filter
	FilterExpr string
	SortBy     string
	TopN       int
	Interval   time.Duration
	Mode       Mode
	Out        io.Writer
}

// Run refreshes until ctx is cancelled. A broken pipe on the output ends the
// run without error so that piping into consumers like head behaves.
func Run(ctx context.Context, collector Collector, opts Options, logger *zap.SugaredLogger) error {
	logger.Infow("starting watch mode", "interval", opts.Interval)

	first := true
	for {
		snapshot, err := collector.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		snapshot.Apply(opts.Filter, opts.SortBy, opts.TopN)

		if err := render(snapshot, &opts, first); err != nil {
			if output.IsBrokenPipe(err) {
				logger.Debug("output closed, stopping")
				return nil
			}

			return err
		}
		first = false

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(opts.Interval):
		}
	}
}

func render(snapshot *proc.Snapshot, opts *Options, first bool) error {
	switch opts.Mode {
	case ModeJSON:
		return output.WriteNDJSON(opts.Out, snapshot)
	case ModeCSV:
		if first {
			if err := output.WriteCSVHeader(opts.Out); err != nil {
				return err
			}
		}

		return output.WriteCSVRows(opts.Out, snapshot)
	default:
		if _, err := io.WriteString(opts.Out, clearScreen); err != nil {
			return err
		}

		return output.WriteTable(opts.Out, snapshot, opts.FilterExpr, opts.SortBy)
	}
}
