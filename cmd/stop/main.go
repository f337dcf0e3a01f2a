package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stoptool/stop/internal"
	"github.com/stoptool/stop/internal/config"
	"github.com/stoptool/stop/internal/filter"
	"github.com/stoptool/stop/internal/listener"
	"github.com/stoptool/stop/internal/logging"
	"github.com/stoptool/stop/internal/output"
	"github.com/stoptool/stop/internal/proc"
	"github.com/stoptool/stop/internal/watch"
)

func main() {
	var (
		configPath  string
		jsonOut     bool
		csvOut      bool
		filterExpr  string
		sortBy      string
		topN        int
		watchMode   bool
		interval    time.Duration
		listenAddr  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.BoolVar(&jsonOut, "json", false, "output as JSON")
	flag.BoolVar(&csvOut, "csv", false, "output as CSV")
	flag.StringVar(&filterExpr, "filter", "", "filter processes (e.g., 'cpu > 10')")
	flag.StringVar(&sortBy, "sort-by", "", "sort by metric (cpu, mem, pid, name)")
	flag.IntVar(&topN, "top-n", 0, "show top N processes")
	flag.BoolVar(&watchMode, "watch", false, "watch mode (continuous updates)")
	flag.DurationVar(&interval, "interval", 0, "refresh interval in watch mode")
	flag.StringVar(&listenAddr, "listen", "", "serve snapshots over HTTP on this address")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		internal.Version.Print("stop")
		return
	}

	conf, err := loadConfig(configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(1)
	}

	// Flags the user set explicitly win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sort-by":
			conf.SortBy = sortBy
		case "top-n":
			conf.TopN = topN
		case "interval":
			conf.Interval = interval
		case "listen":
			conf.Listen = listenAddr
		}
	})

	if conf.Interval <= 0 || conf.TopN <= 0 {
		_, _ = fmt.Fprintln(os.Stderr, "interval and top-n must be positive")
		os.Exit(1)
	}

	logs, err := logging.NewLogging("stop", conf.Logging.Level)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cannot initialize logging:", err)
		os.Exit(1)
	}
	logger := logs.GetLogger()

	var rule *filter.Filter
	if filterExpr != "" {
		if rule, err = filter.ParseFilter(filterExpr); err != nil {
			if jsonOut {
				_ = output.WriteFilterErrorJSON(os.Stdout, filterExpr, err)
			} else {
				_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
				_, _ = fmt.Fprintln(os.Stderr, "Expression:", filterExpr)
			}
			os.Exit(1)
		}
	}

	if !proc.ValidSortKey(conf.SortBy) {
		logger.Warnf("Unknown sort field %q, using 'cpu'. Valid: cpu, mem, pid, name", conf.SortBy)
		conf.SortBy = "cpu"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := proc.NewCollector(logs.GetChildLogger("proc"))

	var mode watch.Mode
	switch {
	case jsonOut:
		mode = watch.ModeJSON
	case csvOut:
		mode = watch.ModeCSV
	default:
		mode = watch.ModeTable
	}

	g, ctx := errgroup.WithContext(ctx)

	if conf.Listen != "" {
		l := listener.NewListener(conf.Listen, collector, conf.SortBy, conf.TopN, logs.GetChildLogger("listener"))
		g.Go(func() error { return l.Run(ctx) })
	}

	switch {
	case watchMode:
		opts := watch.Options{
			Filter:     rule,
			FilterExpr: filterExpr,
			SortBy:     conf.SortBy,
			TopN:       conf.TopN,
			Interval:   conf.Interval,
			Mode:       mode,
			Out:        os.Stdout,
		}
		g.Go(func() error { return watch.Run(ctx, collector, opts, logs.GetChildLogger("watch")) })
	case conf.Listen == "":
		g.Go(func() error { return oneShot(ctx, collector, rule, conf, filterExpr, mode) })
	}

	if err := g.Wait(); err != nil {
		logger.Fatalw("terminated with an error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.ConfigFile, error) {
	if path == "" {
		return config.Default()
	}

	return config.FromFile(path)
}

// oneShot collects a single snapshot and renders it in the selected format.
func oneShot(
	ctx context.Context, collector *proc.Collector, rule *filter.Filter,
	conf *config.ConfigFile, filterExpr string, mode watch.Mode,
) error {
	snapshot, err := collector.Snapshot(ctx)
	if err != nil {
		return err
	}

	snapshot.Apply(rule, conf.SortBy, conf.TopN)

	switch mode {
	case watch.ModeJSON:
		return output.WriteJSON(os.Stdout, snapshot)
	case watch.ModeCSV:
		if err := output.WriteCSVHeader(os.Stdout); err != nil {
			return err
		}

		return output.WriteCSVRows(os.Stdout, snapshot)
	default:
		return output.WriteTable(os.Stdout, snapshot, filterExpr, conf.SortBy)
	}
}
