// Package listener exposes the current system snapshot over HTTP.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stoptool/stop/internal/filter"
	"github.com/stoptool/stop/internal/proc"
)

// Collector yields one snapshot per request.
type Collector interface {
	Snapshot(ctx context.Context) (*proc.Snapshot, error)
}

// Listener serves snapshots over HTTP.
type Listener struct {
	address   string
	collector Collector
	sortBy    string
	topN      int
	logger    *zap.SugaredLogger
	mux       http.ServeMux
}

// NewListener returns a Listener serving on address. sortBy and topN are the
// defaults applied when a request does not override them.
func NewListener(address string, collector Collector, sortBy string, topN int, logger *zap.SugaredLogger) *Listener {
	l := &Listener{
		address:   address,
		collector: collector,
		sortBy:    sortBy,
		topN:      topN,
		logger:    logger,
	}
	l.mux.HandleFunc("/snapshot", l.ServeSnapshot)

	return l
}

// Run serves until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	server := &http.Server{Addr: l.address, Handler: &l.mux}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	l.logger.Infof("Starting listener on http://%s", l.address)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// ServeSnapshot handles GET /snapshot?filter=EXPR&sort=KEY&limit=N, returning
// the current snapshot with the query applied, as JSON.
func (l *Listener) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = fmt.Fprintln(w, "GET required")
		return
	}

	query := r.URL.Query()

	var rule *filter.Filter
	if expression := query.Get("filter"); expression != "" {
		var err error
		if rule, err = filter.ParseFilter(expression); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, "cannot parse filter: %v\n", err)
			return
		}
	}

	sortBy := l.sortBy
	if key := query.Get("sort"); key != "" {
		if !proc.ValidSortKey(key) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, "unknown sort key %q, valid keys: cpu, mem, pid, name\n", key)
			return
		}

		sortBy = key
	}

	limit := l.topN
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, "invalid limit %q\n", raw)
			return
		}

		limit = parsed
	}

	snapshot, err := l.collector.Snapshot(r.Context())
	if err != nil {
		l.logger.Errorw("cannot collect snapshot", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprintln(w, "cannot collect snapshot")
		return
	}

	snapshot.Apply(rule, sortBy, limit)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		l.logger.Errorw("cannot write snapshot", zap.Error(err))
	}
}
