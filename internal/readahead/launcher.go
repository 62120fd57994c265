package readahead

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"

	"github.com/kartikbazzad/secidx/internal/logger"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// Launcher opens primary-table readahead scanners from a bounded goroutine
// pool (spec §4.4), replacing a raw goroutine-per-scan with
// github.com/panjf2000/ants so a burst of readahead launches cannot spawn
// unbounded goroutines against the primary table.
type Launcher struct {
	pool    *ants.Pool
	primary table.TableHandle
	sink    table.ResultSink
	log     *logger.Logger
}

// NewLauncher builds a Launcher bounded at workers goroutines.
func NewLauncher(primary table.TableHandle, sink table.ResultSink, log *logger.Logger, workers int) (*Launcher, error) {
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v interface{}) {
		log.Error("readahead: launcher panic: %v", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("readahead: new pool: %w", err)
	}
	return &Launcher{
		pool:    pool,
		primary: primary,
		sink:    sink,
		log:     log,
	}, nil
}

// Launch opens an asynchronous primary-table scanner for spec, tagged
// IgnoreIndex (spec §6), bound back to sink. The actual
// CreateScannerAsync call, and the RegisterScanner/OnScanOK callbacks it
// triggers, happen on a pool goroutine — Launch itself returns as soon as
// the task is accepted into the pool.
func (l *Launcher) Launch(ctx context.Context, spec table.ScanSpec) error {
	spec.IgnoreIndex = true
	return l.pool.Submit(func() {
		if _, err := l.primary.CreateScannerAsync(ctx, spec, l.sink); err != nil {
			l.log.Error("readahead: create primary scanner: %v", err)
		}
	})
}

// Close releases the goroutine pool.
func (l *Launcher) Close() {
	l.pool.Release()
}
