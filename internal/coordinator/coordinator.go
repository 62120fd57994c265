// Package coordinator implements the Coordinator State Machine (spec §4.1):
// the component that, given a scan against a primary table with an indexed
// predicate, transparently drives the index scan, the candidate-set
// accumulation, the staging-table verification pass (or direct fetch), and
// the predicate-limited delivery of surviving cells to the caller's sink.
//
// A Coordinator implements table.ResultSink twice over: once as the sink
// its own children call back into (through an originSink per child,
// sink.go), and once as the object that calls IncrementOutstanding and
// DecrementOutstanding on the caller's sink, exactly as a single long-lived
// scanner would (spec §3).
package coordinator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kartikbazzad/secidx/internal/candidate"
	secidxerrors "github.com/kartikbazzad/secidx/internal/errors"
	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/internal/config"
	"github.com/kartikbazzad/secidx/internal/logger"
	"github.com/kartikbazzad/secidx/internal/metrics"
	"github.com/kartikbazzad/secidx/internal/predicate"
	"github.com/kartikbazzad/secidx/internal/readahead"
	"github.com/kartikbazzad/secidx/internal/staging"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// Coordinator drives a single secondary-index scan end to end. Every
// method below that touches coordinator state does so under mu — the
// single coordinator-scoped mutex spec §5 calls for — except
// OutstandingScanners, which is a dedicated atomic precisely so a child
// scanner's factory can register it without ever needing that lock
// (sink.go's RegisterScanner).
type Coordinator struct {
	mu  sync.Mutex
	cfg config.Config
	log *logger.Logger
	met *metrics.Coordinator

	req        table.ScanRequest
	userSink   table.ResultSink
	classifier *secidxerrors.Classifier
	ctx        context.Context
	cancel     context.CancelFunc

	columnMap  indexkey.ColumnMap
	candidates *candidate.Set
	stagingMgr *staging.Manager
	queue      *readahead.Queue
	builder    *readahead.Builder
	launcher   *readahead.Launcher
	tracker    *predicate.Tracker

	warnCache *indexkey.WarnCache

	outstanding atomic.Int64

	indexRemaining   int
	stagingRemaining int
	primaryInFlight  int

	stagingScannerEnded bool
	limitsReached       bool
	aborted             bool
	finalDecremented    bool
	terminal            bool
}

// New builds a Coordinator bound to req and userSink. It performs no I/O;
// call Start to begin the scan.
func New(cfg config.Config, log *logger.Logger, met *metrics.Coordinator, req table.ScanRequest, userSink table.ResultSink) *Coordinator {
	c := &Coordinator{
		cfg:        cfg,
		log:        log,
		met:        met,
		req:        req,
		userSink:   userSink,
		classifier: secidxerrors.NewClassifier(),
		warnCache:  indexkey.NewWarnCache(256),
	}
	c.queue = readahead.New(&c.mu, cfg.QueueLimit)
	if predicate.Active(req.Spec) {
		c.tracker = predicate.New(req.Spec)
	}
	return c
}

// Start launches the scan: it increments the user sink's outstanding count
// exactly once (spec §3), resolves the indexed column families, and opens
// one child scanner per indexed family on its index table. ctx bounds every
// asynchronous operation the coordinator initiates for the remainder of
// this scan's lifetime.
func (c *Coordinator) Start(ctx context.Context) error {
	c.log = c.log.WithTrace(ctx)

	timeout := c.req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.ScanTimeout
	}
	if timeout <= 0 {
		timeout = table.DefaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	c.ctx = ctx
	c.cancel = cancel

	c.userSink.IncrementOutstanding()

	schema := c.req.Primary.Schema()
	c.columnMap = indexkey.BuildColumnMap(schema, c.req.QualifierIndex)

	c.stagingMgr = staging.NewManager(c.req.StagingNamespace, schema, c.req.QualifierIndex, &originSink{coord: c, origin: originStaging}, c.log)
	promote := func(ctx context.Context, buffered map[string]indexkey.Candidate) (candidate.Stager, error) {
		return c.stagingMgr.Promote(ctx, buffered)
	}
	c.candidates = candidate.New(c.cfg.TmpCutoff, promote)
	c.builder = readahead.NewBuilder(c.cfg.VerificationPolicy, verificationTemplate(c.req.Spec))

	launcher, err := readahead.NewLauncher(c.req.Primary, &originSink{coord: c, origin: originPrimary}, c.log, c.cfg.ReadaheadWorkers)
	if err != nil {
		return err
	}
	c.launcher = launcher

	families := uniqueFamilyNames(c.columnMap)

	c.mu.Lock()
	launched := 0
	for _, family := range families {
		tableName := indexTableName(c.req.Primary.Name(), family)
		idxTable, err := c.req.IndexNamespace.OpenTable(ctx, tableName)
		if err != nil {
			c.log.Warn("coordinator: open index table %s: %v", tableName, err)
			continue
		}
		sink := &originSink{coord: c, origin: originIndex}
		if _, err := idxTable.CreateScannerAsync(ctx, table.ScanSpec{IgnoreIndex: true}, sink); err != nil {
			c.log.Warn("coordinator: create index scanner on %s: %v", tableName, err)
			continue
		}
		c.indexRemaining++
		launched++
	}

	var fired bool
	if launched == 0 {
		// Spec §9's open question, resolved: no indexed family matched the
		// scan kind, so there is nothing to verify against — finalize
		// immediately rather than falling through the verification stages.
		c.stagingScannerEnded = true
		fired = c.maybeFinalizeLocked()
	}
	c.mu.Unlock()

	if fired {
		c.dropStagingAsync()
	}
	return nil
}

// Close cancels an in-progress scan the caller is abandoning early: it
// clears the readahead queue, releases the launcher's worker pool, and
// drops the staging table if one was ever created. It does not wait for
// in-flight child scanners to drain.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.aborted = true
	c.queue.Clear()
	if c.launcher != nil {
		c.launcher.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	if c.stagingMgr != nil && c.stagingMgr.Created() {
		return c.stagingMgr.Drop(ctx)
	}
	return nil
}

func (c *Coordinator) cancelledLocked() bool {
	return c.limitsReached || c.aborted || c.finalDecremented
}

// onScanOK is the sole entry point every originSink's OnScanOK forwards to.
// It implements spec §4.1's filter rule, terminal bookkeeping, and
// demultiplexing by origin.
func (c *Coordinator) onScanOK(sc table.Scanner, cells []table.Cell, eos bool, origin childOrigin) {
	if len(cells) == 0 && !eos {
		return
	}

	c.mu.Lock()
	var fired bool
	defer func() {
		c.mu.Unlock()
		if fired {
			c.dropStagingAsync()
		}
	}()

	if eos {
		c.decrementOriginLocked(origin)
		c.outstanding.Add(-1)
		c.met.OutstandingScanners.Set(float64(c.outstanding.Load()))
	}

	if c.terminal {
		return
	}

	switch origin {
	case originIndex:
		c.handleIndexBatchLocked(cells)
		if eos && c.indexRemaining == 0 {
			c.endOfIndexingLocked()
		}
	case originStaging:
		c.handleStagingBatchLocked(cells)
	case originPrimary:
		c.handlePrimaryBatchLocked(cells)
		if eos && !c.limitsReached {
			c.maybeLaunchLocked()
		}
	}

	fired = c.maybeFinalizeLocked()
}

// onScanError forwards verbatim to the user sink; a terminal (eos) scan
// error bypasses the normal finalizer entirely and becomes the scan's
// user-visible terminal event (spec §7).
func (c *Coordinator) onScanError(sc table.Scanner, code int, msg string, eos bool, origin childOrigin) {
	c.mu.Lock()
	var fired bool

	c.userSink.OnScanError(sc, code, msg, eos)

	if eos {
		c.decrementOriginLocked(origin)
		c.outstanding.Add(-1)
		c.met.OutstandingScanners.Set(float64(c.outstanding.Load()))
		c.aborted = true
		c.queue.Clear()
		fired = c.fireTerminalLocked(false)
	}

	c.mu.Unlock()
	if fired {
		c.dropStagingAsync()
	}
}

// onUpdateError forwards a failed staging-table write verbatim to the user
// sink. Spec §7: candidate loss here is accepted, never retried, never
// terminal on its own.
func (c *Coordinator) onUpdateError(m table.Mutator, code int, failures []table.UpdateFailure) {
	c.mu.Lock()
	c.userSink.OnUpdateError(m, code, failures)
	c.mu.Unlock()
	c.log.Warn("coordinator: staging mutator reported %d failed writes (code=%d)", len(failures), code)
}

func (c *Coordinator) decrementOriginLocked(origin childOrigin) {
	switch origin {
	case originIndex:
		c.indexRemaining--
	case originStaging:
		c.stagingRemaining--
		// The staging scanner reaching end-of-stream is itself "a path
		// signalling end-of-stream" for the finalizer's OR condition
		// (spec §4.1): no staging batch will ever produce a new
		// verification spec again.
		c.stagingScannerEnded = true
	case originPrimary:
		c.primaryInFlight--
	}
}

// handleIndexBatchLocked decodes each index-table cell into a candidate (or
// logs and skips it), and feeds survivors into the Candidate Set.
func (c *Coordinator) handleIndexBatchLocked(cells []table.Cell) {
	filter := indexkey.FilterSpec{
		RowIntervals:   c.req.Spec.RowIntervals,
		CellIntervals:  c.req.Spec.CellIntervals,
		QualifierIndex: c.req.QualifierIndex,
	}

	cands := make([]indexkey.Candidate, 0, len(cells))
	for _, cell := range cells {
		cand, keep, err := indexkey.Decode(cell, c.columnMap, filter)
		if err != nil {
			if c.warnCache.ShouldWarn(cell.Key.Row) {
				c.log.Warn("coordinator: skipping malformed index entry: %v", err)
			}
			c.met.RecordMalformed(c.classifier.Classify(err))
			continue
		}
		if !keep {
			continue
		}
		cands = append(cands, cand)
	}
	if len(cands) == 0 {
		return
	}

	before := c.candidates.Mode()
	accepted, err := c.candidates.InsertBatch(c.ctx, cells, cands)
	if err != nil {
		c.log.Error("coordinator: candidate set insert: %v", err)
		return
	}
	if accepted > 0 {
		c.met.CandidatesAccepted.Add(float64(accepted))
	}
	if before == candidate.ModeBuffered && c.candidates.Mode() == candidate.ModeStaging {
		c.met.StagingPromotions.Inc()
	}
}

// endOfIndexingLocked fires once, the moment every index-origin scanner has
// reached end-of-stream (spec §4.1): it closes the Candidate Set's mutator
// (if any) and opens either a scanner on the staging table or the
// direct-fetch scanner, per spec §4.3's mode switch.
func (c *Coordinator) endOfIndexingLocked() {
	switch {
	case c.candidates.Mode() == candidate.ModeStaging:
		if err := c.candidates.Close(c.ctx); err != nil {
			c.log.Error("coordinator: close staging mutator: %v", err)
		}
		if _, err := c.stagingMgr.OpenScanner(c.ctx, c.req.Spec, &originSink{coord: c, origin: originStaging}); err != nil {
			c.log.Error("coordinator: open staging scanner: %v", err)
			c.stagingScannerEnded = true
			return
		}
		c.stagingRemaining++

	case !c.candidates.IsEmpty():
		buffered := c.candidates.BufferedRows()
		rows := make([][]byte, len(buffered))
		for i, cand := range buffered {
			rows[i] = cand.Row
		}
		spec := directFetchSpec(c.req.Spec, rows)
		if _, err := c.req.Primary.CreateScannerAsync(c.ctx, spec, &originSink{coord: c, origin: originPrimary}); err != nil {
			c.log.Error("coordinator: open direct-fetch scanner: %v", err)
			c.stagingScannerEnded = true
			return
		}
		c.primaryInFlight++
		c.stagingScannerEnded = true // no staging scanner in this path; production ends with this one scanner.

	default:
		// Candidate set never accepted a single row and never promoted:
		// nothing to verify. Spec §9's open question, resolved the same
		// way as the no-indexed-family case in Start.
		c.stagingScannerEnded = true
	}
}

// handleStagingBatchLocked turns one batch of verified candidate rows
// (delivered by the staging-table scanner) into primary-table readahead
// scan specs, and enqueues them (spec §4.4).
func (c *Coordinator) handleStagingBatchLocked(cells []table.Cell) {
	rows := make([][]byte, len(cells))
	for i, cell := range cells {
		rows[i] = cell.Key.Row
	}

	specs := c.builder.Build(rows)
	for _, spec := range specs {
		if ok := c.queue.Enqueue(spec, c.cancelledLocked); !ok {
			return
		}
		c.met.ReadaheadQueueDepth.Set(float64(c.queue.Len()))
	}
	c.maybeLaunchLocked()
}

// handlePrimaryBatchLocked applies the Predicate Tracker (when one is
// active) to a batch of verified cells returned from the primary table, and
// forwards survivors to the user sink.
func (c *Coordinator) handlePrimaryBatchLocked(cells []table.Cell) {
	toEmit := cells
	if c.tracker != nil {
		toEmit = c.tracker.Apply(cells)
		if c.tracker.LimitsReached() {
			c.limitsReached = true
			c.queue.Clear()
		}
	}
	if len(toEmit) > 0 {
		c.userSink.OnScanOK(nil, toEmit, false)
	}
}

// maybeLaunchLocked drains the readahead queue while the number of
// in-flight primary-table verification scanners is at or below
// LauncherSlack (spec §4.4, §9): normally this keeps exactly one
// verification scanner in flight beyond the staging scanner itself.
func (c *Coordinator) maybeLaunchLocked() {
	if c.aborted || c.limitsReached {
		return
	}
	for c.primaryInFlight <= c.cfg.LauncherSlack {
		spec, ok := c.queue.Dequeue()
		if !ok {
			return
		}
		c.met.ReadaheadQueueDepth.Set(float64(c.queue.Len()))
		c.primaryInFlight++
		if err := c.launcher.Launch(c.ctx, spec); err != nil {
			c.log.Error("coordinator: launch readahead scanner: %v", err)
			c.primaryInFlight--
		}
	}
}

// maybeFinalizeLocked implements the finalizer (spec §4.1, §3): it fires
// exactly once, when OutstandingScanners has drained to zero, no launched
// primary-table scanner is still pending (a readahead scanner registers
// itself from a pool goroutine, after Launch has returned), and either
// limits were reached or some path has signalled that no further
// verification work will ever be produced.
func (c *Coordinator) maybeFinalizeLocked() bool {
	if c.finalDecremented {
		return false
	}
	if c.outstanding.Load() != 0 || c.primaryInFlight > 0 {
		return false
	}
	if !c.limitsReached && !c.stagingScannerEnded {
		return false
	}
	return c.fireTerminalLocked(true)
}

// fireTerminalLocked is the single place TerminalFlag and FinalDecrementFlag
// are set (spec §3); it guards both the normal finalizer and the
// terminal-scan-error bypass, so a scan emits its terminal notification to
// the user sink at most once no matter which path reaches it first.
func (c *Coordinator) fireTerminalLocked(emitBatch bool) bool {
	if c.finalDecremented {
		return false
	}
	c.finalDecremented = true
	c.terminal = true
	c.met.TerminalEmissions.Inc()
	if emitBatch {
		c.userSink.OnScanOK(nil, nil, true)
	}
	c.userSink.DecrementOutstanding()
	if c.cancel != nil {
		c.cancel()
	}
	return true
}

// dropStagingAsync releases the launcher's worker pool and, if a staging
// table was ever created, drops it in the background. Called after mu has
// been released, never while holding it — dropping a table is an RPC, and
// spec §5 keeps all blocking I/O out of the critical section.
func (c *Coordinator) dropStagingAsync() {
	if c.launcher != nil {
		c.launcher.Close()
	}
	if c.stagingMgr == nil || !c.stagingMgr.Created() {
		return
	}
	go func() {
		if err := c.stagingMgr.Drop(context.Background()); err != nil {
			c.log.Error("coordinator: drop staging table %s: %v", c.stagingMgr.TableName(), err)
		}
	}()
}
