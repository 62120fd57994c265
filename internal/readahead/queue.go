// Package readahead implements the Readahead Queue and launcher (spec §3,
// §4.4): a bounded FIFO of prepared primary-table scan specs, with producer
// backpressure via a condition variable built on the coordinator's own
// mutex (spec §5, §9).
package readahead

import (
	"sync"

	"github.com/kartikbazzad/secidx/pkg/table"
)

// Queue is the bounded FIFO. It is not safe for concurrent use on its own —
// every method must be called while holding the *sync.Mutex passed to New,
// the coordinator's single lock (spec §5's documented re-entrancy
// concession: the producer releases that lock inside Enqueue's wait and
// reacquires it on wake).
type Queue struct {
	limit  int
	cond   *sync.Cond
	items  []table.ScanSpec
	closed bool
}

// New builds a Queue bounded by limit, using mu as both the caller's
// critical-section lock and the condition variable's lock. A producer
// blocks only once the queue holds more than limit entries, so up to
// limit+1 specs can be queued at once.
func New(mu *sync.Mutex, limit int) *Queue {
	return &Queue{
		limit: limit,
		cond:  sync.NewCond(mu),
	}
}

// Cancelled reports whether the caller's cancellation condition (limits
// reached, or end-of-stream already set) holds. Enqueue takes one of these
// so it can stop waiting without the queue needing to know about the
// coordinator's state.
type Cancelled func() bool

// Enqueue appends spec, blocking on the condition variable while the queue
// holds more than limit entries (spec §4.4's "producer blocks ... while
// |queue| > QUEUE_LIMIT"). If cancelled() becomes true while waiting, or the queue
// has been closed, the spec is discarded and Enqueue returns false (spec
// §4.4: "the producer discards the spec and returns").
func (q *Queue) Enqueue(spec table.ScanSpec, cancelled Cancelled) bool {
	for len(q.items) > q.limit {
		if q.closed || cancelled() {
			return false
		}
		q.cond.Wait()
	}
	if q.closed || cancelled() {
		return false
	}
	q.items = append(q.items, spec)
	return true
}

// Dequeue pops the head spec, signaling any producer waiting on
// not-full (spec §4.4: "emptying signals it").
func (q *Queue) Dequeue() (table.ScanSpec, bool) {
	if len(q.items) == 0 {
		return table.ScanSpec{}, false
	}
	spec := q.items[0]
	q.items = q.items[1:]
	q.cond.Signal()
	return spec, true
}

// Len reports the number of queued specs.
func (q *Queue) Len() int {
	return len(q.items)
}

// Clear empties the queue and wakes every waiter — the cancellation path
// (spec §5): "clears the queue (freeing enqueued specs)" and "wakes the
// verification waiter."
func (q *Queue) Clear() {
	q.items = nil
	q.closed = true
	q.cond.Broadcast()
}
