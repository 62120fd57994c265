// Package memory implements the buffer-retention strategy spec §9
// describes for the in-memory candidate set: "retain the producing batches
// (reference-counted) until flush." Go's garbage collector makes an actual
// reference count unnecessary, but the candidate set still needs an
// explicit point at which it releases its hold on arriving cell batches —
// Arena is that point, grounded on the teacher's internal/memory/arena.go.
package memory

import "github.com/kartikbazzad/secidx/pkg/table"

// Arena retains whole cell batches so that byte slices the Candidate Set
// stored (row keys parsed out of those batches) stay valid for as long as
// the set is in buffered mode. Release drops every retained batch at once;
// the Candidate Set calls it when it promotes to staging. On the
// direct-fetch path the keys are consumed without a promotion, Release is
// not called, and the batches stay retained for as long as the Set does.
type Arena struct {
	batches [][]table.Cell
}

func NewArena() *Arena {
	return &Arena{batches: make([][]table.Cell, 0, 8)}
}

// Retain keeps batch alive. Call only for a batch whose parse produced at
// least one new candidate key (spec §4.3's "buffers whose parse produced at
// least one new key").
func (a *Arena) Retain(batch []table.Cell) {
	a.batches = append(a.batches, batch)
}

// Release drops every retained batch.
func (a *Arena) Release() {
	a.batches = nil
}

// Len reports the number of retained batches, for tests and metrics.
func (a *Arena) Len() int {
	return len(a.batches)
}
