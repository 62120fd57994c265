// Package predicate implements the Predicate Tracker (spec §4.5): applying
// the user-visible ROW/CELL LIMIT, OFFSET, and CELL_LIMIT_PER_FAMILY to
// verified cells arriving from the primary table, forwarding survivors to
// the caller's sink.
package predicate

import (
	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// Active reports whether any limit/offset is set, per spec §4.5's
// activation condition. When false, cells should be forwarded verbatim and
// a Tracker need not be constructed at all.
func Active(spec table.ScanSpec) bool {
	return spec.HasLimits()
}

// Tracker holds the cross-batch state the algorithm in spec §4.5 needs:
// the last row seen, whether the current row is being skipped outright,
// and the running cell/row/per-family counters. It is driven entirely
// under the coordinator's lock, so it carries no mutex of its own.
type Tracker struct {
	rowLimit           int
	cellLimit          int
	rowOffset          int
	cellOffset         int
	cellLimitPerFamily int

	lastRow     []byte
	haveLastRow bool
	skipRow     bool

	cellCounter       int
	rowCounter        int
	perRowCellCounter int

	limitsReached bool
}

// New builds a Tracker from the primary request's limit/offset fields.
func New(spec table.ScanSpec) *Tracker {
	return &Tracker{
		rowLimit:           spec.RowLimit,
		cellLimit:          spec.CellLimit,
		rowOffset:          spec.RowOffset,
		cellOffset:         spec.CellOffset,
		cellLimitPerFamily: spec.CellLimitPerFamily,
	}
}

// LimitsReached reports whether a limit has fired; once true, Apply stops
// accepting more cells.
func (t *Tracker) LimitsReached() bool {
	return t.limitsReached
}

// Apply runs the spec §4.5 algorithm over cells, in arrival order, and
// returns the survivors to forward to the caller's sink (without an
// end-of-stream flag — that is the finalizer's exclusive prerogative, spec
// §4.1). It stops, possibly mid-batch, the instant a limit is reached;
// LimitsReached will report true afterward.
func (t *Tracker) Apply(cells []table.Cell) []table.Cell {
	var out []table.Cell

	for _, cell := range cells {
		if t.limitsReached {
			break
		}

		newRow := !t.haveLastRow || indexkey.CompareRowKeys(cell.Key.Row, t.lastRow) != 0
		if newRow {
			t.lastRow = cell.Key.Row
			t.haveLastRow = true
			t.skipRow = false
			if t.cellLimitPerFamily > 0 {
				t.perRowCellCounter = 0
			}
		}

		if newRow && t.rowOffset > 0 {
			t.rowOffset--
			t.skipRow = true
			continue
		}
		if t.skipRow {
			continue
		}

		if t.cellOffset > 0 {
			t.cellOffset--
			continue
		}

		if t.cellLimit > 0 && t.cellCounter >= t.cellLimit {
			t.limitsReached = true
			break
		}
		if t.rowLimit > 0 && newRow && t.rowCounter >= t.rowLimit {
			t.limitsReached = true
			break
		}

		if t.cellLimitPerFamily == 0 || t.perRowCellCounter < t.cellLimitPerFamily {
			out = append(out, cell)
			t.perRowCellCounter++
		}

		t.cellCounter++
		if newRow {
			t.rowCounter++
		}
	}

	return out
}
