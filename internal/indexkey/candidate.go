package indexkey

import (
	"fmt"

	secidxerrors "github.com/kartikbazzad/secidx/internal/errors"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// Candidate is a primary row key plus the column-family name and timestamp
// that produced it (spec §3). Uniqueness downstream, in the Candidate Set,
// is by row key alone.
type Candidate struct {
	Row       []byte
	Family    string
	Timestamp int64
}

// FilterSpec carries the user-visible row/cell interval predicates an index
// entry must satisfy to become a candidate, plus which index kind is being
// scanned (spec §3's "value index" vs "qualifier index" flag).
type FilterSpec struct {
	RowIntervals   []table.RowInterval
	CellIntervals  []table.CellInterval
	QualifierIndex bool
}

// Decode turns one index-table cell into a Candidate. It returns keep=false
// with a nil error when the entry is well-formed but filtered out by the
// user's row/cell intervals — that is not an error, just a non-survivor.
// A non-nil error means the entry is malformed or names an id outside
// ColumnMap; the caller must log it at warn level and continue (spec §4.2,
// §7) rather than propagate it.
func Decode(cell table.Cell, cm ColumnMap, spec FilterSpec) (cand Candidate, keep bool, err error) {
	parsed, err := Parse(cell.Key.Row)
	if err != nil {
		return Candidate{}, false, err
	}

	family, ok := cm.Name(parsed.ColumnFamilyID)
	if !ok {
		return Candidate{}, false, fmt.Errorf("%w: cf-id %d", secidxerrors.ErrUnknownColumnFamily, parsed.ColumnFamilyID)
	}

	if !RowIntervalMatch(parsed.PrimaryRow, spec.RowIntervals) {
		return Candidate{}, false, nil
	}

	// The cell-interval check bounds (row, column) pairs. For a qualifier
	// index the indexed bytes *are* the qualifier, so they serve directly
	// as the column bound; for a value index there is no qualifier to
	// compare, so the family name stands in for the column component —
	// a row strictly inside the row bounds still matches either way
	// without inspecting it (spec §4.2).
	column := parsed.IndexedBytes
	if !spec.QualifierIndex {
		column = []byte(family)
	}
	if !CellIntervalMatch(parsed.PrimaryRow, column, spec.CellIntervals) {
		return Candidate{}, false, nil
	}

	return Candidate{
		Row:       parsed.PrimaryRow,
		Family:    family,
		Timestamp: cell.Key.Timestamp,
	}, true, nil
}
