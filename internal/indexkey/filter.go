package indexkey

import "github.com/kartikbazzad/secidx/pkg/table"

// RowIntervalMatch reports whether row satisfies at least one of intervals
// (spec §4.2: "survives if it satisfies any interval"). An empty intervals
// slice means "no row-interval filter" and always matches.
func RowIntervalMatch(row []byte, intervals []table.RowInterval) bool {
	if len(intervals) == 0 {
		return true
	}
	for _, iv := range intervals {
		if rowInBounds(row, iv) {
			return true
		}
	}
	return false
}

func rowInBounds(row []byte, iv table.RowInterval) bool {
	if iv.Start != nil {
		cmp := CompareRowKeys(row, iv.Start)
		if cmp < 0 {
			return false
		}
		if cmp == 0 && !iv.StartInclusive {
			return false
		}
	}
	if iv.End != nil {
		cmp := CompareRowKeys(row, iv.End)
		if cmp > 0 {
			return false
		}
		if cmp == 0 && !iv.EndInclusive {
			return false
		}
	}
	return true
}

// CellIntervalMatch reports whether (row, column) satisfies at least one of
// intervals, using row ordering first and then column-name ordering within
// a boundary row (spec §4.2): a row strictly inside the row bounds matches
// without inspecting columns at all.
func CellIntervalMatch(row, column []byte, intervals []table.CellInterval) bool {
	if len(intervals) == 0 {
		return true
	}
	for _, iv := range intervals {
		if cellInBounds(row, column, iv) {
			return true
		}
	}
	return false
}

func cellInBounds(row, column []byte, iv table.CellInterval) bool {
	if iv.StartRow != nil {
		cmp := CompareRowKeys(row, iv.StartRow)
		if cmp < 0 {
			return false
		}
		if cmp == 0 {
			ccmp := CompareRowKeys(column, iv.StartColumn)
			if ccmp < 0 || (ccmp == 0 && !iv.StartInclusive) {
				return false
			}
		}
	}
	if iv.EndRow != nil {
		cmp := CompareRowKeys(row, iv.EndRow)
		if cmp > 0 {
			return false
		}
		if cmp == 0 {
			ccmp := CompareRowKeys(column, iv.EndColumn)
			if ccmp > 0 || (ccmp == 0 && !iv.EndInclusive) {
				return false
			}
		}
	}
	return true
}
