package indexkey

import (
	"testing"

	"github.com/kartikbazzad/secidx/pkg/table"
)

func TestRowIntervalMatchNoIntervalsAlwaysMatches(t *testing.T) {
	if !RowIntervalMatch([]byte("anything"), nil) {
		t.Error("an empty interval slice should match every row")
	}
}

func TestRowIntervalMatchInclusiveBounds(t *testing.T) {
	iv := table.RowInterval{
		Start: []byte("b"), StartInclusive: true,
		End: []byte("d"), EndInclusive: true,
	}
	for row, want := range map[string]bool{
		"a": false, "b": true, "c": true, "d": true, "e": false,
	} {
		if got := RowIntervalMatch([]byte(row), []table.RowInterval{iv}); got != want {
			t.Errorf("RowIntervalMatch(%q) = %v, want %v", row, got, want)
		}
	}
}

func TestRowIntervalMatchExclusiveBounds(t *testing.T) {
	iv := table.RowInterval{
		Start: []byte("b"), StartInclusive: false,
		End: []byte("d"), EndInclusive: false,
	}
	for row, want := range map[string]bool{
		"b": false, "c": true, "d": false,
	} {
		if got := RowIntervalMatch([]byte(row), []table.RowInterval{iv}); got != want {
			t.Errorf("RowIntervalMatch(%q) = %v, want %v", row, got, want)
		}
	}
}

func TestRowIntervalMatchSatisfiesAny(t *testing.T) {
	intervals := []table.RowInterval{
		{Start: []byte("a"), StartInclusive: true, End: []byte("b"), EndInclusive: true},
		{Start: []byte("y"), StartInclusive: true, End: []byte("z"), EndInclusive: true},
	}
	if !RowIntervalMatch([]byte("z"), intervals) {
		t.Error("row matching the second interval should survive")
	}
	if RowIntervalMatch([]byte("m"), intervals) {
		t.Error("row matching neither interval should not survive")
	}
}

func TestCellIntervalMatchNoIntervalsAlwaysMatches(t *testing.T) {
	if !CellIntervalMatch([]byte("row"), []byte("col"), nil) {
		t.Error("an empty interval slice should match every cell")
	}
}

func TestCellIntervalMatchRowStrictlyInsideIgnoresColumn(t *testing.T) {
	iv := table.CellInterval{
		StartRow: []byte("a"), StartColumn: []byte("zzz"), StartInclusive: true,
		EndRow: []byte("c"), EndColumn: []byte("zzz"), EndInclusive: true,
	}
	// "b" is strictly between the row bounds, so any column should match.
	if !CellIntervalMatch([]byte("b"), []byte("aaa"), []table.CellInterval{iv}) {
		t.Error("a row strictly inside the row bounds should match regardless of column")
	}
}

func TestCellIntervalMatchBoundaryRowChecksColumn(t *testing.T) {
	iv := table.CellInterval{
		StartRow: []byte("a"), StartColumn: []byte("m"), StartInclusive: true,
		EndRow: []byte("a"), EndColumn: []byte("q"), EndInclusive: false,
	}
	cases := map[string]bool{"l": false, "m": true, "p": true, "q": false}
	for col, want := range cases {
		if got := CellIntervalMatch([]byte("a"), []byte(col), []table.CellInterval{iv}); got != want {
			t.Errorf("CellIntervalMatch(a, %q) = %v, want %v", col, got, want)
		}
	}
}
