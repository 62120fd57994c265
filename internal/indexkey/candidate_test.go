package indexkey

import (
	"bytes"
	"errors"
	"testing"

	secidxerrors "github.com/kartikbazzad/secidx/internal/errors"
	"github.com/kartikbazzad/secidx/pkg/table"
)

func indexCell(key string, ts int64) table.Cell {
	return table.Cell{Key: table.CellKey{Row: []byte(key), Timestamp: ts}}
}

func TestDecodeWellFormedNoFilters(t *testing.T) {
	cm := ColumnMap{1: "email"}
	cand, keep, err := Decode(indexCell("1,user-1\talice@example.com", 42), cm, FilterSpec{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !keep {
		t.Fatal("expected the entry to survive with no filters")
	}
	if !bytes.Equal(cand.Row, []byte("user-1")) {
		t.Errorf("Row = %q, want user-1", cand.Row)
	}
	if cand.Family != "email" {
		t.Errorf("Family = %q, want email", cand.Family)
	}
	if cand.Timestamp != 42 {
		t.Errorf("Timestamp = %d, want 42", cand.Timestamp)
	}
}

func TestDecodeUnknownColumnFamily(t *testing.T) {
	cm := ColumnMap{1: "email"}
	_, keep, err := Decode(indexCell("2,user-1\tsomething", 0), cm, FilterSpec{})
	if keep {
		t.Error("an unknown column family id should not be kept")
	}
	if !errors.Is(err, secidxerrors.ErrUnknownColumnFamily) {
		t.Errorf("err = %v, want ErrUnknownColumnFamily", err)
	}
}

func TestDecodeMalformedKeyPropagatesParseError(t *testing.T) {
	cm := ColumnMap{1: "email"}
	_, keep, err := Decode(indexCell("no-tab-here", 0), cm, FilterSpec{})
	if keep {
		t.Error("a malformed key should not be kept")
	}
	if !errors.Is(err, secidxerrors.ErrMalformedIndexEntry) {
		t.Errorf("err = %v, want ErrMalformedIndexEntry", err)
	}
}

func TestDecodeRowIntervalExcludesWithoutError(t *testing.T) {
	cm := ColumnMap{1: "email"}
	spec := FilterSpec{RowIntervals: []table.RowInterval{
		{Start: []byte("z"), StartInclusive: true},
	}}
	_, keep, err := Decode(indexCell("1,user-1\talice@example.com", 0), cm, spec)
	if err != nil {
		t.Fatalf("a row filtered out by interval is not an error, got %v", err)
	}
	if keep {
		t.Error("row before the interval start should not survive")
	}
}

func TestDecodeQualifierIndexUsesIndexedBytesAsColumn(t *testing.T) {
	cm := ColumnMap{1: "nickname"}
	spec := FilterSpec{
		QualifierIndex: true,
		CellIntervals: []table.CellInterval{
			{StartRow: []byte("user-1"), StartColumn: []byte("m"), StartInclusive: true,
				EndRow: []byte("user-1"), EndColumn: []byte("zz"), EndInclusive: true},
		},
	}
	_, keep, err := Decode(indexCell("1,user-1\tzed", 0), cm, spec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !keep {
		t.Error("qualifier \"zed\" is within [m, zz], should survive")
	}

	_, keep, err = Decode(indexCell("1,user-1\taaa", 0), cm, spec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if keep {
		t.Error("qualifier \"aaa\" is before the column bound, should not survive")
	}
}
