package readahead

import (
	"testing"

	"github.com/kartikbazzad/secidx/internal/config"
	"github.com/kartikbazzad/secidx/pkg/table"
)

func TestBuilderAggregatedDedupesWithinAndAcrossBatches(t *testing.T) {
	b := NewBuilder(config.PolicyAggregated, table.ScanSpec{MaxVersions: 3})

	specs := b.Build([][]byte{[]byte("c"), []byte("a"), []byte("a"), []byte("b")})
	if len(specs) != 1 {
		t.Fatalf("got %d specs, want 1", len(specs))
	}
	if specs[0].MaxVersions != 3 {
		t.Errorf("template field MaxVersions not carried through: got %d", specs[0].MaxVersions)
	}
	wantRows := []string{"a", "b", "c"}
	if len(specs[0].Rows) != len(wantRows) {
		t.Fatalf("got %d rows, want %d", len(specs[0].Rows), len(wantRows))
	}
	for i, want := range wantRows {
		if string(specs[0].Rows[i]) != want {
			t.Errorf("Rows[%d] = %s, want %s", i, specs[0].Rows[i], want)
		}
	}

	// A second batch repeating the last row of the first batch must not
	// resurface it.
	specs = b.Build([][]byte{[]byte("c"), []byte("d")})
	if len(specs) != 1 || len(specs[0].Rows) != 1 || string(specs[0].Rows[0]) != "d" {
		t.Fatalf("got %+v, want a single spec for row d", specs)
	}
}

func TestBuilderPerRowPolicy(t *testing.T) {
	b := NewBuilder(config.PolicyPerRow, table.ScanSpec{})
	specs := b.Build([][]byte{[]byte("b"), []byte("a")})
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if string(specs[0].Rows[0]) != "a" || string(specs[1].Rows[0]) != "b" {
		t.Fatalf("got %+v, want a then b", specs)
	}
}

func TestBuilderEmptyBatch(t *testing.T) {
	b := NewBuilder(config.PolicyAggregated, table.ScanSpec{})
	if specs := b.Build(nil); specs != nil {
		t.Fatalf("Build(nil) = %v, want nil", specs)
	}
}

func TestBuilderAllDuplicates(t *testing.T) {
	b := NewBuilder(config.PolicyAggregated, table.ScanSpec{})
	b.Build([][]byte{[]byte("a")})
	specs := b.Build([][]byte{[]byte("a"), []byte("a")})
	if specs != nil {
		t.Fatalf("Build with only repeats of the last row = %v, want nil", specs)
	}
}
