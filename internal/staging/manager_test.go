package staging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/internal/logger"
	"github.com/kartikbazzad/secidx/pkg/table"
)

type fakeMutator struct {
	sets   []table.CellKey
	closed bool
	setErr error
}

func (m *fakeMutator) Set(ctx context.Context, key table.CellKey, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets = append(m.sets, key)
	return nil
}

func (m *fakeMutator) Close(ctx context.Context) error {
	m.closed = true
	return nil
}

type fakeTableHandle struct {
	name    string
	schema  table.Schema
	mutator *fakeMutator
	scanner table.Scanner
}

func (h *fakeTableHandle) Name() string        { return h.name }
func (h *fakeTableHandle) Schema() table.Schema { return h.schema }

func (h *fakeTableHandle) CreateScannerAsync(ctx context.Context, spec table.ScanSpec, sink table.ResultSink) (table.Scanner, error) {
	return h.scanner, nil
}

func (h *fakeTableHandle) CreateMutatorAsync(ctx context.Context, sink table.ResultSink) (table.Mutator, error) {
	return h.mutator, nil
}

type fakeNamespace struct {
	tables      map[string]table.Schema
	createErr   error
	openErr     error
	droppedName string
}

func (n *fakeNamespace) CreateTable(ctx context.Context, name string, schemaXML string) error {
	if n.createErr != nil {
		return n.createErr
	}
	if n.tables == nil {
		n.tables = map[string]table.Schema{}
	}
	n.tables[name] = fakeSchema{}
	return nil
}

func (n *fakeNamespace) OpenTable(ctx context.Context, name string) (table.TableHandle, error) {
	if n.openErr != nil {
		return nil, n.openErr
	}
	return &fakeTableHandle{name: name, mutator: &fakeMutator{}}, nil
}

func (n *fakeNamespace) DropTable(ctx context.Context, name string, ifExists bool) error {
	n.droppedName = name
	delete(n.tables, name)
	return nil
}

type discardSink struct{}

func (discardSink) RegisterScanner(s table.Scanner)                              {}
func (discardSink) OnScanOK(s table.Scanner, cells []table.Cell, eos bool)        {}
func (discardSink) OnScanError(s table.Scanner, code int, msg string, eos bool)   {}
func (discardSink) OnUpdateOK(m table.Mutator)                                    {}
func (discardSink) OnUpdateError(m table.Mutator, code int, failures []table.UpdateFailure) {}
func (discardSink) IncrementOutstanding()                                        {}
func (discardSink) DecrementOutstanding()                                        {}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "[test]")
}

func TestPromoteCreatesTableAndFlushesBuffered(t *testing.T) {
	ns := &fakeNamespace{}
	mgr := NewManager(ns, testSchema(), false, discardSink{}, testLogger())

	buffered := map[string]indexkey.Candidate{
		"a": {Row: []byte("a"), Family: "email", Timestamp: 1},
		"b": {Row: []byte("b"), Family: "status", Timestamp: 2},
	}
	stager, err := mgr.Promote(context.Background(), buffered)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if stager == nil {
		t.Fatal("Promote returned a nil stager")
	}
	if !mgr.Created() {
		t.Fatal("Created() should be true after Promote")
	}
	if mgr.TableName() == "" {
		t.Fatal("TableName() should be non-empty after Promote")
	}

	handle := mgr.handle.(*fakeTableHandle)
	if len(handle.mutator.sets) != 2 {
		t.Fatalf("mutator received %d sets, want 2", len(handle.mutator.sets))
	}
}

func TestPromoteCreateTableError(t *testing.T) {
	wantErr := errors.New("create failed")
	ns := &fakeNamespace{createErr: wantErr}
	mgr := NewManager(ns, testSchema(), false, discardSink{}, testLogger())

	_, err := mgr.Promote(context.Background(), nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Promote: err = %v, want wrapping %v", err, wantErr)
	}
	if mgr.Created() {
		t.Fatal("Created() should remain false on a failed create")
	}
}

func TestInsertWritesThroughMutator(t *testing.T) {
	ns := &fakeNamespace{}
	mgr := NewManager(ns, testSchema(), false, discardSink{}, testLogger())
	if _, err := mgr.Promote(context.Background(), nil); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	cand := indexkey.Candidate{Row: []byte("r"), Family: "email", Timestamp: 5}
	if err := mgr.Insert(context.Background(), cand); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	handle := mgr.handle.(*fakeTableHandle)
	if len(handle.mutator.sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(handle.mutator.sets))
	}
	got := handle.mutator.sets[0]
	if !bytes.Equal(got.Row, cand.Row) || got.Family != cand.Family || got.Timestamp != cand.Timestamp {
		t.Fatalf("got %+v, want row/family/ts from %+v", got, cand)
	}
}

func TestCloseClosesMutatorAndIsIdempotent(t *testing.T) {
	ns := &fakeNamespace{}
	mgr := NewManager(ns, testSchema(), false, discardSink{}, testLogger())
	if _, err := mgr.Promote(context.Background(), nil); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	handle := mgr.handle.(*fakeTableHandle)

	if err := mgr.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !handle.mutator.closed {
		t.Fatal("expected mutator to be closed")
	}

	// A second close, with the mutator reference already cleared, is a
	// no-op rather than a nil-pointer dereference.
	if err := mgr.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOpenScannerUsesIndexedFamiliesAndIgnoresIndex(t *testing.T) {
	ns := &fakeNamespace{}
	mgr := NewManager(ns, testSchema(), false, discardSink{}, testLogger())
	if _, err := mgr.Promote(context.Background(), nil); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	primary := table.ScanSpec{MaxVersions: 3, ReturnDeletes: true}
	if _, err := mgr.OpenScanner(context.Background(), primary, discardSink{}); err != nil {
		t.Fatalf("OpenScanner: %v", err)
	}
}

func TestDropBeforeCreateIsNoop(t *testing.T) {
	ns := &fakeNamespace{}
	mgr := NewManager(ns, testSchema(), false, discardSink{}, testLogger())
	if err := mgr.Drop(context.Background()); err != nil {
		t.Fatalf("Drop before Promote: %v", err)
	}
	if ns.droppedName != "" {
		t.Fatalf("DropTable should not have been called, got name %q", ns.droppedName)
	}
}

func TestDropAfterPromote(t *testing.T) {
	ns := &fakeNamespace{}
	mgr := NewManager(ns, testSchema(), false, discardSink{}, testLogger())
	if _, err := mgr.Promote(context.Background(), nil); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if err := mgr.Drop(context.Background()); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if ns.droppedName != mgr.TableName() {
		t.Fatalf("dropped %q, want %q", ns.droppedName, mgr.TableName())
	}
}
