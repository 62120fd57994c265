package indexkey

import (
	"testing"

	"github.com/kartikbazzad/secidx/pkg/table"
)

type fakeCF struct {
	id                uint32
	name              string
	hasIndex          bool
	hasQualifierIndex bool
}

func (f fakeCF) ID() uint32              { return f.id }
func (f fakeCF) Name() string            { return f.name }
func (f fakeCF) HasIndex() bool          { return f.hasIndex }
func (f fakeCF) HasQualifierIndex() bool { return f.hasQualifierIndex }

type fakeSchema struct {
	cfs []table.ColumnFamily
}

func (s fakeSchema) ColumnFamilies() []table.ColumnFamily { return s.cfs }

func demoSchema() table.Schema {
	return fakeSchema{cfs: []table.ColumnFamily{
		fakeCF{id: 1, name: "email", hasIndex: true},
		fakeCF{id: 2, name: "status", hasIndex: true},
		fakeCF{id: 3, name: "bio"},
		fakeCF{id: 4, name: "nickname", hasQualifierIndex: true},
	}}
}

func TestBuildColumnMapValueIndex(t *testing.T) {
	cm := BuildColumnMap(demoSchema(), false)
	if len(cm) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(cm), cm)
	}
	if name, ok := cm.Name(1); !ok || name != "email" {
		t.Errorf("Name(1) = %q, %v, want email, true", name, ok)
	}
	if name, ok := cm.Name(2); !ok || name != "status" {
		t.Errorf("Name(2) = %q, %v, want status, true", name, ok)
	}
	if _, ok := cm.Name(3); ok {
		t.Error("bio has no value index, should not be in the map")
	}
	if _, ok := cm.Name(4); ok {
		t.Error("nickname only has a qualifier index, should not be in the value-index map")
	}
}

func TestBuildColumnMapQualifierIndex(t *testing.T) {
	cm := BuildColumnMap(demoSchema(), true)
	if len(cm) != 1 {
		t.Fatalf("got %d entries, want 1: %v", len(cm), cm)
	}
	if name, ok := cm.Name(4); !ok || name != "nickname" {
		t.Errorf("Name(4) = %q, %v, want nickname, true", name, ok)
	}
}

func TestColumnMapNameUnknownID(t *testing.T) {
	cm := BuildColumnMap(demoSchema(), false)
	if _, ok := cm.Name(99); ok {
		t.Error("Name(99) should report false for an id the schema never defined")
	}
}
