package indexkey

import "github.com/kartikbazzad/secidx/pkg/table"

// ColumnMap maps a small-integer column-family id to its name, populated
// once from the primary table's schema for families that carry an index of
// the relevant kind (spec §3). It is immutable after construction.
type ColumnMap map[uint32]string

// BuildColumnMap selects, from schema, the families that carry a value
// index (qualifierIndex=false) or a qualifier index (qualifierIndex=true),
// per spec §3/§4.3.
func BuildColumnMap(schema table.Schema, qualifierIndex bool) ColumnMap {
	cm := make(ColumnMap)
	for _, cf := range schema.ColumnFamilies() {
		indexed := cf.HasIndex()
		if qualifierIndex {
			indexed = cf.HasQualifierIndex()
		}
		if indexed {
			cm[cf.ID()] = cf.Name()
		}
	}
	return cm
}

// Name resolves a column-family id, reporting whether it is a known
// indexed family of the scan's kind (spec §4.2: "a missing comma or
// unknown id is logged and skipped").
func (cm ColumnMap) Name(id uint32) (string, bool) {
	name, ok := cm[id]
	return name, ok
}
