package staging

import (
	"sort"
	"strings"

	"github.com/kartikbazzad/secidx/pkg/table"
)

// BuildSchemaXML assembles the staging table's schema (spec §6): one access
// group "default" containing one column family per indexed family of the
// primary table, selected by HasIndex (value-index scan) or
// HasQualifierIndex (qualifier-index scan), bit-exact to the fragment in
// spec §6.
func BuildSchemaXML(schema table.Schema, qualifierIndex bool) string {
	var names []string
	for _, cf := range schema.ColumnFamilies() {
		indexed := cf.HasIndex()
		if qualifierIndex {
			indexed = cf.HasQualifierIndex()
		}
		if indexed {
			names = append(names, cf.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(`<Schema><AccessGroup name="default">`)
	for _, name := range names {
		b.WriteString(`<ColumnFamily><Name>`)
		b.WriteString(name)
		b.WriteString(`</Name><Counter>false</Counter><MaxVersions>1</MaxVersions><deleted>false</deleted></ColumnFamily>`)
	}
	b.WriteString(`</AccessGroup></Schema>`)
	return b.String()
}

// IndexedFamilyNames returns the same family-name set BuildSchemaXML uses,
// for callers (internal/staging.Manager's OpenScanner) that need the column
// list rather than the schema XML.
func IndexedFamilyNames(schema table.Schema, qualifierIndex bool) []string {
	var names []string
	for _, cf := range schema.ColumnFamilies() {
		indexed := cf.HasIndex()
		if qualifierIndex {
			indexed = cf.HasQualifierIndex()
		}
		if indexed {
			names = append(names, cf.Name())
		}
	}
	sort.Strings(names)
	return names
}
