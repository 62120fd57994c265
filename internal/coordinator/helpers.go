package coordinator

import (
	"sort"
	"strings"

	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// indexTableName derives the index table an indexed family lives in. The
// leading marker byte is the one reserved for index tables (spec §6); the
// rest of the scheme (one index table per primary-table/family pair) is an
// implementation choice left open by the spec's data model.
func indexTableName(primaryName, family string) string {
	var b strings.Builder
	b.WriteByte(indexkey.IndexMarker)
	b.WriteString(primaryName)
	b.WriteByte(':')
	b.WriteString(family)
	return b.String()
}

// uniqueFamilyNames returns the distinct family names in cm, sorted, so
// Start's index-scanner fan-out is deterministic.
func uniqueFamilyNames(cm indexkey.ColumnMap) []string {
	seen := make(map[string]struct{}, len(cm))
	for _, name := range cm {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// verificationTemplate carries forward the fields spec §4.4 names from the
// primary request onto every readahead scan spec Builder produces: columns,
// max-versions, return-deletes, column predicates, and value-regexp.
// Rows/RowLimit/RowOffset/etc. are deliberately left zero — Builder fills
// in Rows per batch, and limits are enforced downstream by the Predicate
// Tracker, never by the verification scan itself.
func verificationTemplate(spec table.ScanSpec) table.ScanSpec {
	return table.ScanSpec{
		Columns:          spec.Columns,
		ColumnPredicates: spec.ColumnPredicates,
		MaxVersions:      spec.MaxVersions,
		ReturnDeletes:    spec.ReturnDeletes,
		ValueRegexp:      spec.ValueRegexp,
		TimeInterval:     spec.TimeInterval,
	}
}

// directFetchSpec builds the single scan spec for the direct-fetch path
// (spec §4.3): the buffered candidate set never crossed TmpCutoff, so
// there is no staging table to verify through, and the coordinator fetches
// every candidate row from the primary table in one shot, still applying
// the user's column predicates.
func directFetchSpec(spec table.ScanSpec, rows [][]byte) table.ScanSpec {
	return table.ScanSpec{
		Rows:             rows,
		Columns:          spec.Columns,
		ColumnPredicates: spec.ColumnPredicates,
		MaxVersions:      spec.MaxVersions,
		ReturnDeletes:    spec.ReturnDeletes,
		KeysOnly:         spec.KeysOnly,
		ValueRegexp:      spec.ValueRegexp,
		TimeInterval:     spec.TimeInterval,
		IgnoreIndex:      true,
	}
}
