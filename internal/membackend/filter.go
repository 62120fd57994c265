package membackend

import (
	"bytes"
	"regexp"

	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// applySpec narrows a table's full cell set down to what spec asks for. It
// reuses internal/indexkey's row/cell interval matchers directly rather
// than re-implementing interval comparison a second time — the same
// ordering rule applies whether the row key came off an index table or a
// primary table.
func applySpec(cells []table.Cell, spec table.ScanSpec) []table.Cell {
	var rowSet map[string]struct{}
	if len(spec.Rows) > 0 {
		rowSet = make(map[string]struct{}, len(spec.Rows))
		for _, r := range spec.Rows {
			rowSet[string(r)] = struct{}{}
		}
	}

	var columnSet map[string]struct{}
	if len(spec.Columns) > 0 {
		columnSet = make(map[string]struct{}, len(spec.Columns))
		for _, c := range spec.Columns {
			columnSet[c] = struct{}{}
		}
	}

	var rowRe, valueRe *regexp.Regexp
	if spec.RowRegexp != "" {
		rowRe = regexp.MustCompile(spec.RowRegexp)
	}
	if spec.ValueRegexp != "" {
		valueRe = regexp.MustCompile(spec.ValueRegexp)
	}

	filtered := make([]table.Cell, 0, len(cells))
	for _, cell := range cells {
		if !matchesFilters(cell.Key, spec, rowSet, columnSet, rowRe) {
			continue
		}
		if cell.Flag == table.FlagDelete && !spec.ReturnDeletes {
			continue
		}
		if spec.TimeInterval != nil {
			if cell.Key.Timestamp < spec.TimeInterval.Start || cell.Key.Timestamp >= spec.TimeInterval.End {
				continue
			}
		}
		if !matchesPredicates(cell, spec.ColumnPredicates) {
			continue
		}
		if valueRe != nil && !valueRe.Match(cell.Value) {
			continue
		}
		filtered = append(filtered, cell)
	}

	filtered = capVersions(filtered, spec.MaxVersions)

	if spec.KeysOnly {
		for i := range filtered {
			filtered[i].Value = nil
		}
	}
	return filtered
}

func matchesFilters(k table.CellKey, spec table.ScanSpec, rowSet, columnSet map[string]struct{}, rowRe *regexp.Regexp) bool {
	if rowSet != nil {
		if _, ok := rowSet[string(k.Row)]; !ok {
			return false
		}
	}
	if columnSet != nil {
		if _, ok := columnSet[k.Family]; !ok {
			return false
		}
	}
	if rowRe != nil && !rowRe.Match(k.Row) {
		return false
	}
	if !indexkey.RowIntervalMatch(k.Row, spec.RowIntervals) {
		return false
	}
	if !indexkey.CellIntervalMatch(k.Row, k.Qualifier, spec.CellIntervals) {
		return false
	}
	return true
}

// matchesPredicates requires every predicate that targets cell's
// (family, qualifier) to evaluate true. Predicates naming a different
// family never constrain this cell at all.
func matchesPredicates(cell table.Cell, predicates []table.ColumnPredicate) bool {
	for _, p := range predicates {
		if p.Family != cell.Key.Family {
			continue
		}
		if len(p.Qualifier) > 0 && !bytes.Equal(p.Qualifier, cell.Key.Qualifier) {
			continue
		}
		if !predicateMatches(p, cell.Value) {
			return false
		}
	}
	return true
}

func predicateMatches(p table.ColumnPredicate, value []byte) bool {
	switch p.Op {
	case table.PredicateEQ:
		return bytes.Equal(value, p.Value)
	case table.PredicatePrefix:
		return bytes.HasPrefix(value, p.Value)
	case table.PredicateRegexp:
		return regexp.MustCompile(string(p.Value)).Match(value)
	default:
		return true
	}
}

// capVersions keeps, per (row, family, qualifier) group, only the limit
// most recent timestamps. cells must already be sorted by
// (row, family, qualifier, ts) ascending, which queryAll guarantees.
func capVersions(cells []table.Cell, limit int) []table.Cell {
	if limit <= 0 {
		return cells
	}

	out := make([]table.Cell, 0, len(cells))
	groupStart := 0
	flush := func(end int) {
		start := end - limit
		if start < groupStart {
			start = groupStart
		}
		out = append(out, cells[start:end]...)
	}

	for i := 1; i <= len(cells); i++ {
		if i == len(cells) || !sameGroup(cells[i-1].Key, cells[i].Key) {
			flush(i)
			groupStart = i
		}
	}
	return out
}

func sameGroup(a, b table.CellKey) bool {
	return bytes.Equal(a.Row, b.Row) && a.Family == b.Family && bytes.Equal(a.Qualifier, b.Qualifier)
}
