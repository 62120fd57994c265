package readahead

import (
	"sort"

	"github.com/kartikbazzad/secidx/internal/config"
	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// Builder turns a batch of candidates delivered by the staging scanner into
// one or more primary-table verification scan specs (spec §4.4).
//
// Deduplication is by strict inequality against a running last_row state
// that persists across batches — the same primitive the Candidate Set uses
// for ordering (indexkey.CompareRowKeys), per SPEC_FULL.md's supplemented
// feature #3. The staging scan itself delivers rows in key order, so
// Builder only needs to detect repeats at batch boundaries; it still sorts
// defensively, since nothing about the table.Scanner contract promises
// order within a single batch.
type Builder struct {
	policy   config.VerificationPolicy
	template table.ScanSpec
	lastRow  []byte
	haveLast bool
}

// NewBuilder builds a Builder. template supplies columns, max-versions,
// return-deletes, column predicates, and value-regexp from the primary
// request (spec §4.4); its Rows/RowLimit/etc. are ignored.
func NewBuilder(policy config.VerificationPolicy, template table.ScanSpec) *Builder {
	return &Builder{policy: policy, template: template}
}

// Build consumes one incoming batch of candidate rows and returns the scan
// specs to enqueue, in order.
func (b *Builder) Build(rows [][]byte) []table.ScanSpec {
	if len(rows) == 0 {
		return nil
	}

	sorted := make([][]byte, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return indexkey.CompareRowKeys(sorted[i], sorted[j]) < 0
	})

	var unique [][]byte
	for _, row := range sorted {
		if b.haveLast && indexkey.CompareRowKeys(row, b.lastRow) == 0 {
			continue
		}
		if len(unique) > 0 && indexkey.CompareRowKeys(row, unique[len(unique)-1]) == 0 {
			continue
		}
		unique = append(unique, row)
	}
	if len(unique) > 0 {
		b.lastRow = unique[len(unique)-1]
		b.haveLast = true
	}
	if len(unique) == 0 {
		return nil
	}

	switch b.policy {
	case config.PolicyPerRow:
		specs := make([]table.ScanSpec, len(unique))
		for i, row := range unique {
			spec := b.template
			spec.Rows = [][]byte{row}
			specs[i] = spec
		}
		return specs
	default: // PolicyAggregated
		spec := b.template
		spec.Rows = unique
		return []table.ScanSpec{spec}
	}
}
