package indexkey

import "bytes"

// CompareRowKeys orders two row keys lexicographically over their shorter
// common prefix, with the shorter key ordering first on a tied prefix
// (spec §4.2's candidate-key ordering) — exactly what bytes.Compare already
// does, named here so the in-memory candidate set, the row-interval filter,
// and verification's last_row dedup (spec §4.4) all share one primitive
// (SPEC_FULL.md's supplemented feature #3).
func CompareRowKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}
