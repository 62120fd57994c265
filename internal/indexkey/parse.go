// Package indexkey implements the Index-Row Parser (spec §4.2): decoding
// index-table row keys into (column-family-id, primary-row-key, indexed
// bytes) and filtering them against the user's row/cell intervals.
package indexkey

import (
	"fmt"

	secidxerrors "github.com/kartikbazzad/secidx/internal/errors"
)

// maxCFIDDigits bounds how far the parser will scan for the comma before
// giving up on a malformed entry (spec §4.2: "bounded to four characters
// (ids are ≤ 255)").
const maxCFIDDigits = 4

// IndexMarker is the reserved first byte of an index table's leaf name
// (spec §6).
const IndexMarker = '^'

// IsIndexTableName reports whether name (the table's leaf name, no
// namespace path) begins with the reserved index marker.
func IsIndexTableName(name string) bool {
	return len(name) > 0 && name[0] == IndexMarker
}

// Parsed is one successfully decoded index-table row key.
type Parsed struct {
	ColumnFamilyID uint32
	PrimaryRow     []byte
	IndexedBytes   []byte // the indexed value, or the qualifier for a qualifier index
}

// Parse decodes one index-table row key per spec §4.2/§6:
// "<decimal cf-id>,<primary-row-key>\t<indexed-bytes>".
//
// It scans backwards from the end of key for the first tab byte; absence
// of a tab, or a missing/oversized/unparsable leading cf-id, is reported as
// a malformed entry. The caller is expected to log and skip on error,
// never propagate it.
func Parse(key []byte) (Parsed, error) {
	tabIdx := -1
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '\t' {
			tabIdx = i
			break
		}
	}
	if tabIdx < 0 {
		return Parsed{}, fmt.Errorf("%w: no tab separator", secidxerrors.ErrMalformedIndexEntry)
	}

	commaIdx := -1
	limit := tabIdx
	if limit > maxCFIDDigits {
		limit = maxCFIDDigits
	}
	for i := 0; i < limit; i++ {
		if key[i] == ',' {
			commaIdx = i
			break
		}
	}
	if commaIdx < 0 {
		return Parsed{}, fmt.Errorf("%w: no comma within id bound", secidxerrors.ErrMalformedIndexEntry)
	}

	var cfID uint32
	for i := 0; i < commaIdx; i++ {
		c := key[i]
		if c < '0' || c > '9' {
			return Parsed{}, fmt.Errorf("%w: non-decimal cf-id", secidxerrors.ErrMalformedIndexEntry)
		}
		cfID = cfID*10 + uint32(c-'0')
	}
	if commaIdx == 0 {
		return Parsed{}, fmt.Errorf("%w: empty cf-id", secidxerrors.ErrMalformedIndexEntry)
	}
	if cfID > 255 {
		return Parsed{}, fmt.Errorf("%w: cf-id out of range", secidxerrors.ErrMalformedIndexEntry)
	}

	primaryRow := key[commaIdx+1 : tabIdx]
	indexedBytes := key[tabIdx+1:]

	return Parsed{
		ColumnFamilyID: cfID,
		PrimaryRow:     primaryRow,
		IndexedBytes:   indexedBytes,
	}, nil
}
