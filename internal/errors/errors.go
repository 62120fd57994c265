// Package errors defines the coordinator's error taxonomy (spec §7):
// malformed index entries, child scan errors, staging mutator update
// errors, and staging table create/drop failures. None of these drive
// retries — the coordinator surfaces collaborator errors verbatim and
// recovers locally only from malformed parses.
package errors

import "errors"

var (
	// ErrMalformedIndexEntry is logged and the offending entry is skipped;
	// never returned to a caller.
	ErrMalformedIndexEntry = errors.New("malformed index entry")

	// ErrUnknownColumnFamily means the index row key's cf-id does not name
	// an indexed family of the kind (value vs qualifier) being scanned.
	ErrUnknownColumnFamily = errors.New("unknown or non-indexed column family id")

	// ErrLimitsReached names the condition in which row/cell limits are
	// satisfied (spec §4.5, §5). The Predicate Tracker and the coordinator
	// signal it with a boolean flag; no function in this module returns it.
	ErrLimitsReached = errors.New("scan limits reached")

	// ErrCoordinatorClosed names a coordinator that has already emitted its
	// terminal batch. No function in this module returns it.
	ErrCoordinatorClosed = errors.New("coordinator already terminated")

	// ErrStagingTableExists names a staging-table name collision. The
	// Classifier maps it to CategoryStaging; internal/staging and
	// internal/membackend report a collision with their own wrapped errors
	// and do not return this sentinel.
	ErrStagingTableExists = errors.New("staging table already exists")

	// ErrQueueClosed names a readahead queue that has been cleared for
	// cancellation. The queue reports that case by Enqueue returning false;
	// no function in this module returns this error.
	ErrQueueClosed = errors.New("readahead queue closed")
)

// Category labels an error for metrics and logging, per spec §7's taxonomy.
type Category int

const (
	CategoryMalformed Category = iota
	CategoryScan
	CategoryUpdate
	CategoryStaging
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryMalformed:
		return "malformed_index_entry"
	case CategoryScan:
		return "scan_error"
	case CategoryUpdate:
		return "update_error"
	case CategoryStaging:
		return "staging_error"
	default:
		return "other"
	}
}

// Classifier assigns a Category to an error for observability purposes only.
// It must never be used to decide whether to retry — spec §7 forbids
// retries from the coordinator entirely.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryOther
	case errors.Is(err, ErrMalformedIndexEntry), errors.Is(err, ErrUnknownColumnFamily):
		return CategoryMalformed
	case errors.Is(err, ErrStagingTableExists):
		return CategoryStaging
	default:
		return CategoryOther
	}
}
