// Package table defines the collaborator interfaces the coordinator
// consumes (spec §6): table handles, namespaces, schema introspection, and
// the asynchronous scanner/mutator/result-sink contract. This package is a
// contract only — the RPC client, wire codec, and server-side indexing that
// satisfy it in production are explicitly out of scope (spec §1). Tests and
// the demo CLI use internal/membackend, a SQLite-backed implementation of
// these same interfaces.
package table

import (
	"context"
	"time"
)

// CellFlag distinguishes a put from a delete, per the return-deletes flag
// in ScanSpec.
type CellFlag byte

const (
	FlagPut CellFlag = iota
	FlagDelete
)

// CellKey identifies a cell: a row within a table, a column family, an
// optional qualifier, and a timestamp (microseconds, server-assigned or
// client-supplied).
type CellKey struct {
	Row       []byte
	Family    string
	Qualifier []byte
	Timestamp int64
}

// Cell is a single wire-format cell as delivered by a Scanner.
type Cell struct {
	Key   CellKey
	Value []byte
	Flag  CellFlag
}

// RowInterval is a row-key range with independently inclusive/exclusive
// bounds; a nil Start or End means unbounded on that side.
type RowInterval struct {
	Start          []byte
	StartInclusive bool
	End            []byte
	EndInclusive   bool
}

// CellInterval ranges over (row, column) pairs using row ordering first,
// then column-name ordering, per spec §4.2.
type CellInterval struct {
	StartRow       []byte
	StartColumn    []byte
	StartInclusive bool
	EndRow         []byte
	EndColumn      []byte
	EndInclusive   bool
}

// TimeInterval bounds cell timestamps, inclusive on Start, exclusive on End.
type TimeInterval struct {
	Start int64
	End   int64
}

// ColumnPredicateOp enumerates the column-value comparisons a scan spec can
// carry; the coordinator forwards these verbatim to primary-table scans, it
// never evaluates them itself.
type ColumnPredicateOp int

const (
	PredicateEQ ColumnPredicateOp = iota
	PredicatePrefix
	PredicateRegexp
)

type ColumnPredicate struct {
	Family    string
	Qualifier []byte
	Op        ColumnPredicateOp
	Value     []byte
}

// ScanSpec is the scan parameterization passed to CreateScannerAsync. Zero
// values for RowLimit/CellLimit/RowOffset/CellOffset/CellLimitPerFamily mean
// "unbounded" (spec §4.5).
type ScanSpec struct {
	Columns           []string
	ColumnPredicates  []ColumnPredicate
	RowIntervals      []RowInterval
	CellIntervals     []CellInterval
	TimeInterval      *TimeInterval
	MaxVersions       int
	ReturnDeletes     bool
	KeysOnly          bool
	RowRegexp         string
	ValueRegexp       string
	RowLimit          int
	CellLimit         int
	RowOffset         int
	CellOffset        int
	CellLimitPerFamily int

	// Rows, when non-empty, restricts the scan to exactly these row keys
	// (the direct-fetch path, spec §4.3).
	Rows [][]byte

	// IgnoreIndex marks a scan the coordinator opened itself, so a real
	// server implementation does not recurse back into index scanning
	// (spec §6).
	IgnoreIndex bool
}

// HasLimits reports whether any user-visible limit/offset is active,
// activating the Predicate Tracker per spec §4.5.
func (s ScanSpec) HasLimits() bool {
	return s.RowLimit != 0 || s.CellLimit != 0 || s.RowOffset != 0 ||
		s.CellOffset != 0 || s.CellLimitPerFamily != 0
}

// ColumnFamily exposes the schema attributes the coordinator needs: its
// small-integer id, name, and whether it carries a value or qualifier index
// (spec §3's ColumnMap is built from this).
type ColumnFamily interface {
	ID() uint32
	Name() string
	HasIndex() bool
	HasQualifierIndex() bool
}

// Schema exposes a table's column families.
type Schema interface {
	ColumnFamilies() []ColumnFamily
}

// Scanner identifies an in-flight asynchronous scan; the coordinator only
// ever needs its identity for bookkeeping and logging.
type Scanner interface {
	ID() string
}

// UpdateFailure reports a single mutation that a Mutator could not apply.
type UpdateFailure struct {
	Key  CellKey
	Code int
	Msg  string
}

// Mutator is an asynchronous batched writer, used to populate the staging
// table (spec §4.3).
type Mutator interface {
	Set(ctx context.Context, key CellKey, value []byte) error
	Close(ctx context.Context) error
}

// ResultSink is the asynchronous callback interface every child scanner and
// mutator delivers to (spec §4.1, §6). The coordinator both implements this
// (as the sink its children call back into) and consumes one instance of it
// (the user's sink).
type ResultSink interface {
	RegisterScanner(s Scanner)
	OnScanOK(s Scanner, cells []Cell, eos bool)
	OnScanError(s Scanner, code int, msg string, eos bool)
	OnUpdateOK(m Mutator)
	OnUpdateError(m Mutator, code int, failures []UpdateFailure)
	IncrementOutstanding()
	DecrementOutstanding()
}

// TableHandle is a bound reference to a single table, primary or index.
type TableHandle interface {
	Name() string
	Schema() Schema
	CreateScannerAsync(ctx context.Context, spec ScanSpec, sink ResultSink) (Scanner, error)
	CreateMutatorAsync(ctx context.Context, sink ResultSink) (Mutator, error)
}

// Namespace administers tables within a reserved namespace (spec §6's
// "/tmp"-style staging namespace).
type Namespace interface {
	CreateTable(ctx context.Context, name string, schemaXML string) error
	OpenTable(ctx context.Context, name string) (TableHandle, error)
	DropTable(ctx context.Context, name string, ifExists bool) error
}

// DefaultScanTimeout is used when a ScanRequest does not specify one.
const DefaultScanTimeout = 30 * time.Second

// ScanRequest is everything the coordinator needs to drive a single
// secondary-index scan (spec §3). IndexNamespace and StagingNamespace are
// usually the same namespace the primary table lives in; they are kept
// distinct because a deployment may reserve a separate namespace for
// ephemeral staging tables (spec §6).
type ScanRequest struct {
	Primary          TableHandle
	IndexNamespace   Namespace
	StagingNamespace Namespace
	Spec             ScanSpec
	Timeout          time.Duration
	QualifierIndex   bool
}
