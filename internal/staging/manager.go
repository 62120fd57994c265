// Package staging implements the Staging Table Manager (spec §4.3, §6):
// an ephemeral table, created lazily under a reserved namespace, that
// mirrors the primary table's indexed column families. It is populated via
// an asynchronous mutator and scanned once index scanning ends.
package staging

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/internal/logger"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// Manager owns one ephemeral staging table for the lifetime of a single
// coordinator. Created lazily: NewManager does no RPC, Promote does.
type Manager struct {
	ns             table.Namespace
	schema         table.Schema
	qualifierIndex bool
	sink           table.ResultSink
	log            *logger.Logger

	tableName string
	handle    table.TableHandle
	mutator   table.Mutator
	created   bool
}

// NewManager constructs a Manager bound to namespace ns, ready to promote
// the Candidate Set on demand. sink receives the mutator's async callbacks
// (the coordinator itself, per spec §4.1).
func NewManager(ns table.Namespace, schema table.Schema, qualifierIndex bool, sink table.ResultSink, log *logger.Logger) *Manager {
	return &Manager{
		ns:             ns,
		schema:         schema,
		qualifierIndex: qualifierIndex,
		sink:           sink,
		log:            log,
	}
}

// Promote implements candidate.Promoter: it creates the staging table
// (schema assembled from indexed families only), opens a mutator, and
// writes every already-buffered candidate through it, in that order (spec
// §4.3). Creation is synchronous and happens at most once per coordinator.
func (m *Manager) Promote(ctx context.Context, buffered map[string]indexkey.Candidate) (PromotedStager, error) {
	m.tableName = uuid.NewString()
	schemaXML := BuildSchemaXML(m.schema, m.qualifierIndex)

	if err := m.ns.CreateTable(ctx, m.tableName, schemaXML); err != nil {
		return nil, fmt.Errorf("staging: create table %s: %w", m.tableName, err)
	}
	handle, err := m.ns.OpenTable(ctx, m.tableName)
	if err != nil {
		return nil, fmt.Errorf("staging: open table %s: %w", m.tableName, err)
	}
	m.handle = handle
	m.created = true

	mutator, err := handle.CreateMutatorAsync(ctx, m.sink)
	if err != nil {
		return nil, fmt.Errorf("staging: open mutator on %s: %w", m.tableName, err)
	}
	m.mutator = mutator

	m.log.Info("staging: promoted candidate set to table %s (%d buffered rows)", m.tableName, len(buffered))

	for _, cand := range buffered {
		if err := m.Insert(ctx, cand); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// PromotedStager is the narrowed view Promote returns; it is exactly
// candidate.Stager, named locally to avoid staging depending on candidate.
type PromotedStager interface {
	Insert(ctx context.Context, cand indexkey.Candidate) error
	Close(ctx context.Context) error
}

// Insert writes one candidate to the mutator. No dedup happens here: a row
// the staging scan returns more than once is collapsed later by the
// verification stage's readahead.Builder (spec §4.3, §4.4).
func (m *Manager) Insert(ctx context.Context, cand indexkey.Candidate) error {
	return m.mutator.Set(ctx, table.CellKey{
		Row:       cand.Row,
		Family:    cand.Family,
		Timestamp: cand.Timestamp,
	}, nil)
}

// Close closes the mutator. Per spec §4.3, this must happen before a
// scanner is opened on the staging table, which OpenScanner assumes.
func (m *Manager) Close(ctx context.Context) error {
	if m.mutator == nil {
		return nil
	}
	err := m.mutator.Close(ctx)
	m.mutator = nil
	return err
}

// Created reports whether the staging table was ever created.
func (m *Manager) Created() bool {
	return m.created
}

// OpenScanner opens a scanner on the staging table carrying the primary
// request's max-versions, return-deletes, keys-only, row-regexp, columns,
// and time interval, tagged IgnoreIndex so servers do not recurse into
// index scanning (spec §4.3).
func (m *Manager) OpenScanner(ctx context.Context, primary table.ScanSpec, sink table.ResultSink) (table.Scanner, error) {
	spec := table.ScanSpec{
		Columns:       IndexedFamilyNames(m.schema, m.qualifierIndex),
		MaxVersions:   primary.MaxVersions,
		ReturnDeletes: primary.ReturnDeletes,
		KeysOnly:      primary.KeysOnly,
		RowRegexp:     primary.RowRegexp,
		TimeInterval:  primary.TimeInterval,
		IgnoreIndex:   true,
	}
	return m.handle.CreateScannerAsync(ctx, spec, sink)
}

// Drop drops the staging table (data + metadata), per spec §5: "the
// staging table is owned by the coordinator; it is dropped ... in the
// destructor." Safe to call even if the table was never created.
func (m *Manager) Drop(ctx context.Context) error {
	if !m.created {
		return nil
	}
	return m.ns.DropTable(ctx, m.tableName, true)
}

// TableName returns the generated staging table name, or "" if none has
// been created yet.
func (m *Manager) TableName() string {
	return m.tableName
}
