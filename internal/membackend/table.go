package membackend

import (
	"context"

	"github.com/google/uuid"

	"github.com/kartikbazzad/secidx/pkg/table"
)

// tableHandle is the table.TableHandle membackend hands back from
// OpenTable.
type tableHandle struct {
	backend *Backend
	name    string
	schema  table.Schema
}

func (h *tableHandle) Name() string        { return h.name }
func (h *tableHandle) Schema() table.Schema { return h.schema }

// scanner is the table.Scanner identity handed to RegisterScanner. It
// carries no other state — the actual scan runs on a detached goroutine
// closing over spec and sink, per CreateScannerAsync below.
type scanner struct {
	id string
}

func (s *scanner) ID() string { return s.id }

// CreateScannerAsync registers a scanner synchronously (spec §9: no
// coordinator lock is required for this, only the atomic outstanding
// counter), then runs the actual query and delivery on a separate
// goroutine, exactly as a real RPC-backed scanner would deliver results
// off its own network-reading goroutine.
func (h *tableHandle) CreateScannerAsync(ctx context.Context, spec table.ScanSpec, sink table.ResultSink) (table.Scanner, error) {
	sc := &scanner{id: uuid.NewString()}
	sink.RegisterScanner(sc)

	go func() {
		cells, err := h.backend.queryAll(ctx, h.name)
		if err != nil {
			sink.OnScanError(sc, 1, err.Error(), true)
			return
		}
		cells = applySpec(cells, spec)

		if len(cells) == 0 {
			sink.OnScanOK(sc, nil, true)
			return
		}

		const batchSize = 64
		for i := 0; i < len(cells); i += batchSize {
			end := i + batchSize
			if end > len(cells) {
				end = len(cells)
			}
			select {
			case <-ctx.Done():
				sink.OnScanError(sc, 2, ctx.Err().Error(), true)
				return
			default:
			}
			sink.OnScanOK(sc, cells[i:end], end == len(cells))
		}
	}()

	return sc, nil
}

// mutator is the table.Mutator membackend hands back from
// CreateMutatorAsync. Writes are synchronous against SQLite, but still
// report through sink exactly as an asynchronous batched writer would —
// membackend has no network round trip to actually batch against.
type mutator struct {
	backend *Backend
	table   string
	sink    table.ResultSink
}

func (h *tableHandle) CreateMutatorAsync(ctx context.Context, sink table.ResultSink) (table.Mutator, error) {
	return &mutator{backend: h.backend, table: h.name, sink: sink}, nil
}

func (m *mutator) Set(ctx context.Context, key table.CellKey, value []byte) error {
	if err := m.backend.insert(ctx, m.table, key, value); err != nil {
		go m.sink.OnUpdateError(m, 1, []table.UpdateFailure{{Key: key, Code: 1, Msg: err.Error()}})
		return err
	}
	go m.sink.OnUpdateOK(m)
	return nil
}

func (m *mutator) Close(ctx context.Context) error { return nil }
