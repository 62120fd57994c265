package membackend

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/kartikbazzad/secidx/pkg/table"
)

// Backend owns one SQLite database holding every table this process has
// registered, each partitioned by its own table name in a single shared
// "cells" table. A Backend is also, directly, a table.Namespace — the
// reference implementation has no reason to separate the two concepts the
// way a real deployment reserving "/tmp" for staging tables would.
type Backend struct {
	db *sql.DB

	mu      sync.Mutex
	schemas map[string]table.Schema
}

// Open creates a Backend against dsn (":memory:" for the tests and the demo
// CLI, or a file path) and prepares its storage table. The pool is held to
// a single connection, because every new connection to ":memory:" would
// open a separate, empty database.
func Open(dsn string) (*Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("membackend: open %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	const ddl = `
CREATE TABLE IF NOT EXISTS cells (
	tbl       TEXT NOT NULL,
	row       BLOB NOT NULL,
	family    TEXT NOT NULL,
	qualifier BLOB NOT NULL,
	ts        INTEGER NOT NULL,
	value     BLOB,
	deleted   INTEGER NOT NULL DEFAULT 0
)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("membackend: create storage table: %w", err)
	}
	return &Backend{db: db, schemas: make(map[string]table.Schema)}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

// DefineTable registers a table's schema without creating any storage —
// membackend's equivalent of a primary or index table that already exists
// in a real deployment. Tests and the demo CLI use this for primary and
// index tables; CreateTable (the table.Namespace method) is what
// internal/staging.Manager calls for the ephemeral staging table.
func (b *Backend) DefineTable(name string, sch table.Schema) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schemas[name] = sch
}

// CreateTable implements table.Namespace for the staging table: it parses
// the schema XML internal/staging.BuildSchemaXML produced and registers it.
// No SQL DDL is needed — "cells" already has room for any table name.
func (b *Backend) CreateTable(ctx context.Context, name string, schemaXML string) error {
	sch, err := schemaFromXML(schemaXML)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.schemas[name]; exists {
		return fmt.Errorf("membackend: table %s already exists", name)
	}
	b.schemas[name] = sch
	return nil
}

// OpenTable implements table.Namespace.
func (b *Backend) OpenTable(ctx context.Context, name string) (table.TableHandle, error) {
	b.mu.Lock()
	sch, ok := b.schemas[name]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("membackend: no such table %s", name)
	}
	return &tableHandle{backend: b, name: name, schema: sch}, nil
}

// DropTable implements table.Namespace: it deletes every cell belonging to
// name and forgets its schema.
func (b *Backend) DropTable(ctx context.Context, name string, ifExists bool) error {
	b.mu.Lock()
	_, ok := b.schemas[name]
	delete(b.schemas, name)
	b.mu.Unlock()

	if !ok && !ifExists {
		return fmt.Errorf("membackend: no such table %s", name)
	}
	_, err := b.db.ExecContext(ctx, `DELETE FROM cells WHERE tbl = ?`, name)
	return err
}

// insert writes one cell synchronously — membackend's mutators are thin
// wrappers around a direct write, since there is no real network RPC here
// to batch against. A nil qualifier is stored as an empty blob.
func (b *Backend) insert(ctx context.Context, tableName string, key table.CellKey, value []byte) error {
	deleted := 0
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO cells (tbl, row, family, qualifier, ts, value, deleted) VALUES (?, ?, ?, COALESCE(?, x''), ?, ?, ?)`,
		tableName, key.Row, key.Family, key.Qualifier, key.Timestamp, value, deleted,
	)
	return err
}

// queryAll returns every cell stored for tableName, in (row, family,
// qualifier, ts) order — filtering against the requesting scan's spec is
// the caller's job (filter.go), kept separate from storage access so it can
// reuse internal/indexkey's own interval-matching logic.
func (b *Backend) queryAll(ctx context.Context, tableName string) ([]table.Cell, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT row, family, qualifier, ts, value, deleted FROM cells WHERE tbl = ? ORDER BY row, family, qualifier, ts`,
		tableName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []table.Cell
	for rows.Next() {
		var (
			row, qualifier, value []byte
			family                string
			ts                    int64
			deleted               int
		)
		if err := rows.Scan(&row, &family, &qualifier, &ts, &value, &deleted); err != nil {
			return nil, err
		}
		flag := table.FlagPut
		if deleted != 0 {
			flag = table.FlagDelete
		}
		out = append(out, table.Cell{
			Key: table.CellKey{
				Row:       row,
				Family:    family,
				Qualifier: qualifier,
				Timestamp: ts,
			},
			Value: value,
			Flag:  flag,
		})
	}
	return out, rows.Err()
}
