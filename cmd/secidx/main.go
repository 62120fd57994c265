// Command secidx is a small interactive demo of the secondary-index scan
// coordinator, backed by internal/membackend instead of a real distributed
// table service. It seeds a handful of rows into a "users" table with two
// indexed column families and lets you run scans against them from a
// readline-style prompt, grounded on the teacher's own docdbsh shell
// (cmd/docdbsh), but using github.com/peterh/liner for line editing and
// history instead of a bare bufio.Scanner loop.
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/kartikbazzad/secidx/internal/config"
	"github.com/kartikbazzad/secidx/internal/coordinator"
	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/internal/logger"
	"github.com/kartikbazzad/secidx/internal/membackend"
	"github.com/kartikbazzad/secidx/internal/metrics"
	"github.com/kartikbazzad/secidx/pkg/table"
)

const primaryTableName = "users"

func main() {
	logger.InitSlog(logger.SlogConfig{Level: envOr("SECIDX_LOG_LEVEL", "INFO"), Format: envOr("SECIDX_LOG_FORMAT", "text")})
	startup := logger.Slog()
	startup.Info("starting secidx demo shell")

	backend, err := membackend.Open(":memory:")
	if err != nil {
		startup.Error("open backend failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	sch := membackend.NewSchema(
		membackend.ColumnFamilyDef{Name: "email", HasIndex: true},
		membackend.ColumnFamilyDef{Name: "status", HasIndex: true},
	)
	backend.DefineTable(primaryTableName, sch)
	backend.DefineTable(indexTableName(primaryTableName, "email"), membackend.NewSchema())
	backend.DefineTable(indexTableName(primaryTableName, "status"), membackend.NewSchema())

	if err := seed(backend, sch); err != nil {
		startup.Error("seed failed", "error", err)
		os.Exit(1)
	}
	startup.Info("seeded demo table", "table", primaryTableName, "rows", len(demoUsers))

	fmt.Println("secidx demo shell. Seeded table 'users' indexed on email and status.")
	fmt.Println("Type '.help' for commands, '.exit' to quit.")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	defer startup.Info("shutting down secidx demo shell")

	for {
		input, err := line.Prompt("secidx> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println()
				return
			}
			fmt.Fprintf(os.Stderr, "secidx: %v\n", err)
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if handled := dispatch(backend, sch, input); !handled {
			return
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dispatch(backend *membackend.Backend, sch table.Schema, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case ".exit", ".quit":
		return false
	case ".help":
		printHelp()
	case ".scan":
		if len(fields) != 3 {
			fmt.Println("usage: .scan <family> <value>")
			break
		}
		runScan(backend, sch, fields[1], fields[2])
	default:
		fmt.Printf("unknown command: %s (try .help)\n", fields[0])
	}
	return true
}

func printHelp() {
	fmt.Println(`commands:
  .scan <family> <value>   scan users whose column family has exactly this value
  .help                    show this message
  .exit                    quit`)
}

// runScan drives one coordinator end to end against membackend and prints
// every surviving cell as it arrives, via a sink that blocks the prompt
// until the scan's terminal callback fires.
func runScan(backend *membackend.Backend, sch table.Schema, family, value string) {
	primary, err := backend.OpenTable(context.Background(), primaryTableName)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	spec := table.ScanSpec{
		Columns: []string{family},
		ColumnPredicates: []table.ColumnPredicate{
			{Family: family, Op: table.PredicateEQ, Value: []byte(value)},
		},
	}
	req := table.ScanRequest{
		Primary:          primary,
		IndexNamespace:   backend,
		StagingNamespace: backend,
		Spec:             spec,
	}

	sink := &printSink{done: make(chan struct{})}
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v, falling back to defaults\n", err)
		cfg = config.Default()
	}
	log := logger.Default()
	met := metrics.NewCoordinator("demo")

	coord := coordinator.New(cfg, log, met, req, sink)
	if err := coord.Start(context.Background()); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	<-sink.done
}

// printSink implements table.ResultSink by printing every cell it receives
// and closing done once the coordinator's terminal batch arrives.
type printSink struct {
	done chan struct{}
}

func (s *printSink) RegisterScanner(sc table.Scanner) {}

func (s *printSink) OnScanOK(sc table.Scanner, cells []table.Cell, eos bool) {
	for _, cell := range cells {
		fmt.Printf("  %s.%s = %q\n", cell.Key.Row, cell.Key.Family, cell.Value)
	}
	if eos {
		close(s.done)
	}
}

func (s *printSink) OnScanError(sc table.Scanner, code int, msg string, eos bool) {
	fmt.Printf("  scan error (code=%d): %s\n", code, msg)
	if eos {
		close(s.done)
	}
}

func (s *printSink) OnUpdateOK(m table.Mutator) {}
func (s *printSink) OnUpdateError(m table.Mutator, code int, failures []table.UpdateFailure) {
	fmt.Printf("  update error (code=%d): %d failed\n", code, len(failures))
}
func (s *printSink) IncrementOutstanding() {}
func (s *printSink) DecrementOutstanding() {}

// indexTableName mirrors internal/coordinator's own naming scheme for the
// per-family index table a demo dataset needs defined up front.
func indexTableName(primaryName, familyName string) string {
	return string(indexkey.IndexMarker) + primaryName + ":" + familyName
}

type demoUser struct {
	id     uint64
	email  string
	status string
}

var demoUsers = []demoUser{
	{1, "alice@example.com", "active"},
	{2, "bob@example.com", "active"},
	{3, "carol@example.com", "suspended"},
	{4, "dave@example.com", "active"},
}

// seed writes every demo user's primary cells and the corresponding
// index-table entries (spec §6's wire format) through real mutators, so
// the demo exercises the same write path a production indexer would.
func seed(backend *membackend.Backend, sch table.Schema) error {
	ctx := context.Background()

	primary, err := backend.OpenTable(ctx, primaryTableName)
	if err != nil {
		return err
	}
	primaryMutator, err := primary.CreateMutatorAsync(ctx, noopSink{})
	if err != nil {
		return err
	}

	families := map[string]uint32{}
	for _, cf := range sch.ColumnFamilies() {
		families[cf.Name()] = cf.ID()
	}

	for _, u := range demoUsers {
		row := rowKeyFor(u.id)
		if err := primaryMutator.Set(ctx, table.CellKey{Row: row, Family: "email"}, []byte(u.email)); err != nil {
			return err
		}
		if err := primaryMutator.Set(ctx, table.CellKey{Row: row, Family: "status"}, []byte(u.status)); err != nil {
			return err
		}
		if err := writeIndexEntry(ctx, backend, families["email"], row, []byte(u.email)); err != nil {
			return err
		}
		if err := writeIndexEntry(ctx, backend, families["status"], row, []byte(u.status)); err != nil {
			return err
		}
	}
	return primaryMutator.Close(ctx)
}

func writeIndexEntry(ctx context.Context, backend *membackend.Backend, cfID uint32, primaryRow, indexedBytes []byte) error {
	idxTableName := indexTableName(primaryTableName, familyNameForID(cfID))
	idx, err := backend.OpenTable(ctx, idxTableName)
	if err != nil {
		return err
	}
	mutator, err := idx.CreateMutatorAsync(ctx, noopSink{})
	if err != nil {
		return err
	}
	var key strings.Builder
	key.WriteString(strconv.FormatUint(uint64(cfID), 10))
	key.WriteByte(',')
	key.Write(primaryRow)
	key.WriteByte('\t')
	key.Write(indexedBytes)
	if err := mutator.Set(ctx, table.CellKey{Row: []byte(key.String()), Family: "idx"}, nil); err != nil {
		return err
	}
	return mutator.Close(ctx)
}

func familyNameForID(id uint32) string {
	switch id {
	case 1:
		return "email"
	case 2:
		return "status"
	default:
		return ""
	}
}

func rowKeyFor(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

type noopSink struct{}

func (noopSink) RegisterScanner(sc table.Scanner)                                   {}
func (noopSink) OnScanOK(sc table.Scanner, cells []table.Cell, eos bool)             {}
func (noopSink) OnScanError(sc table.Scanner, code int, msg string, eos bool)        {}
func (noopSink) OnUpdateOK(m table.Mutator)                                          {}
func (noopSink) OnUpdateError(m table.Mutator, code int, failures []table.UpdateFailure) {}
func (noopSink) IncrementOutstanding()                                              {}
func (noopSink) DecrementOutstanding()                                              {}
