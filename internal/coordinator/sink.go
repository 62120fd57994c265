package coordinator

import "github.com/kartikbazzad/secidx/pkg/table"

// childOrigin tags a child scanner at creation time (spec §9), so the
// coordinator never has to sniff a callback's origin from a table name.
type childOrigin int

const (
	originIndex childOrigin = iota
	originStaging
	originPrimary
)

// originSink is the table.ResultSink the coordinator hands to every child
// scanner and to the staging mutator. One instance is created per child,
// carrying the origin it was created for — the origin travels with the
// sink instance, not with any shared lookup table (spec §9's recommended
// fix for fragile table-name sniffing).
type originSink struct {
	coord  *Coordinator
	origin childOrigin
}

// RegisterScanner only touches the dedicated atomic OutstandingScanners
// counter (spec §5), so it never needs the coordinator's mutex — this is
// exactly why that counter is atomic rather than mutex-protected: a child
// scanner factory may call RegisterScanner synchronously, from within the
// very CreateScannerAsync call the coordinator is making while already
// holding its own lock, and Go's sync.Mutex is not reentrant.
func (s *originSink) RegisterScanner(sc table.Scanner) {
	s.coord.outstanding.Add(1)
	s.coord.met.OutstandingScanners.Set(float64(s.coord.outstanding.Load()))
}

func (s *originSink) OnScanOK(sc table.Scanner, cells []table.Cell, eos bool) {
	s.coord.onScanOK(sc, cells, eos, s.origin)
}

func (s *originSink) OnScanError(sc table.Scanner, code int, msg string, eos bool) {
	s.coord.onScanError(sc, code, msg, eos, s.origin)
}

func (s *originSink) OnUpdateOK(m table.Mutator) {}

func (s *originSink) OnUpdateError(m table.Mutator, code int, failures []table.UpdateFailure) {
	s.coord.onUpdateError(m, code, failures)
}

// IncrementOutstanding/DecrementOutstanding belong to the contract between
// a coordinator and *its own* user sink, never between a coordinator and
// its children — no child ever calls these on an originSink.
func (s *originSink) IncrementOutstanding() {}
func (s *originSink) DecrementOutstanding() {}
