// Package candidate implements the Candidate Set (spec §3, §4.3): a
// deduplicating accumulator for primary row keys discovered via the index,
// switching from an in-memory map to a staging-table mutator once the
// accumulated size crosses TmpCutoff.
//
// Set is not internally synchronized; it is always driven from under the
// coordinator's single mutex (spec §5), so it adds no locking of its own.
package candidate

import (
	"context"
	"sort"

	"github.com/kartikbazzad/secidx/internal/indexkey"
	"github.com/kartikbazzad/secidx/internal/memory"
	"github.com/kartikbazzad/secidx/pkg/table"
)

// candidateRecordOverhead approximates the source's sizeof(candidate
// record): a family-name string header plus a timestamp plus a map-entry
// slot. It only affects when the staging promotion fires, not correctness.
const candidateRecordOverhead = 24

// Mode is the Candidate Set's current storage mode (spec §3: "exactly one
// store is non-empty at any time").
type Mode int

const (
	ModeBuffered Mode = iota
	ModeStaging
)

// Stager is the interface the staging-table mutator exposes once the
// Candidate Set has promoted out of buffered mode.
type Stager interface {
	Insert(ctx context.Context, cand indexkey.Candidate) error
	Close(ctx context.Context) error
}

// Promoter builds a Stager the first time accumulated size exceeds cutoff,
// writing every already-buffered candidate to it before returning (spec
// §4.3's switch rule). It is implemented by internal/staging.Manager.
type Promoter func(ctx context.Context, buffered map[string]indexkey.Candidate) (Stager, error)

// Set is the Candidate Set.
type Set struct {
	mode       Mode
	cutoff     uint64
	bytesAccum uint64
	buffered   map[string]indexkey.Candidate
	arena      *memory.Arena
	stager     Stager
	promote    Promoter
}

// New creates an empty, buffered-mode Candidate Set. promote is invoked at
// most once, the first time the running byte counter exceeds cutoff.
func New(cutoff uint64, promote Promoter) *Set {
	return &Set{
		cutoff:   cutoff,
		buffered: make(map[string]indexkey.Candidate),
		arena:    memory.NewArena(),
		promote:  promote,
	}
}

// Mode reports the current storage mode.
func (s *Set) Mode() Mode {
	return s.mode
}

// InsertBatch inserts every candidate in cands, all parsed out of source
// (an index-table batch). It retains source in the arena only if the
// insert produced at least one new buffered key (spec §4.3), returns the
// count of candidates actually accepted (new in buffered mode; all of them
// in staging mode, where repeated rows are collapsed later by the
// verification stage's readahead.Builder), and
// promotes to staging mode if cutoff is now exceeded.
func (s *Set) InsertBatch(ctx context.Context, source []table.Cell, cands []indexkey.Candidate) (int, error) {
	accepted := 0
	newInBuffer := 0

	for _, cand := range cands {
		switch s.mode {
		case ModeBuffered:
			key := string(cand.Row)
			if _, exists := s.buffered[key]; exists {
				continue
			}
			s.buffered[key] = cand
			s.bytesAccum += uint64(len(cand.Row)) + candidateRecordOverhead
			newInBuffer++
			accepted++
		case ModeStaging:
			if err := s.stager.Insert(ctx, cand); err != nil {
				return accepted, err
			}
			accepted++
		}
	}

	if s.mode == ModeBuffered {
		if newInBuffer > 0 {
			s.arena.Retain(source)
		}
		if s.bytesAccum > s.cutoff {
			if err := s.promoteToStaging(ctx); err != nil {
				return accepted, err
			}
		}
	}

	return accepted, nil
}

func (s *Set) promoteToStaging(ctx context.Context) error {
	stager, err := s.promote(ctx, s.buffered)
	if err != nil {
		return err
	}
	s.stager = stager
	s.mode = ModeStaging
	s.buffered = nil
	s.arena.Release()
	return nil
}

// BufferedRows returns every buffered candidate, ordered by
// indexkey.CompareRowKeys (spec §4.2's candidate-key ordering, "the
// ordering the staging path would observe"). Only meaningful in buffered
// mode — it is empty once the set has promoted to staging.
func (s *Set) BufferedRows() []indexkey.Candidate {
	if s.mode != ModeBuffered {
		return nil
	}
	out := make([]indexkey.Candidate, 0, len(s.buffered))
	for _, c := range s.buffered {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return indexkey.CompareRowKeys(out[i].Row, out[j].Row) < 0
	})
	return out
}

// IsEmpty reports whether the buffered set holds zero candidates. It is
// meaningless once the set has promoted to staging (spec §4.3: staging
// mode is only entered once at least one candidate has been buffered).
func (s *Set) IsEmpty() bool {
	return s.mode == ModeBuffered && len(s.buffered) == 0
}

// Close releases the staging mutator, if any was opened.
func (s *Set) Close(ctx context.Context) error {
	if s.stager != nil {
		return s.stager.Close(ctx)
	}
	return nil
}
