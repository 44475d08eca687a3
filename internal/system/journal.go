package system

import (
	"context"
	"sort"
	"time"

	"github.com/runnerlab/terrainstream/internal/core/event"
	coresys "github.com/runnerlab/terrainstream/internal/core/system"
	"github.com/runnerlab/terrainstream/internal/persist"
	"github.com/runnerlab/terrainstream/internal/world"
	"go.uber.org/zap"
)

// maxJournalBacklog bounds the buffer kept across failed flushes.
const maxJournalBacklog = 100_000

// JournalWriter is the storage side of the journal. *persist.JournalRepo
// satisfies it.
type JournalWriter interface {
	Write(ctx context.Context, entries []persist.JournalEntry) error
	SaveSnapshots(ctx context.Context, snaps []persist.PoolSnapshot) error
}

// JournalSystem buffers placement events from the bus and writes them in
// one transaction every interval ticks, together with a pool snapshot of
// every lane. Phase 4 (Persist).
type JournalSystem struct {
	writer    JournalWriter
	lanes     []*world.Lane
	log       *zap.Logger
	buf       []persist.JournalEntry
	tickCount int
	interval  int
	timeout   time.Duration
	dropped   int
}

func NewJournalSystem(bus *event.Bus, writer JournalWriter, lanes []*world.Lane, log *zap.Logger, intervalTicks int) *JournalSystem {
	s := &JournalSystem{
		writer:   writer,
		lanes:    lanes,
		log:      log,
		buf:      make([]persist.JournalEntry, 0, 256),
		interval: intervalTicks,
		timeout:  5 * time.Second,
	}
	event.Subscribe(bus, func(ev event.SegmentPlaced) {
		s.append(persist.JournalEntry{
			Lane: ev.Lane, Action: persist.ActionPlace, Template: ev.Key,
			InstanceID: ev.InstanceID, X: ev.X, Tick: ev.Tick,
		})
	})
	event.Subscribe(bus, func(ev event.SegmentReclaimed) {
		s.append(persist.JournalEntry{
			Lane: ev.Lane, Action: persist.ActionReclaim, Template: ev.Key,
			InstanceID: ev.InstanceID, X: ev.X, Tick: ev.Tick,
		})
	})
	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes everything buffered so far. On failure the buffer is kept
// for the next attempt.
func (s *JournalSystem) Flush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if len(s.buf) > 0 {
		if err := s.writer.Write(ctx, s.buf); err != nil {
			s.log.Error("journal flush failed", zap.Int("entries", len(s.buf)), zap.Error(err))
			return
		}
		s.log.Debug("journal flushed", zap.Int("entries", len(s.buf)))
		s.buf = s.buf[:0]
	}

	if err := s.writer.SaveSnapshots(ctx, s.snapshots()); err != nil {
		s.log.Error("pool snapshot failed", zap.Error(err))
	}
}

func (s *JournalSystem) append(e persist.JournalEntry) {
	if len(s.buf) >= maxJournalBacklog {
		s.dropped++
		if s.dropped == 1 || s.dropped%1000 == 0 {
			s.log.Warn("journal backlog full, dropping entries", zap.Int("dropped", s.dropped))
		}
		return
	}
	s.buf = append(s.buf, e)
}

func (s *JournalSystem) snapshots() []persist.PoolSnapshot {
	var out []persist.PoolSnapshot
	for _, l := range s.lanes {
		keys := l.Stats().Keys()
		sort.Strings(keys)
		for _, k := range keys {
			st := l.Stats().Stats(k)
			out = append(out, persist.PoolSnapshot{
				Lane:        l.Name,
				Template:    k,
				Constructed: st.Constructed,
				Active:      st.Active,
				Pooled:      st.Pooled,
			})
		}
	}
	return out
}

// Pending returns the number of buffered entries.
func (s *JournalSystem) Pending() int { return len(s.buf) }
