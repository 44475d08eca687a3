package system

import (
	"time"

	coresys "github.com/runnerlab/terrainstream/internal/core/system"
	"github.com/runnerlab/terrainstream/internal/world"
	"go.uber.org/zap"
)

// StreamSystem runs one lane's streaming window each tick: viewport sample,
// growth loop, shrink loop. Phase 2 (Update).
type StreamSystem struct {
	lane   *world.Lane
	log    *zap.Logger
	totals world.TickResult
	errors int
}

func NewStreamSystem(lane *world.Lane, log *zap.Logger) *StreamSystem {
	return &StreamSystem{lane: lane, log: log.With(zap.String("lane", lane.Name))}
}

func (s *StreamSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *StreamSystem) Update(_ time.Duration) {
	res, err := s.lane.Tracker.Update()
	s.totals.Placed += res.Placed
	s.totals.Reclaimed += res.Reclaimed
	s.totals.Skipped += res.Skipped
	if err != nil {
		// Non-finite viewport, or pool state diverged from the placement record.
		s.errors++
		s.log.Error("stream update failed", zap.Error(err))
	}
}

// Totals returns the cumulative tick results of this lane.
func (s *StreamSystem) Totals() world.TickResult { return s.totals }

// Errors returns how many ticks reported an error.
func (s *StreamSystem) Errors() int { return s.errors }
