package system

import (
	"time"

	coresys "github.com/runnerlab/terrainstream/internal/core/system"
	"github.com/runnerlab/terrainstream/internal/world"
	"go.uber.org/zap"
)

// PoolStatsSystem logs each lane's pool accounting and watermarks every
// interval ticks. Phase 3 (PostUpdate).
type PoolStatsSystem struct {
	lanes     []*world.Lane
	log       *zap.Logger
	tickCount int
	interval  int
}

func NewPoolStatsSystem(lanes []*world.Lane, log *zap.Logger, intervalTicks int) *PoolStatsSystem {
	return &PoolStatsSystem{lanes: lanes, log: log, interval: intervalTicks}
}

func (s *PoolStatsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *PoolStatsSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	for _, l := range s.lanes {
		t := l.Stats().Totals()
		s.log.Info("pool stats",
			zap.String("lane", l.Name),
			zap.Int("constructed", t.Constructed),
			zap.Int("active", t.Active),
			zap.Int("pooled", t.Pooled),
			zap.Float64("low", l.Tracker.LowWatermark()),
			zap.Float64("high", l.Tracker.HighWatermark()),
		)
	}
}
