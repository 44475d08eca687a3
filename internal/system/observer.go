package system

import (
	"github.com/runnerlab/terrainstream/internal/core/event"
	"github.com/runnerlab/terrainstream/internal/world"
)

// BusObserver publishes tracker placements and reclaims on the event bus,
// stamped with the current tick.
type BusObserver struct {
	bus  *event.Bus
	tick func() uint64
}

func NewBusObserver(bus *event.Bus, tick func() uint64) *BusObserver {
	if tick == nil {
		tick = func() uint64 { return 0 }
	}
	return &BusObserver{bus: bus, tick: tick}
}

func (o *BusObserver) SegmentPlaced(lane string, seg *world.Segment) {
	event.Emit(o.bus, event.SegmentPlaced{
		Lane:       lane,
		Key:        seg.Key(),
		InstanceID: seg.ID(),
		X:          seg.X,
		Tick:       o.tick(),
	})
}

func (o *BusObserver) SegmentReclaimed(lane string, seg *world.Segment, x float64) {
	event.Emit(o.bus, event.SegmentReclaimed{
		Lane:       lane,
		Key:        seg.Key(),
		InstanceID: seg.ID(),
		X:          x,
		Tick:       o.tick(),
	})
}
