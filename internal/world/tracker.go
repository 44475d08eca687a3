package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/runnerlab/terrainstream/internal/data"
	"github.com/runnerlab/terrainstream/internal/pool"
	"go.uber.org/zap"
)

// ErrInvalidInterval is returned by Update when the viewport reports a
// NaN or infinite bound. The tick is rejected and nothing changes.
var ErrInvalidInterval = errors.New("invalid viewport interval")

// Terrain is the payload of a pooled segment instance.
type Terrain struct {
	Template *data.Template
	Y        float64 // vertical origin of the owning lane
}

// Segment is one pooled, positioned terrain segment.
type Segment = pool.Instance[Terrain]

type segmentPool = pool.Pool[Terrain]

func newSegmentPool(catalog *data.TemplateCatalog, originY float64, log *zap.Logger) *segmentPool {
	return pool.New[Terrain](func(key string) Terrain {
		return Terrain{Template: catalog.Get(key), Y: originY}
	}, log)
}

// PoolStats is a read-only view of a tracker's pool. The pool itself never
// leaves the tracker, so only the tracker can release a placed segment.
type PoolStats interface {
	Stats(key string) pool.Stats
	Keys() []string
	Totals() pool.Stats
}

type poolStats struct{ p *segmentPool }

func (v poolStats) Stats(key string) pool.Stats { return v.p.Stats(key) }
func (v poolStats) Keys() []string              { return v.p.Keys() }
func (v poolStats) Totals() pool.Stats          { return v.p.Totals() }

// Observer is notified after every placement and reclaim.
type Observer interface {
	SegmentPlaced(lane string, seg *Segment)
	SegmentReclaimed(lane string, seg *Segment, x float64)
}

// TrackerConfig holds the geometry of one streaming window.
type TrackerConfig struct {
	Lane          string
	SegmentWidth  float64
	ForwardMargin float64 // added to the right edge of the viewport
	BackMargin    float64 // subtracted from the left edge of the viewport
	OriginY       float64 // vertical origin stamped on every segment of the lane

	Metrics *pool.Metrics // optional
}

// TickResult counts what one Update did.
type TickResult struct {
	Placed    int
	Reclaimed int
	Skipped   int // reclaim steps that found no placement at the watermark
}

// Tracker keeps the visible interval (plus margins) covered by contiguous,
// non-overlapping segments, creating them ahead of the viewport and
// returning them to the pool behind it.
//
// Watermarks are kept as slot indices from a fixed origin; the position of
// slot k is origin + k*width. Accessed only from the game loop goroutine.
type Tracker struct {
	cfg      TrackerConfig
	catalog  *data.TemplateCatalog
	pool     *segmentPool
	viewport Viewport
	selector Selector
	fallback *RandomSelector
	observer Observer
	log      *zap.Logger

	origin     float64
	high       int64 // next unfilled slot
	low        int64 // next slot pending reclaim
	placements placementRecord

	boundsStart, boundsEnd float64
}

// NewTracker validates the configuration and seeds the initial window: the
// forced templates first, in order, from the left bound, then selected
// templates until the right bound is covered.
//
// The tracker builds and owns its segment pool.
func NewTracker(cfg TrackerConfig, catalog *data.TemplateCatalog, viewport Viewport, selector Selector, observer Observer, log *zap.Logger) (*Tracker, error) {
	if catalog == nil || catalog.Count() == 0 {
		return nil, &ConfigurationError{Field: "templates", Reason: "template set is empty"}
	}
	if !(cfg.SegmentWidth > 0) || math.IsInf(cfg.SegmentWidth, 0) {
		return nil, &ConfigurationError{Field: "segment_width", Reason: fmt.Sprintf("must be a positive finite number, got %v", cfg.SegmentWidth)}
	}
	if viewport == nil {
		return nil, &ConfigurationError{Field: "viewport", Reason: "viewport is required"}
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("lane", cfg.Lane))

	segPool := newSegmentPool(catalog, cfg.OriginY, log)
	if cfg.Metrics != nil {
		segPool.WithMetrics(cfg.Metrics, cfg.Lane)
	}
	if selector == nil {
		selector = NewRandomSelector(nil)
	}

	t := &Tracker{
		cfg:      cfg,
		catalog:  catalog,
		pool:     segPool,
		viewport: viewport,
		selector: selector,
		fallback: NewRandomSelector(nil),
		observer: observer,
		log:      log,
	}

	start, end := t.interval()
	if !finite(start) || !finite(end) {
		return nil, &ConfigurationError{Field: "viewport", Reason: fmt.Sprintf("initial interval [%v, %v] is not finite", start, end)}
	}
	t.boundsStart, t.boundsEnd = start, end
	t.origin = start
	t.high = 0
	t.low = -1

	for _, tpl := range catalog.Forced() {
		t.place(tpl)
	}
	for t.position(t.high) < end {
		t.place(t.next())
	}

	t.log.Info("streaming window initialized",
		zap.Float64("origin", t.origin),
		zap.Float64("width", cfg.SegmentWidth),
		zap.Int("forced", len(catalog.Forced())),
		zap.Int("placed", t.placements.len()),
	)
	return t, nil
}

// Update samples the viewport once, fills forward while the high watermark
// is short of the right bound and reclaims backward while the segment at
// the low watermark lies wholly left of the left bound. Both loops run to
// completion, so a viewport that jumps several segments is handled in one
// call.
func (t *Tracker) Update() (TickResult, error) {
	var res TickResult
	start, end := t.interval()
	if !finite(start) || !finite(end) {
		t.log.Warn("viewport interval rejected", zap.Float64("start", start), zap.Float64("end", end))
		return res, fmt.Errorf("%w: [%v, %v]", ErrInvalidInterval, start, end)
	}

	if start != t.boundsStart || end != t.boundsEnd {
		t.boundsStart, t.boundsEnd = start, end
		t.log.Debug("window bounds", zap.Float64("start", start), zap.Float64("end", end))
	}

	for t.position(t.high) < end {
		t.place(t.next())
		res.Placed++
	}

	for t.low < t.high && t.position(t.low+1) < start {
		ok, err := t.reclaim(t.low)
		if err != nil {
			return res, err
		}
		if ok {
			res.Reclaimed++
		} else {
			res.Skipped++
		}
		t.low++
	}
	return res, nil
}

// interval returns the viewport interval widened by the margins.
func (t *Tracker) interval() (float64, float64) {
	start, end := t.viewport.VisibleInterval()
	return start - t.cfg.BackMargin, end + t.cfg.ForwardMargin
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (t *Tracker) position(slot int64) float64 {
	return t.origin + float64(slot)*t.cfg.SegmentWidth
}

func (t *Tracker) slotOf(x float64) int64 {
	return int64(math.Floor((x - t.origin) / t.cfg.SegmentWidth))
}

func (t *Tracker) next() *data.Template {
	all := t.catalog.All()
	if tpl := t.selector.Select(all, t.high); tpl != nil {
		return tpl
	}
	t.log.Warn("selector returned no template, falling back to random", zap.Int64("slot", t.high))
	return t.fallback.Select(all, t.high)
}

func (t *Tracker) place(tpl *data.Template) {
	seg := t.pool.Acquire(tpl.Key)
	seg.X = t.position(t.high)
	t.placements.push(t.high, seg)
	t.high++

	t.log.Debug("segment placed",
		zap.String("key", seg.Key()),
		zap.Uint64("id", seg.ID()),
		zap.Float64("x", seg.X),
	)
	if t.observer != nil {
		t.observer.SegmentPlaced(t.cfg.Lane, seg)
	}
}

// reclaim returns the segment at slot to the pool. A missing placement is
// not an error; it reports false and leaves everything as is. The segment
// leaves the placement record only once the pool has accepted it.
func (t *Tracker) reclaim(slot int64) (bool, error) {
	seg := t.placements.front(slot)
	if seg == nil {
		return false, nil
	}
	x := seg.X
	if err := t.pool.Release(seg); err != nil {
		t.log.Error("segment release rejected", zap.Error(err))
		return false, fmt.Errorf("reclaim slot %d: %w", slot, err)
	}
	t.placements.popFront(slot)

	t.log.Debug("segment reclaimed",
		zap.String("key", seg.Key()),
		zap.Uint64("id", seg.ID()),
		zap.Float64("x", x),
	)
	if t.observer != nil {
		t.observer.SegmentReclaimed(t.cfg.Lane, seg, x)
	}
	return true, nil
}

// Lane returns the lane name this tracker was configured with.
func (t *Tracker) Lane() string { return t.cfg.Lane }

// Width returns the uniform segment width.
func (t *Tracker) Width() float64 { return t.cfg.SegmentWidth }

// HighWatermark is the next unfilled position.
func (t *Tracker) HighWatermark() float64 { return t.position(t.high) }

// LowWatermark is the next position pending reclaim.
func (t *Tracker) LowWatermark() float64 { return t.position(t.low) }

// Bounds returns the viewport interval plus margins as sampled by the last
// accepted Update, or by NewTracker before the first one.
func (t *Tracker) Bounds() (start, end float64) { return t.boundsStart, t.boundsEnd }

// Placements returns the active segments from left to right.
func (t *Tracker) Placements() []*Segment { return t.placements.snapshot() }

// PlacementAt returns the active segment covering x, or nil.
func (t *Tracker) PlacementAt(x float64) *Segment {
	return t.placements.at(t.slotOf(x))
}

// OriginY returns the lane's vertical origin.
func (t *Tracker) OriginY() float64 { return t.cfg.OriginY }

// PoolStats returns a read-only view of the tracker's pool accounting.
func (t *Tracker) PoolStats() PoolStats { return poolStats{t.pool} }
