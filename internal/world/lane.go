package world

import (
	"github.com/runnerlab/terrainstream/internal/data"
	"go.uber.org/zap"
)

// Lane is one independent streaming window with its own pool and
// watermarks. Several lanes can run side by side without sharing state.
type Lane struct {
	Name    string
	OriginY float64
	Tracker *Tracker
}

// LaneOptions are the collaborators a lane is built from. Observer is
// optional.
type LaneOptions struct {
	Catalog  *data.TemplateCatalog
	Viewport Viewport
	Selector Selector
	Observer Observer
	Log      *zap.Logger
}

// NewLane builds a tracker, and with it a pool, for cfg.Lane and seeds its
// window.
func NewLane(cfg TrackerConfig, opts LaneOptions) (*Lane, error) {
	if opts.Catalog == nil {
		return nil, &ConfigurationError{Field: "templates", Reason: "template set is empty"}
	}
	t, err := NewTracker(cfg, opts.Catalog, opts.Viewport, opts.Selector, opts.Observer, opts.Log)
	if err != nil {
		return nil, err
	}
	return &Lane{Name: cfg.Lane, OriginY: cfg.OriginY, Tracker: t}, nil
}

// Stats returns a read-only view of the lane's pool accounting.
func (l *Lane) Stats() PoolStats { return l.Tracker.PoolStats() }
