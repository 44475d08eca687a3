// Package pool implements a keyed free list of recyclable segment instances.
// Instances are constructed at most once per physically necessary copy and
// live for the rest of the process: releasing parks them in the bucket for
// their template key instead of destroying them.
//
// Accessed only from the game loop goroutine, no locks.
package pool

import (
	"go.uber.org/zap"
)

// Factory builds the payload of a fresh instance for the template named key.
// It must not fail and must not position the instance.
type Factory[T any] func(key string) T

// Instance is a live occurrence of a template. Only the along-axis
// position is meaningful to the streaming window.
type Instance[T any] struct {
	id     uint64
	key    string
	owner  *Pool[T]
	active bool

	X     float64 // along-axis position, valid only while active
	Value T
}

func (i *Instance[T]) ID() uint64   { return i.id }
func (i *Instance[T]) Key() string  { return i.key }
func (i *Instance[T]) Active() bool { return i.active }

// Stats is the per-key instance accounting.
// Constructed == Active + Pooled at every observable point.
type Stats struct {
	Constructed int
	Active      int
	Pooled      int
}

// Pool is the segment pool manager for a single streaming window.
type Pool[T any] struct {
	factory Factory[T]
	free    map[string][]*Instance[T]
	stats   map[string]*Stats
	nextID  uint64
	log     *zap.Logger

	metrics *Metrics
	lane    string
}

func New[T any](factory Factory[T], log *zap.Logger) *Pool[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool[T]{
		factory: factory,
		free:    make(map[string][]*Instance[T], 16),
		stats:   make(map[string]*Stats, 16),
		log:     log,
	}
}

// WithMetrics reports pool activity to m, labelled with the lane name.
func (p *Pool[T]) WithMetrics(m *Metrics, lane string) *Pool[T] {
	p.metrics = m
	p.lane = lane
	return p
}

// Acquire returns an active instance of key, reusing a pooled one when the
// bucket is non-empty. Construction only happens on an empty bucket.
func (p *Pool[T]) Acquire(key string) *Instance[T] {
	st := p.statsFor(key)

	if bucket := p.free[key]; len(bucket) > 0 {
		inst := bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		p.free[key] = bucket[:len(bucket)-1]
		inst.active = true
		st.Pooled--
		st.Active++
		p.metrics.observeAcquire(p.lane, key, true, st.Pooled)
		return inst
	}

	p.nextID++
	inst := &Instance[T]{
		id:     p.nextID,
		key:    key,
		owner:  p,
		active: true,
		Value:  p.factory(key),
	}
	st.Constructed++
	st.Active++
	p.metrics.observeAcquire(p.lane, key, false, st.Pooled)
	p.log.Debug("segment instance constructed",
		zap.String("key", key),
		zap.Uint64("id", inst.id),
		zap.Int("constructed", st.Constructed),
	)
	return inst
}

// Release parks an active instance in the bucket for its key. A nil, foreign
// or already released instance is rejected with *InvalidReleaseError and the
// pool is left untouched.
func (p *Pool[T]) Release(inst *Instance[T]) error {
	if inst == nil {
		return &InvalidReleaseError{Reason: "nil instance"}
	}
	if inst.owner != p {
		return &InvalidReleaseError{Key: inst.key, ID: inst.id, Reason: "instance not owned by this pool"}
	}
	if !inst.active {
		return &InvalidReleaseError{Key: inst.key, ID: inst.id, Reason: "instance already released"}
	}

	inst.active = false
	p.free[inst.key] = append(p.free[inst.key], inst)
	st := p.statsFor(inst.key)
	st.Active--
	st.Pooled++
	p.metrics.observeRelease(p.lane, inst.key, st.Pooled)
	return nil
}

// Stats returns the accounting for key. Unknown keys report all zeros.
func (p *Pool[T]) Stats(key string) Stats {
	if st, ok := p.stats[key]; ok {
		return *st
	}
	return Stats{}
}

// Keys returns every key the pool has seen, in no particular order.
func (p *Pool[T]) Keys() []string {
	keys := make([]string, 0, len(p.stats))
	for k := range p.stats {
		keys = append(keys, k)
	}
	return keys
}

// Totals sums Stats over every key.
func (p *Pool[T]) Totals() Stats {
	var t Stats
	for _, st := range p.stats {
		t.Constructed += st.Constructed
		t.Active += st.Active
		t.Pooled += st.Pooled
	}
	return t
}

func (p *Pool[T]) statsFor(key string) *Stats {
	st := p.stats[key]
	if st == nil {
		st = &Stats{}
		p.stats[key] = st
	}
	return st
}
