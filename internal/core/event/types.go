package event

// SegmentPlaced is emitted when a streaming window places a segment.
type SegmentPlaced struct {
	Lane       string
	Key        string
	InstanceID uint64
	X          float64
	Tick       uint64
}

// SegmentReclaimed is emitted when a segment is returned to its pool.
type SegmentReclaimed struct {
	Lane       string
	Key        string
	InstanceID uint64
	X          float64
	Tick       uint64
}
