package world

// placementRecord holds the active segments in generation order. Segments
// are contiguous, so the record is a deque indexed by slot: entry i sits at
// slot base+i. Lookup by slot is O(1) with no float comparisons.
type placementRecord struct {
	base  int64
	items []*Segment
}

func (r *placementRecord) len() int { return len(r.items) }

// push appends seg at slot. slot must be the next slot after the last entry,
// or any slot when the record is empty.
func (r *placementRecord) push(slot int64, seg *Segment) {
	if len(r.items) == 0 {
		r.base = slot
	}
	r.items = append(r.items, seg)
}

// at returns the segment at slot, or nil.
func (r *placementRecord) at(slot int64) *Segment {
	i := slot - r.base
	if i < 0 || i >= int64(len(r.items)) {
		return nil
	}
	return r.items[i]
}

// front returns the leftmost segment if it sits at slot, without removing it.
func (r *placementRecord) front(slot int64) *Segment {
	if len(r.items) == 0 || r.base != slot {
		return nil
	}
	return r.items[0]
}

// popFront removes the leftmost segment if it sits at slot.
func (r *placementRecord) popFront(slot int64) *Segment {
	if len(r.items) == 0 || r.base != slot {
		return nil
	}
	seg := r.items[0]
	r.items[0] = nil
	r.items = r.items[1:]
	r.base++
	if len(r.items) == 0 {
		r.items = r.items[:0:0]
	}
	return seg
}

func (r *placementRecord) snapshot() []*Segment {
	out := make([]*Segment, len(r.items))
	copy(out, r.items)
	return out
}
