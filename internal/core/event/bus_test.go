package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsAreDeliveredNextTick(t *testing.T) {
	b := NewBus()
	var got []SegmentPlaced
	Subscribe(b, func(ev SegmentPlaced) { got = append(got, ev) })

	Emit(b, SegmentPlaced{Lane: "main", Key: "flat", X: 0})
	Emit(b, SegmentPlaced{Lane: "main", Key: "gap", X: 2})
	assert.Equal(t, 2, b.Pending())
	assert.Zero(t, b.DispatchAll(), "nothing is readable before the swap")

	b.SwapBuffers()
	assert.Zero(t, b.Pending())
	assert.Equal(t, 2, b.DispatchAll())
	assert.Equal(t, []string{"flat", "gap"}, []string{got[0].Key, got[1].Key})

	b.SwapBuffers()
	assert.Zero(t, b.DispatchAll())
	assert.Len(t, got, 2)
}

func TestDispatchKeepsTypeOrder(t *testing.T) {
	b := NewBus()
	var seq []string
	Subscribe(b, func(SegmentPlaced) { seq = append(seq, "placed") })
	Subscribe(b, func(SegmentReclaimed) { seq = append(seq, "reclaimed") })

	Emit(b, SegmentReclaimed{Key: "a"})
	Emit(b, SegmentPlaced{Key: "b"})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, []string{"placed", "reclaimed"}, seq)
}

func TestEventsWithoutHandlersAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, SegmentReclaimed{Key: "a"})
	b.SwapBuffers()
	assert.Equal(t, 1, b.DispatchAll())
}
