package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScrollCameraAdvances(t *testing.T) {
	cam := NewScrollCamera(2, 10, 4)
	cam.Advance(500 * time.Millisecond)

	start, end := cam.VisibleInterval()
	assert.Equal(t, 4.0, start)
	assert.Equal(t, 14.0, end)

	cam.SetX(-1)
	assert.Equal(t, -1.0, cam.X())
}

func TestViewportFunc(t *testing.T) {
	vp := ViewportFunc(func() (float64, float64) { return 1, 2 })
	s, e := vp.VisibleInterval()
	assert.Equal(t, 1.0, s)
	assert.Equal(t, 2.0, e)
}
