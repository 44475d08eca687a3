package world

import "time"

// Viewport reports the currently visible along-axis interval. Queried once
// per tick.
type Viewport interface {
	VisibleInterval() (start, end float64)
}

// ViewportFunc adapts a plain function to Viewport.
type ViewportFunc func() (start, end float64)

func (f ViewportFunc) VisibleInterval() (float64, float64) { return f() }

// ScrollCamera is a fixed-width viewport that scrolls right at a constant
// speed, standing in for a camera that follows the runner.
type ScrollCamera struct {
	x     float64
	width float64
	speed float64 // units per second
}

func NewScrollCamera(startX, width, speed float64) *ScrollCamera {
	return &ScrollCamera{x: startX, width: width, speed: speed}
}

// Advance moves the camera by speed*dt.
func (c *ScrollCamera) Advance(dt time.Duration) {
	c.x += c.speed * dt.Seconds()
}

// SetX jumps the camera's left edge to x.
func (c *ScrollCamera) SetX(x float64) { c.x = x }

func (c *ScrollCamera) X() float64 { return c.x }

func (c *ScrollCamera) VisibleInterval() (float64, float64) {
	return c.x, c.x + c.width
}
