package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamera_RoundTrip(t *testing.T) {
	c := NewCamera(800, 600)
	sx, sy := c.WorldToScreen(0, 0)
	assert.Equal(t, float32(400), sx)
	assert.Equal(t, float32(300), sy)

	sx, sy = c.WorldToScreen(-10, 5)
	assert.Equal(t, float32(400-160), sx)
	assert.Equal(t, float32(300+80), sy)

	wx, wz := c.ScreenToWorld(240, 380)
	assert.InDelta(t, -10, wx, 1e-9)
	assert.InDelta(t, 5, wz, 1e-9)
}

func TestCamera_ZoomAtKeepsPointFixed(t *testing.T) {
	c := NewCamera(800, 600)
	before, beforeZ := c.ScreenToWorld(100, 100)
	c.ZoomAt(0.5, 100, 100)
	after, afterZ := c.ScreenToWorld(100, 100)
	assert.InDelta(t, before, after, 1e-9)
	assert.InDelta(t, beforeZ, afterZ, 1e-9)
	assert.Equal(t, 1.5, c.Zoom)

	c.SetZoom(10)
	assert.Equal(t, c.MaxZoom, c.Zoom)
}

func TestCamera_Pan(t *testing.T) {
	c := NewCamera(800, 600)
	c.Pan(32, -16)
	assert.InDelta(t, 2, c.X, 1e-9)
	assert.InDelta(t, -1, c.Z, 1e-9)
	assert.Equal(t, float32(32), c.Length(2))
}
