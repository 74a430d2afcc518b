package render

import "math"

// Camera maps the world ground plane (X right, Z down) to screen pixels
type Camera struct {
	X, Z    float64 // world point at the screen centre
	Scale   float64 // pixels per world unit
	MinZoom float64
	MaxZoom float64
	Zoom    float64
	ScreenW int
	ScreenH int
	Speed   float64 // pan speed (pixels per second)
}

// NewCamera creates a camera centred on the origin
func NewCamera(screenW, screenH int) *Camera {
	return &Camera{
		Scale:   16,
		Zoom:    1.0,
		MinZoom: 0.5,
		MaxZoom: 3.0,
		ScreenW: screenW,
		ScreenH: screenH,
		Speed:   500,
	}
}

func (c *Camera) ppu() float64 { return c.Scale * c.Zoom }

// Pan moves the camera by a pixel delta
func (c *Camera) Pan(dx, dy float64) {
	c.X += dx / c.ppu()
	c.Z += dy / c.ppu()
}

// SetZoom sets zoom level with clamping
func (c *Camera) SetZoom(z float64) {
	c.Zoom = math.Max(c.MinZoom, math.Min(c.MaxZoom, z))
}

// ZoomAt zooms keeping the world point under (sx, sy) fixed
func (c *Camera) ZoomAt(delta float64, sx, sy int) {
	wx, wz := c.ScreenToWorld(sx, sy)
	c.SetZoom(c.Zoom + delta)
	wx2, wz2 := c.ScreenToWorld(sx, sy)
	c.X += wx - wx2
	c.Z += wz - wz2
}

// CenterOn centres the camera on a world position
func (c *Camera) CenterOn(wx, wz float64) {
	c.X, c.Z = wx, wz
}

// WorldToScreen converts a ground position to screen pixels
func (c *Camera) WorldToScreen(wx, wz float64) (float32, float32) {
	sx := (wx-c.X)*c.ppu() + float64(c.ScreenW)/2
	sy := (wz-c.Z)*c.ppu() + float64(c.ScreenH)/2
	return float32(sx), float32(sy)
}

// ScreenToWorld converts screen pixels to a ground position
func (c *Camera) ScreenToWorld(sx, sy int) (float64, float64) {
	wx := (float64(sx)-float64(c.ScreenW)/2)/c.ppu() + c.X
	wz := (float64(sy)-float64(c.ScreenH)/2)/c.ppu() + c.Z
	return wx, wz
}

// Length converts a world distance to pixels
func (c *Camera) Length(d float64) float32 {
	return float32(d * c.ppu())
}
