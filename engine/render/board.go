// Package render draws a session snapshot top-down with ebiten vector
// primitives. It only reads state.
package render

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/maplib"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/session"
)

// TerrainColors maps terrain types to fill colours
var TerrainColors = map[maplib.TerrainType]color.RGBA{
	maplib.TerrainGrass:    {76, 175, 80, 255},
	maplib.TerrainWater:    {33, 150, 243, 255},
	maplib.TerrainMountain: {121, 85, 72, 255},
	maplib.TerrainBase:     {158, 158, 158, 255},
}

// TeamColors maps teams to unit and point colours
var TeamColors = map[core.Team]color.RGBA{
	core.TeamPlayer:  {60, 120, 255, 255},
	core.TeamEnemy:   {230, 60, 50, 255},
	core.TeamNeutral: {220, 220, 220, 255},
}

// Board renders the map and everything on it
type Board struct {
	Camera *Camera
}

// NewBoard creates a board renderer for a screen size
func NewBoard(screenW, screenH int) *Board {
	return &Board{Camera: NewCamera(screenW, screenH)}
}

// HoverTile returns the tile under a screen position
func (b *Board) HoverTile(tm *maplib.TileMap, sx, sy int) (int, int) {
	wx, wz := b.Camera.ScreenToWorld(sx, sy)
	return tm.WorldToTile(wx, wz)
}

// DrawMap renders every tile
func (b *Board) DrawMap(screen *ebiten.Image, tm *maplib.TileMap) {
	size := b.Camera.Length(maplib.TileSize)
	for _, t := range tm.Tiles {
		wx, wz := tm.TileToWorld(t.X, t.Z)
		sx, sy := b.Camera.WorldToScreen(wx-maplib.TileSize/2, wz-maplib.TileSize/2)
		clr, ok := TerrainColors[t.Terrain]
		if !ok {
			clr = color.RGBA{255, 0, 255, 255}
		}
		vector.DrawFilledRect(screen, sx, sy, size, size, clr, false)
		vector.StrokeRect(screen, sx, sy, size, size, 1, color.RGBA{0, 0, 0, 60}, false)
	}
}

// DrawHover outlines a tile, green when a unit could be placed there
func (b *Board) DrawHover(screen *ebiten.Image, tm *maplib.TileMap, x, z int, ok bool) {
	if !tm.InBounds(x, z) {
		return
	}
	wx, wz := tm.TileToWorld(x, z)
	sx, sy := b.Camera.WorldToScreen(wx-maplib.TileSize/2, wz-maplib.TileSize/2)
	size := b.Camera.Length(maplib.TileSize)
	clr := color.RGBA{255, 80, 80, 200}
	if ok {
		clr = color.RGBA{80, 255, 80, 200}
	}
	vector.StrokeRect(screen, sx, sy, size, size, 2, clr, false)
}

// DrawPoints renders capture points with their capture radius
func (b *Board) DrawPoints(screen *ebiten.Image, points []core.CapturePoint, radius float64) {
	for _, p := range points {
		sx, sy := b.Camera.WorldToScreen(p.Position.X, p.Position.Z)
		clr := TeamColors[p.Owner]
		ring := clr
		ring.A = 120
		vector.StrokeCircle(screen, sx, sy, b.Camera.Length(radius), 1, ring, false)
		vector.DrawFilledRect(screen, sx-6, sy-6, 12, 12, clr, false)
		vector.StrokeRect(screen, sx-6, sy-6, 12, 12, 1, color.Black, false)
	}
}

// DrawUnits renders units as team-coloured discs with hp bars. Flying units
// get a shadow offset by their elevation.
func (b *Board) DrawUnits(screen *ebiten.Image, snap session.Snapshot, kinds core.Catalog) {
	for _, u := range snap.Units {
		sx, sy := b.Camera.WorldToScreen(u.Position.X, u.Position.Z)
		stats := kinds[u.Kind]
		r := float32(7)
		switch u.Kind {
		case core.KindTank:
			r = 10
		case core.KindHeli:
			r = 9
		}
		if stats.Flying {
			vector.DrawFilledCircle(screen, sx+3, sy+3, r, color.RGBA{0, 0, 0, 90}, false)
			sy -= float32(u.Position.Y)
		}

		if snap.HasSel && snap.Selected == u.ID {
			vector.DrawFilledCircle(screen, sx, sy, r+6, color.RGBA{255, 255, 0, 60}, false)
			vector.StrokeCircle(screen, sx, sy, r+6, 2, color.RGBA{255, 255, 0, 220}, false)
			vector.StrokeCircle(screen, sx, sy, b.Camera.Length(stats.Range), 1, color.RGBA{255, 255, 255, 60}, false)
		}
		vector.DrawFilledCircle(screen, sx, sy, r, TeamColors[u.Team], false)
		vector.StrokeCircle(screen, sx, sy, r, 1, color.RGBA{255, 255, 255, 180}, false)

		barW := float32(24)
		barX := sx - barW/2
		barY := sy - r - 7
		vector.DrawFilledRect(screen, barX, barY, barW, 3, color.RGBA{40, 40, 40, 200}, false)
		vector.DrawFilledRect(screen, barX, barY, barW*float32(u.Ratio()), 3, hpColor(u.Ratio()), false)
		for i := range u.MaxAP {
			clr := color.RGBA{80, 80, 80, 255}
			if i < u.AP {
				clr = color.RGBA{255, 235, 59, 255}
			}
			vector.DrawFilledRect(screen, barX+float32(i)*5, barY+4, 4, 2, clr, false)
		}
	}
}

func hpColor(ratio float64) color.RGBA {
	switch {
	case ratio > 0.6:
		return color.RGBA{0, 200, 0, 255}
	case ratio > 0.3:
		return color.RGBA{230, 200, 0, 255}
	}
	return color.RGBA{220, 40, 40, 255}
}

// DrawPreview draws the previewed path of a script, red where a move is out
// of budget.
func (b *Board) DrawPreview(screen *ebiten.Image, steps []script.PreviewStep) {
	for i, st := range steps {
		sx, sy := b.Camera.WorldToScreen(st.At.X, st.At.Z)
		switch st.Type {
		case script.StepMove:
			prev := steps[i-1].At
			px, py := b.Camera.WorldToScreen(prev.X, prev.Z)
			clr := color.RGBA{255, 255, 255, 160}
			if !st.Valid {
				clr = color.RGBA{255, 60, 60, 200}
			}
			vector.StrokeLine(screen, px, py, sx, sy, 2, clr, false)
			vector.DrawFilledCircle(screen, sx, sy, 3, clr, false)
		case script.StepAttack:
			vector.StrokeCircle(screen, sx, sy, 6, 2, color.RGBA{255, 152, 0, 220}, false)
		}
	}
}

// DrawTracers draws live projectiles
func (b *Board) DrawTracers(screen *ebiten.Image, tr *Tracers) {
	for _, t := range tr.Live() {
		x0, y0 := b.Camera.WorldToScreen(t.Start.X, t.Start.Z)
		x1, y1 := b.Camera.WorldToScreen(t.End.X, t.End.Z)
		// head travels from start to end over the tracer's life
		f := float32(math.Min(1, t.Progress))
		hx, hy := x0+(x1-x0)*f, y0+(y1-y0)*f
		vector.StrokeLine(screen, x0, y0, hx, hy, 2, color.RGBA{255, 235, 59, 220}, false)
		vector.DrawFilledCircle(screen, hx, hy, 3, color.RGBA{255, 255, 255, 255}, false)
	}
}
