package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/session"
)

var hudFace = text.NewGoXFace(basicfont.Face7x13)

// HUD draws the status panel and a transient message line.
type HUD struct {
	Message string
	Kind    core.Kind // kind placed on click
}

// Lines returns the panel text for a snapshot. Split out so it can be
// checked without a GPU.
func (h *HUD) Lines(snap session.Snapshot, kinds core.Catalog, hover string) []string {
	lines := []string{
		fmt.Sprintf("Turn %d  %s", snap.Turn.Number, phaseLabel(snap.Turn.Phase)),
		fmt.Sprintf("Treasury $%d  (last income $%d)", int(snap.Treasury), snap.LastIncome),
	}
	owned := map[core.Team]int{}
	for _, p := range snap.Points {
		owned[p.Owner]++
	}
	lines = append(lines, fmt.Sprintf("Points  you %d  enemy %d  neutral %d",
		owned[core.TeamPlayer], owned[core.TeamEnemy], owned[core.TeamNeutral]))

	stats := kinds[h.Kind]
	lines = append(lines, fmt.Sprintf("Place: %s ($%d)", stats.Name, stats.Cost))
	if snap.HasSel {
		for _, u := range snap.Units {
			if u.ID == snap.Selected {
				lines = append(lines, fmt.Sprintf("Selected #%d %s  hp %d/%d  ap %d/%d  script %d",
					u.ID, kinds[u.Kind].Name, u.HP, u.MaxHP, u.AP, u.MaxAP, u.Script.Len()))
			}
		}
	}
	if hover != "" {
		lines = append(lines, hover)
	}
	if snap.Busy {
		lines = append(lines, "...")
	}
	lines = append(lines,
		"[1/2/3] kind  [LClick] place/select  [R] run  [E] end turn",
		"[F5] save  [F9] load  [Esc] deselect  [WASD] pan  [Scroll] zoom")
	if h.Message != "" {
		lines = append(lines, h.Message)
	}
	return lines
}

// Draw renders the panel in the top-left corner
func (h *HUD) Draw(screen *ebiten.Image, snap session.Snapshot, kinds core.Catalog, hover string) {
	lines := h.Lines(snap, kinds, hover)
	const lineH = 15
	vector.DrawFilledRect(screen, 4, 4, 460, float32(len(lines)*lineH+8), color.RGBA{0, 0, 0, 160}, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(10, 8)
	op.LineSpacing = lineH
	op.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, strings.Join(lines, "\n"), hudFace, op)
}

func phaseLabel(p core.Phase) string {
	if p == core.PhaseEnemy {
		return "ENEMY PHASE"
	}
	return "PLAYER PHASE"
}
