package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/session"
)

func TestHUD_Lines(t *testing.T) {
	snap := session.Snapshot{
		Units: []core.Unit{{ID: 4, Kind: core.KindTank, HP: 120, MaxHP: 200, AP: 1, MaxAP: 2}},
		Points: []core.CapturePoint{
			{ID: 1, Owner: core.TeamPlayer},
			{ID: 2, Owner: core.TeamEnemy},
			{ID: 3, Owner: core.TeamPlayer},
		},
		Treasury:   750,
		Turn:       core.TurnState{Number: 3, Phase: core.PhaseEnemy},
		LastIncome: 300,
		Selected:   4,
		HasSel:     true,
	}
	h := &HUD{Kind: core.KindHeli, Message: "saved"}
	lines := h.Lines(snap, core.DefaultCatalog(), "tile (2,3) GRASS")

	assert.Equal(t, "Turn 3  ENEMY PHASE", lines[0])
	assert.Equal(t, "Treasury $750  (last income $300)", lines[1])
	assert.Equal(t, "Points  you 2  enemy 1  neutral 0", lines[2])
	assert.Equal(t, "Place: Helicopter ($300)", lines[3])
	assert.Equal(t, "Selected #4 Tank  hp 120/200  ap 1/2  script 0", lines[4])
	assert.Equal(t, "tile (2,3) GRASS", lines[5])
	assert.Equal(t, "saved", lines[len(lines)-1])
}
