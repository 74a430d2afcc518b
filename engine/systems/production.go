package systems

import (
	"github.com/1siamBot/tactics-engine/engine/core"
)

// CanAfford is the placement funds check
func CanAfford(treasury core.Treasury, cost int) bool {
	return treasury.CanAfford(cost)
}

// Income is what the player earns at the start of a player phase
func Income(w *core.World, rules Rules) int {
	return w.OwnedPoints(core.TeamPlayer)*rules.IncomeRate + rules.BaseIncome
}

// NearFriendlyPoint reports whether pos lies strictly inside the placement radius of a
// capture point owned by team.
func NearFriendlyPoint(w *core.World, pos core.Vec3, team core.Team, rules Rules) bool {
	for _, p := range w.Points() {
		if p.Owner == team && pos.GroundDistance(p.Position) < rules.PlacementRadius {
			return true
		}
	}
	return false
}

// Spawn adds a unit of kind for team at ground position (x, z), at the
// kind's elevation.
func Spawn(w *core.World, team core.Team, kind core.Kind, x, z float64) core.UnitID {
	stats := w.Kinds[kind]
	id := w.AddUnit(team, kind, core.Vec3{X: x, Y: stats.Height, Z: z})
	if w.Bus != nil {
		evt := core.EvtUnitPlaced
		if team == core.TeamEnemy {
			evt = core.EvtUnitSpawned
		}
		w.Bus.Emit(core.Event{Type: evt, Turn: w.Turn().Number, Payload: id})
	}
	return id
}
