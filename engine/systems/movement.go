package systems

import (
	"math"

	"github.com/1siamBot/tactics-engine/engine/core"
)

// WithinMoveBudget reports whether one MOVE command can cover from -> to.
// Elevation never changes, so the check is effectively on the ground plane.
func WithinMoveBudget(from, to core.Vec3, speed, factor float64) bool {
	to.Y = from.Y
	return from.DistanceTo(to) <= speed*factor
}

// StepToward moves exactly dist along the ground-plane line from -> to,
// keeping elevation. If from and to coincide the unit holds position.
// There is no path-finding: terrain is not consulted.
func StepToward(from, to core.Vec3, dist float64) core.Vec3 {
	dx := to.X - from.X
	dz := to.Z - from.Z
	l := math.Hypot(dx, dz)
	if l == 0 {
		return from
	}
	return core.Vec3{
		X: from.X + dx/l*dist,
		Y: from.Y,
		Z: from.Z + dz/l*dist,
	}
}

// Relocate commits a move and captures at the destination.
func Relocate(w *core.World, id core.UnitID, to core.Vec3, rules Rules) []core.Capture {
	u, ok := w.UnitByID(id)
	if !ok {
		return nil
	}
	w.SetPosition(id, to)
	w.SpendAP(id)
	if w.Bus != nil {
		w.Bus.Emit(core.Event{Type: core.EvtUnitMoved, Turn: w.Turn().Number, Payload: id})
	}
	return TryCapture(w, to, u.Team, rules.CaptureRadius)
}
