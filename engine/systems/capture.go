package systems

import "github.com/1siamBot/tactics-engine/engine/core"

// Rules holds the fixed constants shared by every actor so the AI and the
// interpreter resolve moves and captures identically.
type Rules struct {
	CaptureRadius    float64
	MoveBudgetFactor float64
	PlacementRadius  float64
	BaseIncome       int
	IncomeRate       int
}

// DefaultRules returns the stock balance
func DefaultRules() Rules {
	return Rules{
		CaptureRadius:    4,
		MoveBudgetFactor: 2,
		PlacementRadius:  10,
		BaseIncome:       100,
		IncomeRate:       150,
	}
}

// TryCapture hands every capture point within radius of pos (ground plane,
// strictly closer) to team. Points already owned by team are left alone.
// Returns the transfers that happened.
func TryCapture(w *core.World, pos core.Vec3, team core.Team, radius float64) []core.Capture {
	var changed []core.Capture
	for _, p := range w.Points() {
		if pos.GroundDistance(p.Position) >= radius || p.Owner == team {
			continue
		}
		w.SetOwner(p.ID, team)
		c := core.Capture{Point: p.ID, From: p.Owner, To: team}
		changed = append(changed, c)
		if w.Bus != nil {
			w.Bus.Emit(core.Event{Type: core.EvtPointCaptured, Turn: w.Turn().Number, Payload: c})
		}
	}
	return changed
}
