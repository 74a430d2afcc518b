package systems

import (
	"math"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/script"
)

// Outcome of a resolved attack
type Outcome uint8

const (
	OutOfRange Outcome = iota
	Hit
	NoAP
	Missing // attacker or target is gone
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case NoAP:
		return "no ap"
	case Missing:
		return "missing"
	}
	return "out of range"
}

// AttackResult describes what ResolveAttack did
type AttackResult struct {
	Outcome  Outcome
	Attacker core.UnitID
	Target   core.UnitID
	Damage   int
	Killed   bool
	From     core.Vec3
	To       core.Vec3
}

// IsInRange checks the attacker's weapon reach in 3-D
func IsInRange(attacker, target core.Unit, kinds core.Catalog) bool {
	return attacker.Position.DistanceTo(target.Position) <= kinds[attacker.Kind].Range
}

// ResolveAttack re-reads both units and, if the target is in range, applies
// the attacker's damage and spends one AP. The caller culls the dead.
func ResolveAttack(w *core.World, attackerID, targetID core.UnitID) AttackResult {
	res := AttackResult{Attacker: attackerID, Target: targetID}
	a, ok := w.UnitByID(attackerID)
	if !ok || !a.Alive() {
		res.Outcome = Missing
		return res
	}
	t, ok := w.UnitByID(targetID)
	if !ok || !t.Alive() {
		res.Outcome = Missing
		return res
	}
	res.From, res.To = a.Position, t.Position
	if a.AP <= 0 {
		res.Outcome = NoAP
		return res
	}
	if !IsInRange(a, t, w.Kinds) {
		res.Outcome = OutOfRange
		return res
	}

	dmg := w.Kinds[a.Kind].Damage
	w.ApplyDamage(targetID, dmg)
	w.SpendAP(attackerID)

	res.Outcome = Hit
	res.Damage = dmg
	res.Killed = t.HP-dmg <= 0
	return res
}

// Strike resolves an attack and, on a hit, culls the dead and emits the
// tracer and attack events in the same step. Both the interpreter and the AI
// attack through here.
func Strike(w *core.World, attackerID, targetID core.UnitID) AttackResult {
	res := ResolveAttack(w, attackerID, targetID)
	if res.Outcome != Hit {
		return res
	}
	w.RemoveDeadUnits()
	if w.Bus != nil {
		turn := w.Turn().Number
		w.Bus.Emit(core.Event{Type: core.EvtUnitAttack, Turn: turn, Payload: res})
		w.Bus.Emit(core.Event{Type: core.EvtTracer, Turn: turn, Payload: core.Tracer{
			Attacker: attackerID,
			Target:   targetID,
			Start:    res.From,
			End:      res.To,
		}})
	}
	return res
}

// SelectTarget picks one candidate by policy.
//
//	closest  minimum 3-D distance, ties go to the first candidate
//	weakest  minimum current hp, ties go to the lowest id
//	base     the first candidate; a coarse stand-in, there is no base entity
//
// Unknown policies select nothing.
func SelectTarget(unit core.Unit, candidates []core.Unit, policy script.Policy) (core.Unit, bool) {
	if len(candidates) == 0 {
		return core.Unit{}, false
	}
	switch policy {
	case script.PolicyClosest:
		return Nearest(unit.Position, candidates)
	case script.PolicyWeakest:
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.HP < best.HP || (c.HP == best.HP && c.ID < best.ID) {
				best = c
			}
		}
		return best, true
	case script.PolicyBase:
		return candidates[0], true
	}
	return core.Unit{}, false
}

// Nearest returns the candidate closest to pos, first one winning ties
func Nearest(pos core.Vec3, candidates []core.Unit) (core.Unit, bool) {
	var best core.Unit
	bestDist := math.MaxFloat64
	found := false
	for _, c := range candidates {
		if d := pos.DistanceTo(c.Position); d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

// Enemies returns the live units opposing team
func Enemies(w *core.World, team core.Team) []core.Unit {
	var out []core.Unit
	for _, u := range w.UnitsByTeam(team.Opponent()) {
		if u.Alive() {
			out = append(out, u)
		}
	}
	return out
}
