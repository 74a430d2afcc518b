package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/1siamBot/tactics-engine/engine/script"
)

// World holds every unit and capture point of a session. Entities live in an
// id index; reads hand out value copies so callers always re-fetch by id
// instead of holding a pointer that may have gone stale.
//
// World does no locking. The session serializes every step.
type World struct {
	units    map[UnitID]*Unit
	order    []UnitID // insertion order for stable iteration
	points   map[PointID]*CapturePoint
	pointIDs []PointID
	treasury Treasury
	turn     TurnState
	nextID   UnitID
	Kinds    Catalog
	Bus      *EventBus
}

// NewWorld creates an empty world in turn 1, player phase
func NewWorld(kinds Catalog, treasury int) *World {
	if kinds == nil {
		kinds = DefaultCatalog()
	}
	return &World{
		units:    make(map[UnitID]*Unit),
		points:   make(map[PointID]*CapturePoint),
		treasury: Treasury(treasury),
		turn:     TurnState{Phase: PhasePlayer, Number: 1},
		Kinds:    kinds,
		Bus:      NewEventBus(),
	}
}

// ---- Queries ----

// UnitByID returns a copy of the unit, if present
func (w *World) UnitByID(id UnitID) (Unit, bool) {
	u, ok := w.units[id]
	if !ok {
		return Unit{}, false
	}
	return u.clone(), true
}

// clone returns u with its own script slice
func (u *Unit) clone() Unit {
	c := *u
	c.Script = u.Script.Clone()
	return c
}

// Units returns all units in insertion order
func (w *World) Units() []Unit {
	out := make([]Unit, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.units[id].clone())
	}
	return out
}

// UnitsByTeam returns the team's units in insertion order
func (w *World) UnitsByTeam(team Team) []Unit {
	var out []Unit
	for _, id := range w.order {
		if u := w.units[id]; u.Team == team {
			out = append(out, u.clone())
		}
	}
	return out
}

// UnitCount returns the number of units on a team
func (w *World) UnitCount(team Team) int {
	n := 0
	for _, u := range w.units {
		if u.Team == team {
			n++
		}
	}
	return n
}

// PointByID returns a copy of the capture point, if present
func (w *World) PointByID(id PointID) (CapturePoint, bool) {
	p, ok := w.points[id]
	if !ok {
		return CapturePoint{}, false
	}
	return *p, true
}

// Points returns all capture points in insertion order
func (w *World) Points() []CapturePoint {
	out := make([]CapturePoint, 0, len(w.pointIDs))
	for _, id := range w.pointIDs {
		out = append(out, *w.points[id])
	}
	return out
}

// OwnedPoints counts the capture points held by team
func (w *World) OwnedPoints(team Team) int {
	n := 0
	for _, p := range w.points {
		if p.Owner == team {
			n++
		}
	}
	return n
}

// NearestPoint returns the capture point closest to pos on the ground plane
// among those accepted by filter. A nil filter accepts every point.
func (w *World) NearestPoint(pos Vec3, filter func(CapturePoint) bool) (CapturePoint, bool) {
	var best CapturePoint
	bestDist := math.MaxFloat64
	found := false
	for _, id := range w.pointIDs {
		p := w.points[id]
		if filter != nil && !filter(*p) {
			continue
		}
		if d := pos.GroundDistance(p.Position); d < bestDist {
			best, bestDist, found = *p, d, true
		}
	}
	return best, found
}

// Treasury returns the current money pool
func (w *World) Treasury() Treasury { return w.treasury }

// Turn returns the current turn state
func (w *World) Turn() TurnState { return w.turn }

// ---- Mutations ----

// AddUnit creates a unit with full hit points and zero AP
func (w *World) AddUnit(team Team, kind Kind, pos Vec3) UnitID {
	stats, ok := w.Kinds[kind]
	if !ok {
		panic(fmt.Sprintf("core: unknown unit kind %q", kind))
	}
	w.nextID++
	id := w.nextID
	w.units[id] = &Unit{
		ID:       id,
		Team:     team,
		Kind:     kind,
		HP:       stats.MaxHP,
		MaxHP:    stats.MaxHP,
		Position: pos,
		MaxAP:    stats.MaxAP,
	}
	w.order = append(w.order, id)
	return id
}

// RestoreUnit inserts a unit with an explicit id, used when loading saves.
func (w *World) RestoreUnit(u Unit) {
	if _, dup := w.units[u.ID]; dup {
		panic(fmt.Sprintf("core: duplicate unit id %d", u.ID))
	}
	cp := u
	cp.Script = u.Script.Clone()
	w.units[u.ID] = &cp
	w.order = append(w.order, u.ID)
	w.nextID = max(w.nextID, u.ID)
}

// AddPoint registers a capture point
func (w *World) AddPoint(id PointID, pos Vec3, owner Team) {
	if _, dup := w.points[id]; dup {
		panic(fmt.Sprintf("core: duplicate capture point %d", id))
	}
	w.points[id] = &CapturePoint{ID: id, Position: pos, Owner: owner}
	w.pointIDs = append(w.pointIDs, id)
}

// ApplyDamage lowers hp, clamping at zero. The caller culls afterwards.
func (w *World) ApplyDamage(id UnitID, amount int) {
	u, ok := w.units[id]
	if !ok {
		return
	}
	u.HP = max(u.HP-amount, 0)
}

// SetPosition moves a unit
func (w *World) SetPosition(id UnitID, pos Vec3) {
	if u, ok := w.units[id]; ok {
		u.Position = pos
	}
}

// SpendAP consumes one action point
func (w *World) SpendAP(id UnitID) {
	if u, ok := w.units[id]; ok && u.AP > 0 {
		u.AP--
	}
}

// RestoreAP refills every unit of team to its maximum
func (w *World) RestoreAP(team Team) {
	for _, u := range w.units {
		if u.Team == team {
			u.AP = u.MaxAP
		}
	}
}

// SetScript replaces a unit's script wholesale
func (w *World) SetScript(id UnitID, s script.Script) {
	if u, ok := w.units[id]; ok {
		u.Script = s.Clone()
	}
}

// SetOwner transfers a capture point
func (w *World) SetOwner(id PointID, team Team) {
	if p, ok := w.points[id]; ok {
		p.Owner = team
	}
}

// DeductCost removes money. Going negative is a programming error: the
// caller must check CanAfford first.
func (w *World) DeductCost(amount int) {
	if !w.treasury.CanAfford(amount) {
		panic(fmt.Sprintf("core: treasury %d cannot cover %d", w.treasury, amount))
	}
	w.treasury -= Treasury(amount)
}

// Credit adds income to the treasury
func (w *World) Credit(amount int) {
	w.treasury += Treasury(amount)
}

// SetTurn is reserved for the turn engine
func (w *World) SetTurn(ts TurnState) {
	w.turn = ts
}

// RemoveDeadUnits culls every unit with hp <= 0 and returns their ids
func (w *World) RemoveDeadUnits() []UnitID {
	var dead []UnitID
	for _, id := range w.order {
		if w.units[id].HP <= 0 {
			dead = append(dead, id)
		}
	}
	if len(dead) == 0 {
		return nil
	}
	for _, id := range dead {
		delete(w.units, id)
	}
	w.order = slices.DeleteFunc(w.order, func(id UnitID) bool {
		_, ok := w.units[id]
		return !ok
	})
	if w.Bus != nil {
		for _, id := range dead {
			w.Bus.Emit(Event{Type: EvtUnitDestroyed, Turn: w.turn.Number, Payload: id})
		}
	}
	return dead
}

// Check panics if an invariant does not hold. Tests and debug builds call it
// after every step.
func (w *World) Check() {
	if w.treasury < 0 {
		panic(fmt.Sprintf("core: negative treasury %d", w.treasury))
	}
	for _, u := range w.units {
		if u.HP <= 0 || u.HP > u.MaxHP {
			panic(fmt.Sprintf("core: unit %d hp %d outside (0,%d]", u.ID, u.HP, u.MaxHP))
		}
		if u.AP < 0 || u.AP > u.MaxAP {
			panic(fmt.Sprintf("core: unit %d ap %d outside [0,%d]", u.ID, u.AP, u.MaxAP))
		}
	}
}
