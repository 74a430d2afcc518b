package core

import (
	"math"

	"github.com/1siamBot/tactics-engine/engine/script"
)

// ---- Position ----

// Vec3 is a continuous world position. Y is elevation and stays fixed per
// unit kind; X and Z span the ground plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the euclidean distance to another position
func (v Vec3) DistanceTo(o Vec3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// GroundDistance ignores elevation
func (v Vec3) GroundDistance(o Vec3) float64 {
	return math.Hypot(v.X-o.X, v.Z-o.Z)
}

// Ground projects v onto the ground plane
func (v Vec3) Ground() script.Point {
	return script.Point{X: v.X, Z: v.Z}
}

// AtGround returns a position at p with elevation y
func AtGround(p script.Point, y float64) Vec3 {
	return Vec3{X: p.X, Y: y, Z: p.Z}
}

// ---- Teams ----

// Team owns units and capture points. Units are never neutral.
type Team string

const (
	TeamPlayer  Team = "player"
	TeamEnemy   Team = "enemy"
	TeamNeutral Team = "neutral"
)

// Opponent returns the other fighting team
func (t Team) Opponent() Team {
	switch t {
	case TeamPlayer:
		return TeamEnemy
	case TeamEnemy:
		return TeamPlayer
	}
	return TeamNeutral
}

// ---- Unit kinds ----

// Kind identifies a unit type
type Kind string

const (
	KindInfantry Kind = "INFANTRY"
	KindTank     Kind = "TANK"
	KindHeli     Kind = "HELI"
)

// KindStats holds the fixed stats of a unit kind
type KindStats struct {
	Name   string  `mapstructure:"name"`
	Cost   int     `mapstructure:"cost"`
	MaxHP  int     `mapstructure:"hp"`
	Damage int     `mapstructure:"damage"`
	Range  float64 `mapstructure:"range"`
	Speed  float64 `mapstructure:"speed"`
	MaxAP  int     `mapstructure:"ap"`
	Height float64 `mapstructure:"height"` // fixed elevation
	Flying bool    `mapstructure:"flying"`
}

// Catalog maps kinds to their stats
type Catalog map[Kind]KindStats

// DefaultCatalog returns the stock unit roster
func DefaultCatalog() Catalog {
	return Catalog{
		KindInfantry: {Name: "Soldier", Cost: 50, MaxHP: 50, Damage: 15, Range: 4, Speed: 4, MaxAP: 2, Height: 0.5},
		KindTank:     {Name: "Tank", Cost: 150, MaxHP: 200, Damage: 60, Range: 6, Speed: 3, MaxAP: 2, Height: 0.8},
		KindHeli:     {Name: "Helicopter", Cost: 300, MaxHP: 120, Damage: 40, Range: 8, Speed: 6, MaxAP: 2, Height: 4, Flying: true},
	}
}

// Kinds returns the catalog keys in a stable order
func (c Catalog) Kinds() []Kind {
	order := []Kind{KindInfantry, KindTank, KindHeli}
	out := make([]Kind, 0, len(c))
	for _, k := range order {
		if _, ok := c[k]; ok {
			out = append(out, k)
		}
	}
	for k := range c {
		if k != KindInfantry && k != KindTank && k != KindHeli {
			out = append(out, k)
		}
	}
	return out
}

// ---- Entities ----

// UnitID identifies a unit for the lifetime of a session
type UnitID uint64

// PointID identifies a capture point
type PointID int

// Unit is a value snapshot of one unit
type Unit struct {
	ID       UnitID        `json:"id"`
	Team     Team          `json:"team"`
	Kind     Kind          `json:"kind"`
	HP       int           `json:"hp"`
	MaxHP    int           `json:"maxHp"`
	Position Vec3          `json:"position"`
	AP       int           `json:"ap"`
	MaxAP    int           `json:"maxAp"`
	Script   script.Script `json:"script"`
}

// Alive reports whether the unit still has hit points
func (u Unit) Alive() bool { return u.HP > 0 }

// Ratio returns remaining health as a fraction
func (u Unit) Ratio() float64 {
	if u.MaxHP <= 0 {
		return 0
	}
	return float64(u.HP) / float64(u.MaxHP)
}

// CapturePoint is a fixed objective granting income to its owner
type CapturePoint struct {
	ID       PointID `json:"id"`
	Position Vec3    `json:"position"`
	Owner    Team    `json:"owner"`
}
