package interp

import (
	"fmt"

	"github.com/1siamBot/tactics-engine/engine/core"
)

// State of one script run
type State uint32

const (
	Running State = iota
	Suspended
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Suspended:
		return "SUSPENDED"
	case Halted:
		return "HALTED"
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

// EffectType tags an Effect
type EffectType string

const (
	EffectMoved    EffectType = "moved"
	EffectAttacked EffectType = "attacked"
	EffectCaptured EffectType = "captured"
	EffectHalted   EffectType = "halted"
)

// HaltReason says why a run stopped
type HaltReason string

const (
	Exhausted HaltReason = "exhausted"
	UnitGone  HaltReason = "unitGone"
	Cancelled HaltReason = "cancelled"

	// consumer stopped pulling effects; never reported
	abandoned HaltReason = "abandoned"
)

// Effect is one visible consequence of a script step, consumed by the
// renderer for animation.
type Effect struct {
	Type EffectType
	Unit core.UnitID

	// moved, attacked
	From core.Vec3
	To   core.Vec3

	// attacked
	Target core.UnitID
	Damage int
	Killed bool

	// captured
	Capture core.Capture

	// halted
	Reason HaltReason
}

func (e Effect) String() string {
	switch e.Type {
	case EffectMoved:
		return fmt.Sprintf("unit %d moved to (%.1f, %.1f)", e.Unit, e.To.X, e.To.Z)
	case EffectAttacked:
		return fmt.Sprintf("unit %d hit %d for %d (killed=%t)", e.Unit, e.Target, e.Damage, e.Killed)
	case EffectCaptured:
		return fmt.Sprintf("unit %d captured point %d from %s", e.Unit, e.Capture.Point, e.Capture.From)
	case EffectHalted:
		return fmt.Sprintf("unit %d halted: %s", e.Unit, e.Reason)
	}
	return string(e.Type)
}
