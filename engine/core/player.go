package core

import "fmt"

// Treasury is the player's money pool. The enemy economy is not tracked as
// currency, only as unit counts.
type Treasury int

// CanAfford checks whether cost fits in the pool
func (t Treasury) CanAfford(cost int) bool {
	return int(t) >= cost
}

// Phase is the half-turn in which one team acts
type Phase string

const (
	PhasePlayer Phase = "PLAYER_PHASE"
	PhaseEnemy  Phase = "ENEMY_PHASE"
)

// Team returns the team acting during the phase
func (p Phase) Team() Team {
	if p == PhaseEnemy {
		return TeamEnemy
	}
	return TeamPlayer
}

// TurnState is written only by the turn engine
type TurnState struct {
	Phase  Phase `json:"phase"`
	Number int   `json:"number"`
}

func (ts TurnState) String() string {
	return fmt.Sprintf("turn %d %s", ts.Number, ts.Phase)
}
