package session

import (
	"context"
	"fmt"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

// Tile addresses a board cell
type Tile struct {
	X, Z int
}

// PlaceUnit deploys a new unit of kind on tile for team. The unit starts
// with no AP. Only the acting team may place, and only the player pays: the
// enemy economy is not tracked as money.
func (s *Session) PlaceUnit(team core.Team, kind core.Kind, tile Tile) (core.UnitID, error) {
	if s.Busy() {
		return 0, ErrBusy
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.world

	stats, ok := w.Kinds[kind]
	if !ok {
		return 0, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	if ts := w.Turn(); ts.Phase.Team() != team {
		return 0, fmt.Errorf("place %s unit in %s: %w", team, ts.Phase, ErrWrongPhase)
	}
	if !s.tiles.Walkable(tile.X, tile.Z) {
		return 0, fmt.Errorf("tile (%d,%d): %w", tile.X, tile.Z, ErrNotWalkable)
	}
	x, z := s.tiles.TileToWorld(tile.X, tile.Z)
	if !systems.NearFriendlyPoint(w, core.Vec3{X: x, Z: z}, team, s.opts.Rules) {
		return 0, fmt.Errorf("tile (%d,%d): %w", tile.X, tile.Z, ErrNotNearFriendlyBase)
	}
	if team == core.TeamPlayer {
		if !systems.CanAfford(w.Treasury(), stats.Cost) {
			return 0, fmt.Errorf("%s costs %d, have %d: %w", kind, stats.Cost, int(w.Treasury()), ErrInsufficientFunds)
		}
		w.DeductCost(stats.Cost)
	}

	id := systems.Spawn(w, team, kind, x, z)
	s.metrics.Spawn(context.Background(), string(team), string(kind))
	s.log.Info("unit placed", "unit", id, "kind", kind, "tile_x", tile.X, "tile_z", tile.Z,
		"treasury", int(w.Treasury()))
	return id, nil
}
