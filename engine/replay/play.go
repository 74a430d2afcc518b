package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/1siamBot/tactics-engine/engine/ai"
	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/session"
)

// ErrDiverged means playback produced a different match than the recording
var ErrDiverged = errors.New("replay diverged")

// Seed installs the enemy generator a journal with this seed expects.
func Seed(opts *session.Options, seed uint64) {
	if opts.AI == nil {
		def := ai.DefaultOptions()
		opts.AI = &def
	}
	opts.AI.Rand = rand.New(rand.NewPCG(seed, seed))
}

// Play applies the journal to a fresh session built with Seed. Every run is
// drained to completion, so a run that was cut short by ending the turn
// plays out further than it did live. The callback, if set, sees each
// action as it is applied along with any effects it produced.
func Play(ctx context.Context, sess *session.Session, j *Journal, each func(Action, []interp.Effect)) error {
	for i, a := range j.Actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		turn := sess.Snapshot().Turn.Number
		if int(a.Turn) != turn {
			return fmt.Errorf("%w: action %d recorded on turn %d, now turn %d", ErrDiverged, i, a.Turn, turn)
		}
		fx, err := apply(ctx, sess, a)
		if err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Type, err)
		}
		if each != nil {
			each(a, fx)
		}
	}
	return nil
}

func apply(ctx context.Context, sess *session.Session, a Action) ([]interp.Effect, error) {
	switch a.Type {
	case ActPlace:
		id, err := sess.PlaceUnit(core.TeamPlayer, core.Kind(a.Param), session.Tile{X: int(a.TileX), Z: int(a.TileZ)})
		if err != nil {
			return nil, err
		}
		if id != a.Unit {
			return nil, fmt.Errorf("%w: placed unit %d, recorded %d", ErrDiverged, id, a.Unit)
		}
		return nil, nil
	case ActRun:
		var sc script.Script
		if err := json.Unmarshal([]byte(a.Param), &sc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadJournal, err)
		}
		if err := sess.SetScript(a.Unit, sc); err != nil {
			return nil, err
		}
		effects, err := sess.RunScript(ctx, a.Unit)
		if err != nil {
			return nil, err
		}
		var fx []interp.Effect
		for e := range effects {
			fx = append(fx, e)
		}
		return fx, nil
	case ActEndTurn:
		return sess.EndTurn(ctx)
	}
	return nil, fmt.Errorf("%w: action type %d", ErrBadJournal, a.Type)
}
