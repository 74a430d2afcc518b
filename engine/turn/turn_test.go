package turn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

type stubPass struct {
	calls int
	err   error
	fx    []interp.Effect
	seen  []core.Phase
	world *core.World
}

func (s *stubPass) TakeTurn(context.Context) ([]interp.Effect, error) {
	s.calls++
	s.seen = append(s.seen, s.world.Turn().Phase)
	return s.fx, s.err
}

func newWorld() *core.World {
	w := core.NewWorld(nil, 500)
	w.AddPoint(1, core.Vec3{X: -15, Z: -15}, core.TeamPlayer)
	w.AddPoint(2, core.Vec3{X: 15, Z: 15}, core.TeamEnemy)
	w.AddPoint(3, core.Vec3{}, core.TeamNeutral)
	return w
}

func TestEndPlayerPhase_RefillsEnemyAP(t *testing.T) {
	w := newWorld()
	e := systems.Spawn(w, core.TeamEnemy, core.KindInfantry, 12, 12)
	p := systems.Spawn(w, core.TeamPlayer, core.KindInfantry, -12, -12)
	eng := New(w, Options{})

	require.NoError(t, eng.EndPlayerPhase(context.Background()))
	assert.Equal(t, core.TurnState{Phase: core.PhaseEnemy, Number: 1}, w.Turn())

	ue, _ := w.UnitByID(e)
	up, _ := w.UnitByID(p)
	assert.Equal(t, ue.MaxAP, ue.AP)
	assert.Equal(t, 0, up.AP)

	err := eng.EndPlayerPhase(context.Background())
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestBeginPlayerPhase(t *testing.T) {
	w := newWorld()
	p := systems.Spawn(w, core.TeamPlayer, core.KindTank, -12, -12)
	eng := New(w, Options{})

	_, err := eng.BeginPlayerPhase(context.Background())
	require.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, eng.EndPlayerPhase(context.Background()))
	income, err := eng.BeginPlayerPhase(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 250, income, "one owned point at 150 plus base 100")
	assert.Equal(t, core.Treasury(750), w.Treasury())
	assert.Equal(t, core.TurnState{Phase: core.PhasePlayer, Number: 2}, w.Turn())
	assert.Equal(t, 250, eng.LastIncome())

	u, _ := w.UnitByID(p)
	assert.Equal(t, u.MaxAP, u.AP)
}

func TestTreasuryOverTurns(t *testing.T) {
	tests := []struct {
		name  string
		owned int
		turns int
		want  core.Treasury
	}{
		{"no points", 0, 3, 500 + 3*100},
		{"one point", 1, 4, 500 + 4*250},
		{"all points", 3, 2, 500 + 2*550},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := core.NewWorld(nil, 500)
			for i := range 3 {
				owner := core.TeamNeutral
				if i < tt.owned {
					owner = core.TeamPlayer
				}
				w.AddPoint(core.PointID(i+1), core.Vec3{X: float64(i * 10)}, owner)
			}
			eng := New(w, Options{})
			pass := &stubPass{world: w}
			for range tt.turns {
				_, err := eng.Cycle(context.Background(), pass)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, w.Treasury())
			assert.Equal(t, 1+tt.turns, w.Turn().Number)
			assert.Equal(t, tt.turns, pass.calls)
		})
	}
}

func TestCycle_PassRunsInEnemyPhase(t *testing.T) {
	w := newWorld()
	eng := New(w, Options{})
	pass := &stubPass{world: w, fx: []interp.Effect{{Type: interp.EffectMoved, Unit: 7}}}

	fx, err := eng.Cycle(context.Background(), pass)
	require.NoError(t, err)
	assert.Equal(t, pass.fx, fx)
	assert.Equal(t, []core.Phase{core.PhaseEnemy}, pass.seen)
	assert.Equal(t, core.PhasePlayer, eng.Phase())
}

func TestCycle_FailedPassStaysInEnemyPhase(t *testing.T) {
	w := newWorld()
	e := systems.Spawn(w, core.TeamEnemy, core.KindInfantry, 12, 12)
	eng := New(w, Options{})
	boom := errors.New("boom")
	pass := &stubPass{world: w, err: boom}

	_, err := eng.Cycle(context.Background(), pass)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, core.PhaseEnemy, eng.Phase())
	assert.Equal(t, core.Treasury(500), w.Treasury())

	// spend one AP; the resumed pass must not refill it
	w.SpendAP(e)
	pass.err = nil
	_, err = eng.Cycle(context.Background(), pass)
	require.NoError(t, err)
	assert.Equal(t, core.PhasePlayer, eng.Phase())
	u, _ := w.UnitByID(e)
	assert.Equal(t, u.MaxAP-1, u.AP)
}

func TestPhaseEvents(t *testing.T) {
	w := newWorld()
	var phases []core.TurnState
	var incomes []int
	w.Bus.On(core.EvtPhaseChanged, func(e core.Event) { phases = append(phases, e.Payload.(core.TurnState)) })
	w.Bus.On(core.EvtIncome, func(e core.Event) { incomes = append(incomes, e.Payload.(int)) })

	eng := New(w, Options{})
	_, err := eng.Cycle(context.Background(), &stubPass{world: w})
	require.NoError(t, err)
	w.Bus.Dispatch()

	assert.Equal(t, []core.TurnState{
		{Phase: core.PhaseEnemy, Number: 1},
		{Phase: core.PhasePlayer, Number: 2},
	}, phases)
	assert.Equal(t, []int{250}, incomes)
}
