package interp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

type fixture struct {
	world *core.World
	pacer *core.Recorder
	in    *Interpreter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := core.NewWorld(nil, 500)
	w.AddPoint(1, core.Vec3{X: -15, Z: -15}, core.TeamPlayer)
	w.AddPoint(2, core.Vec3{X: 15, Z: 15}, core.TeamEnemy)
	rec := &core.Recorder{}
	return &fixture{
		world: w,
		pacer: rec,
		in:    New(w, Options{Pacer: rec}),
	}
}

func (f *fixture) unit(team core.Team, kind core.Kind, x, z float64) core.UnitID {
	id := systems.Spawn(f.world, team, kind, x, z)
	f.world.RestoreAP(team)
	return id
}

func (f *fixture) run(t *testing.T, id core.UnitID, s script.Script) []Effect {
	t.Helper()
	r, err := f.in.Start(id, s)
	require.NoError(t, err)
	fx := r.Drain(context.Background())
	assert.Equal(t, Halted, r.State())
	assert.False(t, f.in.Running(id))
	return fx
}

func types(fx []Effect) []EffectType {
	out := make([]EffectType, len(fx))
	for i, e := range fx {
		out[i] = e.Type
	}
	return out
}

func TestMove_WithinBudget(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)

	fx := f.run(t, id, script.Script{script.Move{Target: "2,0"}})
	require.Equal(t, []EffectType{EffectMoved, EffectHalted}, types(fx))
	assert.Equal(t, Exhausted, fx[1].Reason)

	u, _ := f.world.UnitByID(id)
	assert.Equal(t, core.Vec3{X: 2, Y: 0.5, Z: 0}, u.Position)
	assert.Equal(t, 1, u.AP)
}

func TestMove_BeyondBudgetRejected(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)

	fx := f.run(t, id, script.Script{script.Move{Target: "10,0"}})
	assert.Equal(t, []EffectType{EffectHalted}, types(fx))

	u, _ := f.world.UnitByID(id)
	assert.Equal(t, core.Vec3{Y: 0.5}, u.Position)
	assert.Equal(t, 2, u.AP)
	assert.Equal(t, []time.Duration{800 * time.Millisecond}, f.pacer.Pauses, "a rejected move still takes its step time")
}

func TestRepeat_ExactIterations(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)

	s := script.Script{script.Repeat{Times: "3", Children: []script.Command{script.Move{Target: "1,0"}}}}
	fx := f.run(t, id, s)

	// Infantry has two AP: two moves commit, the third attempt is a no-op.
	assert.Equal(t, []EffectType{EffectMoved, EffectMoved, EffectHalted}, types(fx))
	assert.Len(t, f.pacer.Pauses, 3)
	u, _ := f.world.UnitByID(id)
	assert.Equal(t, 0, u.AP)
}

func TestRepeat_ZeroAndNested(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)

	s := script.Script{
		script.Repeat{Times: "0", Children: []script.Command{script.Move{Target: "1,0"}}},
		script.Repeat{Times: "-4", Children: []script.Command{script.Move{Target: "1,0"}}},
		script.Repeat{Times: "2", Children: []script.Command{
			script.Repeat{Times: "2", Children: []script.Command{script.Wait{Duration: "0.25"}}},
		}},
	}
	fx := f.run(t, id, s)
	assert.Equal(t, []EffectType{EffectHalted}, types(fx))
	assert.Equal(t, time.Second, f.pacer.Total())
}

func TestMalformedParamsDegradeToNoops(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)

	s := script.Script{
		script.Move{Target: "abc"},
		script.Wait{Duration: "later"},
		script.Repeat{Times: "x", Children: []script.Command{script.Move{Target: "1,0"}}},
		script.Attack{Policy: "strongest"},
		script.Move{Target: "1,0"},
	}
	fx := f.run(t, id, s)
	assert.Equal(t, []EffectType{EffectMoved, EffectHalted}, types(fx))
	assert.Equal(t, []time.Duration{800 * time.Millisecond}, f.pacer.Pauses)
}

func TestWait_Suspends(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)

	f.run(t, id, script.Script{script.Wait{Duration: "1.5"}, script.Wait{}})
	assert.Equal(t, 2500*time.Millisecond, f.pacer.Total())
}

func TestAttack_InRange(t *testing.T) {
	f := newFixture(t)
	me := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	enemy := f.unit(core.TeamEnemy, core.KindTank, 3, 0)
	f.world.Bus.Dispatch()

	var tracers int
	f.world.Bus.On(core.EvtTracer, func(core.Event) { tracers++ })

	fx := f.run(t, me, script.Script{script.Attack{Policy: script.PolicyClosest}})
	require.Equal(t, []EffectType{EffectAttacked, EffectHalted}, types(fx))
	assert.Equal(t, enemy, fx[0].Target)
	assert.Equal(t, 15, fx[0].Damage)

	e, _ := f.world.UnitByID(enemy)
	assert.Equal(t, 185, e.HP)
	f.world.Bus.Dispatch()
	assert.Equal(t, 1, tracers)
}

func TestAttack_OutOfRangeNoop(t *testing.T) {
	f := newFixture(t)
	me := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	enemy := f.unit(core.TeamEnemy, core.KindTank, 9, 0)

	fx := f.run(t, me, script.Script{script.Attack{Policy: script.PolicyWeakest}})
	assert.Equal(t, []EffectType{EffectHalted}, types(fx))
	e, _ := f.world.UnitByID(enemy)
	assert.Equal(t, 200, e.HP)
	m, _ := f.world.UnitByID(me)
	assert.Equal(t, 2, m.AP)
}

func TestAttack_KillCulls(t *testing.T) {
	f := newFixture(t)
	me := f.unit(core.TeamPlayer, core.KindTank, 0, 0)
	enemy := f.unit(core.TeamEnemy, core.KindInfantry, 2, 2)

	fx := f.run(t, me, script.Script{script.Attack{Policy: script.PolicyBase}, script.Attack{Policy: script.PolicyBase}})
	require.Equal(t, []EffectType{EffectAttacked, EffectHalted}, types(fx))
	assert.True(t, fx[0].Killed)
	_, ok := f.world.UnitByID(enemy)
	assert.False(t, ok)
	assert.NotPanics(t, f.world.Check)
}

func TestCapture_PersistsAfterLeaving(t *testing.T) {
	f := newFixture(t)
	f.world.AddPoint(3, core.Vec3{}, core.TeamNeutral)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 5, 0)

	fx := f.run(t, id, script.Script{script.Move{Target: "2,0"}, script.Move{Target: "8,0"}})
	require.Equal(t, []EffectType{EffectMoved, EffectCaptured, EffectMoved, EffectHalted}, types(fx))
	assert.Equal(t, core.PointID(3), fx[1].Capture.Point)

	p, _ := f.world.PointByID(3)
	assert.Equal(t, core.TeamPlayer, p.Owner)
}

func TestKilledMidScriptHalts(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	f.unit(core.TeamEnemy, core.KindInfantry, 3, 0)

	s := script.Script{
		script.Move{Target: "1,0"},
		script.Move{Target: "2,0"},
		script.Attack{Policy: script.PolicyClosest},
	}
	r, err := f.in.Start(id, s)
	require.NoError(t, err)

	var got []Effect
	for e := range r.Effects(context.Background()) {
		got = append(got, e)
		if e.Type == EffectMoved {
			f.world.ApplyDamage(id, 1000)
			f.world.RemoveDeadUnits()
		}
	}
	require.Equal(t, []EffectType{EffectMoved, EffectHalted}, types(got))
	assert.Equal(t, UnitGone, got[1].Reason)
	for _, u := range f.world.UnitsByTeam(core.TeamEnemy) {
		assert.Equal(t, 50, u.HP, "no ghost attack after death")
	}
}

func TestStart_RejectsConcurrentRun(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)

	r, err := f.in.Start(id, script.Script{script.Wait{}})
	require.NoError(t, err)
	_, err = f.in.Start(id, script.Script{script.Wait{}})
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.True(t, f.in.Busy())

	r.Drain(context.Background())
	_, err = f.in.Start(id, script.Script{})
	assert.NoError(t, err)
}

func TestEffects_NotRestartable(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	r, err := f.in.Start(id, script.Script{script.Move{Target: "1,0"}})
	require.NoError(t, err)

	assert.Len(t, r.Drain(context.Background()), 2)
	assert.Empty(t, r.Drain(context.Background()))
}

func TestCancel_BeforeStart(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	r, err := f.in.Start(id, script.Script{script.Move{Target: "1,0"}})
	require.NoError(t, err)

	r.Cancel()
	assert.Equal(t, Cancelled, r.Reason())
	assert.False(t, f.in.Running(id))

	fx := r.Drain(context.Background())
	require.Equal(t, []EffectType{EffectHalted}, types(fx))
	assert.Equal(t, Cancelled, fx[0].Reason)
	assert.Equal(t, id, fx[0].Unit)
	assert.Empty(t, r.Drain(context.Background()))

	u, _ := f.world.UnitByID(id)
	assert.Equal(t, 2, u.AP)
	assert.Equal(t, 0.0, u.Position.X)
}

func TestRun_HaltsWhenPhaseFlips(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	before, _ := f.world.UnitByID(id)
	r, err := f.in.Start(id, script.Script{script.Move{Target: "2,0"}, script.Wait{}})
	require.NoError(t, err)

	f.world.SetTurn(core.TurnState{Phase: core.PhaseEnemy, Number: 1})
	fx := r.Drain(context.Background())

	require.Equal(t, []EffectType{EffectHalted}, types(fx))
	assert.Equal(t, Cancelled, fx[0].Reason)
	u, _ := f.world.UnitByID(id)
	assert.Equal(t, before.Position, u.Position)
	assert.Equal(t, before.AP, u.AP)
	assert.False(t, f.in.Running(id))
}

func TestRun_HaltsWhenPhaseFlipsMidRun(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	r, err := f.in.Start(id, script.Script{script.Move{Target: "1,0"}, script.Move{Target: "2,0"}})
	require.NoError(t, err)

	var got []Effect
	for e := range r.Effects(context.Background()) {
		got = append(got, e)
		f.world.SetTurn(core.TurnState{Phase: core.PhaseEnemy, Number: 1})
	}
	require.Equal(t, []EffectType{EffectMoved, EffectHalted}, types(got))
	assert.Equal(t, Cancelled, got[1].Reason)
	u, _ := f.world.UnitByID(id)
	assert.Equal(t, 1.0, u.Position.X)
	assert.Equal(t, 1, u.AP)
}

func TestCancelAll_MidRun(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	r, err := f.in.Start(id, script.Script{script.Move{Target: "1,0"}, script.Move{Target: "2,0"}})
	require.NoError(t, err)

	var got []Effect
	for e := range r.Effects(context.Background()) {
		got = append(got, e)
		f.in.CancelAll()
	}
	require.Equal(t, []EffectType{EffectMoved, EffectHalted}, types(got))
	assert.Equal(t, Cancelled, got[1].Reason)
	u, _ := f.world.UnitByID(id)
	assert.Equal(t, 1.0, u.Position.X)
}

func TestBreakingOutHaltsQuietly(t *testing.T) {
	f := newFixture(t)
	id := f.unit(core.TeamPlayer, core.KindInfantry, 0, 0)
	r, err := f.in.Start(id, script.Script{script.Move{Target: "1,0"}, script.Move{Target: "2,0"}})
	require.NoError(t, err)

	for range r.Effects(context.Background()) {
		break
	}
	assert.Equal(t, Halted, r.State())
	assert.False(t, f.in.Running(id))
	u, _ := f.world.UnitByID(id)
	assert.Equal(t, 1.0, u.Position.X)
}

func TestContextCancelInterruptsPause(t *testing.T) {
	w := core.NewWorld(nil, 0)
	id := systems.Spawn(w, core.TeamPlayer, core.KindInfantry, 0, 0)
	in := New(w, Options{Pacer: core.WallClock{}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	r, err := in.Start(id, script.Script{script.Wait{Duration: "60"}, script.Wait{Duration: "60"}})
	require.NoError(t, err)

	fx := r.Drain(ctx)
	require.Len(t, fx, 1)
	assert.Equal(t, Cancelled, fx[0].Reason)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "RUNNING", Running.String())
	assert.Equal(t, "SUSPENDED", Suspended.String())
	assert.Equal(t, "HALTED", Halted.String())
}
