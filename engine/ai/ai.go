package ai

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/logging"
	"github.com/1siamBot/tactics-engine/engine/metrics"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

// Options configures a Controller. A nil Lock, Pacer or Rand gets a usable
// default; everything else is taken as given, so start from DefaultOptions.
type Options struct {
	Rules       systems.Rules
	Lock        sync.Locker
	Pacer       core.Pacer
	Think       time.Duration // pause before and after the pass
	Rand        *rand.Rand
	Policy      []*Rule
	SpawnRule   string
	SpawnChance float64
	SpawnKind   core.Kind
	Home        core.Vec3 // reinforcements appear in [Home, Home+Jitter) on X and Z
	Jitter      float64
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
}

// DefaultOptions is the stock enemy: a one second think on either side of
// the pass and an even chance of a tank near the enemy base.
func DefaultOptions() Options {
	return Options{
		Rules:       systems.DefaultRules(),
		Think:       time.Second,
		SpawnChance: 0.5,
		SpawnKind:   core.KindTank,
		Home:        core.Vec3{X: 12, Z: 12},
		Jitter:      2,
	}
}

// Controller runs the enemy phase. It acts only through the shared combat
// and capture rules.
type Controller struct {
	world   *core.World
	rules   systems.Rules
	lock    sync.Locker
	pacer   core.Pacer
	think   time.Duration
	rng     *rand.Rand
	policy  []*Rule
	spawn   *Rule
	chance  float64
	kind    core.Kind
	home    core.Vec3
	jitter  float64
	log     *slog.Logger
	metrics *metrics.Recorder
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// NewAIController compiles the policy and spawn rules. An invalid rule is
// rejected here rather than at turn time.
func NewAIController(w *core.World, opts Options) (*Controller, error) {
	policySrc := opts.Policy
	if policySrc == nil {
		policySrc = DefaultRules()
	}
	policy, err := compileRules(policySrc)
	if err != nil {
		return nil, err
	}
	spawnSrc := opts.SpawnRule
	if spawnSrc == "" {
		spawnSrc = DefaultSpawnRule
	}
	spawn, err := compileRules([]*Rule{{Name: "spawn", ConditionSrc: spawnSrc}})
	if err != nil {
		return nil, err
	}

	c := &Controller{
		world:   w,
		rules:   opts.Rules,
		lock:    opts.Lock,
		pacer:   opts.Pacer,
		think:   opts.Think,
		rng:     opts.Rand,
		policy:  policy,
		spawn:   spawn[0],
		chance:  opts.SpawnChance,
		kind:    opts.SpawnKind,
		home:    opts.Home,
		jitter:  opts.Jitter,
		log:     logging.Or(opts.Logger).With("component", "ai"),
		metrics: opts.Metrics,
	}
	if c.rules == (systems.Rules{}) {
		c.rules = systems.DefaultRules()
	}
	if c.lock == nil {
		c.lock = nopLocker{}
	}
	if c.pacer == nil {
		c.pacer = core.WallClock{}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.kind == "" {
		c.kind = core.KindTank
	}
	if _, ok := w.Kinds[c.kind]; !ok {
		return nil, fmt.Errorf("spawn kind %q not in catalog", c.kind)
	}
	return c, nil
}

// TakeTurn is the single enemy pass: think, act once per unit with AP,
// cull, maybe reinforce, think. Enemy AP is refilled by the turn engine
// before this runs.
func (c *Controller) TakeTurn(ctx context.Context) ([]interp.Effect, error) {
	if err := c.pacer.Pause(ctx, c.think); err != nil {
		return nil, err
	}

	var effects []interp.Effect
	c.lock.Lock()
	ids := make([]core.UnitID, 0)
	for _, u := range c.world.UnitsByTeam(core.TeamEnemy) {
		ids = append(ids, u.ID)
	}
	c.lock.Unlock()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return effects, err
		}
		fx, err := c.act(ctx, id)
		if err != nil {
			return effects, err
		}
		effects = append(effects, fx...)
	}

	c.lock.Lock()
	c.world.RemoveDeadUnits()
	spawned, err := c.reinforce(ctx)
	c.lock.Unlock()
	if err != nil {
		return effects, err
	}
	if spawned != 0 {
		c.log.Info("reinforcement arrived", "unit", spawned, "kind", c.kind)
	}

	if err := c.pacer.Pause(ctx, c.think); err != nil {
		return effects, err
	}
	return effects, nil
}

// act decides and performs one unit's action under the lock
func (c *Controller) act(ctx context.Context, id core.UnitID) ([]interp.Effect, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	u, ok := c.world.UnitByID(id)
	if !ok || !u.Alive() || u.AP <= 0 {
		return nil, nil
	}

	players := systems.Enemies(c.world, core.TeamEnemy)
	target, hasTarget := systems.Nearest(u.Position, players)
	env := Env{
		HasTarget:       hasTarget,
		AP:              u.AP,
		HP:              u.HP,
		MaxHP:           u.MaxHP,
		ContestedPoints: len(c.world.Points()) - c.world.OwnedPoints(core.TeamEnemy),
		EnemyCount:      c.world.UnitCount(core.TeamEnemy),
		PlayerCount:     len(players),
		Turn:            c.world.Turn().Number,
	}
	if hasTarget {
		env.Distance = u.Position.DistanceTo(target.Position)
		env.InRange = systems.IsInRange(u, target, c.world.Kinds)
	}

	rule, err := evaluate(c.policy, env)
	if err != nil {
		return nil, err
	}
	decision := Hold
	if rule != nil {
		decision = rule.Decision
	}
	c.log.Debug("enemy decision", "unit", id, "decision", decision, "target", target.ID, "dist", env.Distance)

	switch decision {
	case Engage:
		if !hasTarget {
			return nil, nil
		}
		res := systems.Strike(c.world, id, target.ID)
		if res.Outcome != systems.Hit {
			return nil, nil
		}
		c.metrics.Attack(ctx, string(core.TeamEnemy), res.Killed)
		return []interp.Effect{{
			Type:   interp.EffectAttacked,
			Unit:   id,
			From:   res.From,
			To:     res.To,
			Target: target.ID,
			Damage: res.Damage,
			Killed: res.Killed,
		}}, nil
	case AdvanceOnUnit:
		if !hasTarget {
			return nil, nil
		}
		return c.advance(u, target.Position), nil
	case AdvanceOnPoint:
		p, ok := c.world.NearestPoint(u.Position, func(cp core.CapturePoint) bool {
			return cp.Owner != core.TeamEnemy
		})
		if !ok {
			return nil, nil
		}
		return c.advance(u, p.Position), nil
	}
	return nil, nil
}

// advance moves the full speed along the straight line to goal. Terrain is
// not consulted.
func (c *Controller) advance(u core.Unit, goal core.Vec3) []interp.Effect {
	speed := c.world.Kinds[u.Kind].Speed
	dest := systems.StepToward(u.Position, goal, speed)
	if dest == u.Position {
		return nil
	}
	fx := []interp.Effect{{Type: interp.EffectMoved, Unit: u.ID, From: u.Position, To: dest}}
	for _, cp := range systems.Relocate(c.world, u.ID, dest, c.rules) {
		fx = append(fx, interp.Effect{Type: interp.EffectCaptured, Unit: u.ID, To: dest, Capture: cp})
	}
	return fx
}

// reinforce rolls the spawn rule. Caller holds the lock.
func (c *Controller) reinforce(ctx context.Context) (core.UnitID, error) {
	env := Env{
		Roll:            c.rng.Float64(),
		SpawnChance:     c.chance,
		EnemyCount:      c.world.UnitCount(core.TeamEnemy),
		PlayerCount:     c.world.UnitCount(core.TeamPlayer),
		ContestedPoints: len(c.world.Points()) - c.world.OwnedPoints(core.TeamEnemy),
		Turn:            c.world.Turn().Number,
	}
	ok, err := run(c.spawn.program, env)
	if err != nil {
		return 0, fmt.Errorf("spawn rule: %w", err)
	}
	if !ok {
		return 0, nil
	}
	x := c.home.X + c.rng.Float64()*c.jitter
	z := c.home.Z + c.rng.Float64()*c.jitter
	id := systems.Spawn(c.world, core.TeamEnemy, c.kind, x, z)
	c.metrics.Spawn(ctx, string(core.TeamEnemy), string(c.kind))
	return id, nil
}
