// Package interp runs unit scripts against the shared world, one step at a
// time, re-reading the acting unit by id before every command.
package interp

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/logging"
	"github.com/1siamBot/tactics-engine/engine/metrics"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

// ErrAlreadyRunning rejects a second run for a unit that has a live one.
var ErrAlreadyRunning = errors.New("script already running for unit")

// Pacing between visible steps
type Pacing struct {
	Move   time.Duration
	Attack time.Duration
}

// DefaultPacing matches the animation lengths of the viewer
func DefaultPacing() Pacing {
	return Pacing{Move: 800 * time.Millisecond, Attack: 500 * time.Millisecond}
}

// Options wires an Interpreter. Zero values are usable: no locking, wall
// clock pacing, default logger, no metrics.
type Options struct {
	Rules   systems.Rules
	Pacing  Pacing
	Lock    sync.Locker // held around every world access
	Pacer   core.Pacer
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Interpreter owns the set of live runs. It never holds a unit pointer: each
// step looks the unit up again.
type Interpreter struct {
	world   *core.World
	rules   systems.Rules
	pacing  Pacing
	lock    sync.Locker
	pacer   core.Pacer
	log     *slog.Logger
	metrics *metrics.Recorder

	mu     sync.Mutex
	active map[core.UnitID]*Run
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// New creates an interpreter over w
func New(w *core.World, opts Options) *Interpreter {
	in := &Interpreter{
		world:   w,
		rules:   opts.Rules,
		pacing:  opts.Pacing,
		lock:    opts.Lock,
		pacer:   opts.Pacer,
		log:     logging.Or(opts.Logger).With("component", "interp"),
		metrics: opts.Metrics,
		active:  make(map[core.UnitID]*Run),
	}
	if in.lock == nil {
		in.lock = nopLocker{}
	}
	if in.pacer == nil {
		in.pacer = core.WallClock{}
	}
	if in.rules == (systems.Rules{}) {
		in.rules = systems.DefaultRules()
	}
	if in.pacing == (Pacing{}) {
		in.pacing = DefaultPacing()
	}
	return in
}

// Start reserves unit for a new run of s. Nothing executes until the
// returned run's effects are consumed.
func (in *Interpreter) Start(unit core.UnitID, s script.Script) (*Run, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, busy := in.active[unit]; busy {
		return nil, fmt.Errorf("unit %d: %w", unit, ErrAlreadyRunning)
	}
	r := &Run{in: in, unit: unit, script: s.Clone()}
	in.active[unit] = r
	return r, nil
}

// Running reports whether unit has a live run
func (in *Interpreter) Running(unit core.UnitID) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.active[unit]
	return ok
}

// Busy reports whether any run is live
func (in *Interpreter) Busy() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.active) > 0
}

// CancelAll halts every live run at its next step
func (in *Interpreter) CancelAll() {
	in.mu.Lock()
	runs := make([]*Run, 0, len(in.active))
	for _, r := range in.active {
		runs = append(runs, r)
	}
	in.mu.Unlock()
	for _, r := range runs {
		r.Cancel()
	}
}

func (in *Interpreter) release(r *Run) {
	in.mu.Lock()
	if in.active[r.unit] == r {
		delete(in.active, r.unit)
	}
	in.mu.Unlock()
}

// Run is one execution of a script for one unit.
type Run struct {
	in     *Interpreter
	unit   core.UnitID
	script script.Script

	state     atomic.Uint32
	cancelled atomic.Bool
	consumed  atomic.Bool
	unseen    atomic.Bool // cancelled before Effects was pulled
	reason    atomic.Value // HaltReason

	stopMu sync.Mutex
	stop   context.CancelFunc
}

// Unit returns the acting unit
func (r *Run) Unit() core.UnitID { return r.unit }

// State returns the current run state
func (r *Run) State() State { return State(r.state.Load()) }

// Reason returns why the run halted, or "" while it is live
func (r *Run) Reason() HaltReason {
	v, _ := r.reason.Load().(HaltReason)
	return v
}

// Cancel asks the run to halt. It is honoured at the next re-validation
// point; an in-progress pause is interrupted.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
	r.stopMu.Lock()
	if r.stop != nil {
		r.stop()
	}
	r.stopMu.Unlock()
	if r.consumed.CompareAndSwap(false, true) {
		// never started
		r.unseen.Store(true)
		r.finish(context.Background(), Cancelled)
	}
}

// Effects executes the script lazily as the sequence is pulled. The
// sequence can be consumed once; later calls yield nothing. A run cancelled
// before it was pulled yields its cancelled halt on the first pull. Breaking
// out of the loop halts the run without further mutation.
func (r *Run) Effects(ctx context.Context) iter.Seq[Effect] {
	return func(yield func(Effect) bool) {
		if !r.consumed.CompareAndSwap(false, true) {
			if r.unseen.CompareAndSwap(true, false) {
				yield(Effect{Type: EffectHalted, Unit: r.unit, Reason: Cancelled})
			}
			return
		}
		ctx, stop := context.WithCancel(ctx)
		defer stop()
		r.stopMu.Lock()
		r.stop = stop
		r.stopMu.Unlock()

		r.in.log.Debug("script started", "unit", r.unit, "commands", r.script.Len())
		reason := r.exec(ctx, r.script, yield)
		if reason == "" {
			reason = Exhausted
		}
		r.finish(ctx, reason)
		if reason != abandoned {
			yield(Effect{Type: EffectHalted, Unit: r.unit, Reason: reason})
		}
	}
}

// Drain consumes the run and returns every effect. Useful for headless
// callers and tests.
func (r *Run) Drain(ctx context.Context) []Effect {
	var out []Effect
	for e := range r.Effects(ctx) {
		out = append(out, e)
	}
	return out
}

func (r *Run) finish(ctx context.Context, reason HaltReason) {
	r.reason.Store(reason)
	r.state.Store(uint32(Halted))
	r.in.release(r)
	r.in.metrics.Halt(context.WithoutCancel(ctx), string(reason))
	r.in.log.Debug("script halted", "unit", r.unit, "reason", reason)
}

// exec runs cmds in order. An empty reason means keep going.
func (r *Run) exec(ctx context.Context, cmds []script.Command, yield func(Effect) bool) HaltReason {
	for _, c := range cmds {
		if reason := r.step(ctx, c, yield); reason != "" {
			return reason
		}
	}
	return ""
}

func (r *Run) step(ctx context.Context, c script.Command, yield func(Effect) bool) HaltReason {
	effects, pause, reason := r.apply(ctx, c)
	if reason != "" {
		return reason
	}
	r.in.metrics.Command(ctx, string(c.Kind()))
	for _, e := range effects {
		if !yield(e) {
			return abandoned
		}
	}
	if pause > 0 {
		r.state.Store(uint32(Suspended))
		err := r.in.pacer.Pause(ctx, pause)
		r.state.Store(uint32(Running))
		if err != nil {
			return Cancelled
		}
	}
	if rep, ok := c.(script.Repeat); ok {
		n, err := script.ParseTimes(rep.Times)
		if err != nil {
			r.in.log.Warn("repeat skipped", "unit", r.unit, "error", err)
			return ""
		}
		for range n {
			if reason := r.exec(ctx, rep.Children, yield); reason != "" {
				return reason
			}
		}
	}
	return ""
}

// apply re-validates and performs the world side of one command under the
// session lock. It returns the effects to publish and how long to pause
// afterwards.
func (r *Run) apply(ctx context.Context, c script.Command) ([]Effect, time.Duration, HaltReason) {
	in := r.in
	in.lock.Lock()
	defer in.lock.Unlock()

	if r.cancelled.Load() || ctx.Err() != nil {
		return nil, 0, Cancelled
	}
	u, ok := in.world.UnitByID(r.unit)
	if !ok || !u.Alive() {
		return nil, 0, UnitGone
	}
	if in.world.Turn().Phase.Team() != u.Team {
		return nil, 0, Cancelled
	}

	switch c := c.(type) {
	case script.Move:
		fx, pause := r.move(u, c)
		return fx, pause, ""
	case script.Attack:
		fx, pause := r.attack(ctx, u, c)
		return fx, pause, ""
	case script.Wait:
		d, err := script.ParseDuration(c.Duration)
		if err != nil {
			in.log.Warn("wait skipped", "unit", u.ID, "error", err)
			return nil, 0, ""
		}
		return nil, d, ""
	case script.Repeat:
		return nil, 0, ""
	}
	panic(fmt.Sprintf("interp: unhandled command %T", c))
}

func (r *Run) move(u core.Unit, c script.Move) ([]Effect, time.Duration) {
	in := r.in
	to, err := script.ParseTarget(c.Target)
	if err != nil {
		in.log.Warn("move skipped", "unit", u.ID, "error", err)
		return nil, 0
	}
	if u.AP <= 0 {
		in.log.Debug("move skipped, no ap", "unit", u.ID)
		return nil, in.pacing.Move
	}
	dest := core.AtGround(to, u.Position.Y)
	speed := in.world.Kinds[u.Kind].Speed
	if !systems.WithinMoveBudget(u.Position, dest, speed, in.rules.MoveBudgetFactor) {
		in.log.Debug("move rejected, out of budget", "unit", u.ID, "target", c.Target,
			"dist", u.Position.GroundDistance(dest), "budget", speed*in.rules.MoveBudgetFactor)
		return nil, in.pacing.Move
	}

	caps := systems.Relocate(in.world, u.ID, dest, in.rules)
	fx := []Effect{{Type: EffectMoved, Unit: u.ID, From: u.Position, To: dest}}
	for _, cp := range caps {
		fx = append(fx, Effect{Type: EffectCaptured, Unit: u.ID, To: dest, Capture: cp})
	}
	in.log.Debug("unit moved", "unit", u.ID, "x", dest.X, "z", dest.Z, "captures", len(caps))
	return fx, in.pacing.Move
}

func (r *Run) attack(ctx context.Context, u core.Unit, c script.Attack) ([]Effect, time.Duration) {
	in := r.in
	if !c.Policy.Valid() {
		in.log.Warn("attack skipped", "unit", u.ID, "policy", c.Policy, "error", script.ErrMalformedParam)
		return nil, 0
	}
	if u.AP <= 0 {
		return nil, in.pacing.Attack
	}
	target, ok := systems.SelectTarget(u, systems.Enemies(in.world, u.Team), c.Policy)
	if !ok || !systems.IsInRange(u, target, in.world.Kinds) {
		return nil, in.pacing.Attack
	}
	res := systems.Strike(in.world, u.ID, target.ID)
	if res.Outcome != systems.Hit {
		return nil, in.pacing.Attack
	}
	in.metrics.Attack(ctx, string(u.Team), res.Killed)
	in.log.Debug("unit attacked", "unit", u.ID, "target", target.ID, "damage", res.Damage, "killed", res.Killed)
	return []Effect{{
		Type:   EffectAttacked,
		Unit:   u.ID,
		From:   res.From,
		To:     res.To,
		Target: target.ID,
		Damage: res.Damage,
		Killed: res.Killed,
	}}, in.pacing.Attack
}
