// Package turn alternates the player and enemy phases and credits income.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/logging"
	"github.com/1siamBot/tactics-engine/engine/metrics"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

// ErrWrongPhase rejects a phase transition from the wrong phase.
var ErrWrongPhase = errors.New("wrong phase")

// EnemyPass is whatever plays the enemy phase. *ai.Controller satisfies it.
type EnemyPass interface {
	TakeTurn(ctx context.Context) ([]interp.Effect, error)
}

// Options wires an Engine
type Options struct {
	Rules   systems.Rules
	Lock    sync.Locker // held around every phase transition
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Engine is the only writer of the world's TurnState.
type Engine struct {
	world   *core.World
	rules   systems.Rules
	lock    sync.Locker
	log     *slog.Logger
	metrics *metrics.Recorder

	mu         sync.Mutex
	lastIncome int
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// New creates a turn engine over w
func New(w *core.World, opts Options) *Engine {
	e := &Engine{
		world:   w,
		rules:   opts.Rules,
		lock:    opts.Lock,
		log:     logging.Or(opts.Logger).With("component", "turn"),
		metrics: opts.Metrics,
	}
	if e.rules == (systems.Rules{}) {
		e.rules = systems.DefaultRules()
	}
	if e.lock == nil {
		e.lock = nopLocker{}
	}
	return e
}

// EndPlayerPhase hands the turn to the enemy and refills enemy AP.
func (e *Engine) EndPlayerPhase(ctx context.Context) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	ts := e.world.Turn()
	if ts.Phase != core.PhasePlayer {
		return fmt.Errorf("end player phase in %s: %w", ts.Phase, ErrWrongPhase)
	}
	ts.Phase = core.PhaseEnemy
	e.world.SetTurn(ts)
	e.world.RestoreAP(core.TeamEnemy)
	e.emit(core.Event{Type: core.EvtPhaseChanged, Turn: ts.Number, Payload: ts})
	e.log.InfoContext(ctx, "phase changed", "turn", ts.Number, "phase", ts.Phase)
	return nil
}

// BeginPlayerPhase closes the enemy phase: the turn counter advances, income
// is credited and player AP is refilled. It returns the amount credited.
func (e *Engine) BeginPlayerPhase(ctx context.Context) (int, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	ts := e.world.Turn()
	if ts.Phase != core.PhaseEnemy {
		return 0, fmt.Errorf("begin player phase in %s: %w", ts.Phase, ErrWrongPhase)
	}
	ts = core.TurnState{Phase: core.PhasePlayer, Number: ts.Number + 1}
	e.world.SetTurn(ts)

	income := systems.Income(e.world, e.rules)
	e.world.Credit(income)
	e.world.RestoreAP(core.TeamPlayer)

	e.mu.Lock()
	e.lastIncome = income
	e.mu.Unlock()

	e.emit(core.Event{Type: core.EvtPhaseChanged, Turn: ts.Number, Payload: ts})
	e.emit(core.Event{Type: core.EvtIncome, Turn: ts.Number, Payload: income})
	e.metrics.Turn(ctx, income)
	e.log.InfoContext(ctx, "phase changed", "turn", ts.Number, "phase", ts.Phase,
		"income", income, "treasury", int(e.world.Treasury()))
	return income, nil
}

// Cycle plays the enemy phase: end the player phase if it is still open, run
// the pass, then open the next player phase. If the pass fails the world
// stays in the enemy phase and a later Cycle resumes it without refilling AP.
func (e *Engine) Cycle(ctx context.Context, enemy EnemyPass) ([]interp.Effect, error) {
	if e.Phase() == core.PhasePlayer {
		if err := e.EndPlayerPhase(ctx); err != nil {
			return nil, err
		}
	}
	fx, err := enemy.TakeTurn(ctx)
	if err != nil {
		return fx, fmt.Errorf("enemy phase: %w", err)
	}
	if _, err := e.BeginPlayerPhase(ctx); err != nil {
		return fx, err
	}
	return fx, nil
}

// Phase returns the current phase
func (e *Engine) Phase() core.Phase {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.world.Turn().Phase
}

// LastIncome is what the most recent player phase credited
func (e *Engine) LastIncome() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastIncome
}

// Restore sets the income ledger after a load
func (e *Engine) Restore(lastIncome int) {
	e.mu.Lock()
	e.lastIncome = lastIncome
	e.mu.Unlock()
}

func (e *Engine) emit(evt core.Event) {
	if e.world.Bus != nil {
		e.world.Bus.Emit(evt)
	}
}
