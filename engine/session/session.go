// Package session owns one match: the world, the turn engine, the
// interpreter, the enemy controller and the lock they share. It is the only
// entry point the viewer and the CLIs mutate through.
package session

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/1siamBot/tactics-engine/engine/ai"
	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/logging"
	"github.com/1siamBot/tactics-engine/engine/maplib"
	"github.com/1siamBot/tactics-engine/engine/metrics"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/systems"
	"github.com/1siamBot/tactics-engine/engine/turn"
)

// Options configures a match. Zero values give the stock game on the classic
// board with wall-clock pacing.
type Options struct {
	Catalog  core.Catalog
	Treasury *int // starting money; nil means DefaultTreasury
	Rules    systems.Rules
	Pacing   interp.Pacing
	Pacer    core.Pacer
	AI       *ai.Options // nil means ai.DefaultOptions
	Map      *maplib.TileMap
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
}

// DefaultTreasury is the starting money
const DefaultTreasury = 500

// Session is one match. Every world access goes through mu; the interpreter,
// the AI and the turn engine take it themselves, so the session never holds
// it while calling them.
type Session struct {
	ID string

	mu    sync.RWMutex
	world *core.World
	tiles *maplib.TileMap
	bus   *core.EventBus

	in    *interp.Interpreter
	enemy *ai.Controller
	turns *turn.Engine

	opts    Options
	aiOpts  ai.Options
	log     *slog.Logger
	metrics *metrics.Recorder

	selMu    sync.Mutex
	selected core.UnitID
	hasSel   bool

	ending atomic.Bool
}

// New creates a session and starts the initial match.
func New(opts Options) (*Session, error) {
	if opts.Catalog == nil {
		opts.Catalog = core.DefaultCatalog()
	}
	treasury := DefaultTreasury
	if opts.Treasury != nil {
		treasury = *opts.Treasury
	}
	opts.Treasury = &treasury
	if opts.Rules == (systems.Rules{}) {
		opts.Rules = systems.DefaultRules()
	}
	if opts.Pacer == nil {
		opts.Pacer = core.WallClock{}
	}
	if opts.Map == nil {
		opts.Map = maplib.Generate(maplib.DefaultGenConfig())
	}

	aiOpts := ai.DefaultOptions()
	if opts.AI != nil {
		aiOpts = *opts.AI
	}
	if aiOpts.Rand == nil {
		aiOpts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	id := uuid.NewString()
	s := &Session{
		ID:      id,
		tiles:   opts.Map,
		bus:     core.NewEventBus(),
		opts:    opts,
		aiOpts:  aiOpts,
		log:     logging.Or(opts.Logger).With("session", id),
		metrics: opts.Metrics,
	}
	w, err := s.initialWorld()
	if err != nil {
		return nil, err
	}
	if err := s.install(w, 0); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		if err := s.metrics.Observe(nil, s.gauge); err != nil {
			return nil, fmt.Errorf("registering gauges: %w", err)
		}
	}
	s.log.Info("session started", "treasury", *opts.Treasury, "map", opts.Map.Name)
	return s, nil
}

// initialWorld builds the opening position: three capture points, one
// infantry per side, both ready to act.
func (s *Session) initialWorld() (*core.World, error) {
	if _, ok := s.opts.Catalog[core.KindInfantry]; !ok {
		return nil, fmt.Errorf("opening roster needs %s: %w", core.KindInfantry, ErrUnknownKind)
	}
	w := core.NewWorld(s.opts.Catalog, *s.opts.Treasury)
	w.AddPoint(1, core.Vec3{X: -15, Z: -15}, core.TeamPlayer)
	w.AddPoint(2, core.Vec3{X: 15, Z: 15}, core.TeamEnemy)
	w.AddPoint(3, core.Vec3{}, core.TeamNeutral)
	// the opening roster is not announced
	w.Bus = nil
	systems.Spawn(w, core.TeamPlayer, core.KindInfantry, -12, -12)
	systems.Spawn(w, core.TeamEnemy, core.KindInfantry, 12, 12)
	w.RestoreAP(core.TeamPlayer)
	w.RestoreAP(core.TeamEnemy)
	return w, nil
}

// install wires the actors to w and makes it current.
func (s *Session) install(w *core.World, lastIncome int) error {
	w.Bus = s.bus
	aiOpts := s.aiOpts
	aiOpts.Rules = s.opts.Rules
	aiOpts.Lock = &s.mu
	aiOpts.Pacer = s.opts.Pacer
	aiOpts.Logger = s.opts.Logger
	aiOpts.Metrics = s.metrics
	enemy, err := ai.NewAIController(w, aiOpts)
	if err != nil {
		return fmt.Errorf("enemy controller: %w", err)
	}
	in := interp.New(w, interp.Options{
		Rules:   s.opts.Rules,
		Pacing:  s.opts.Pacing,
		Lock:    &s.mu,
		Pacer:   s.opts.Pacer,
		Logger:  s.opts.Logger,
		Metrics: s.metrics,
	})
	turns := turn.New(w, turn.Options{
		Rules:   s.opts.Rules,
		Lock:    &s.mu,
		Logger:  s.opts.Logger,
		Metrics: s.metrics,
	})
	turns.Restore(lastIncome)

	s.mu.Lock()
	s.world, s.in, s.enemy, s.turns = w, in, enemy, turns
	s.mu.Unlock()
	s.DeselectUnit()
	return nil
}

func (s *Session) gauge() (player, enemy, treasury int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(s.world.UnitCount(core.TeamPlayer)),
		int64(s.world.UnitCount(core.TeamEnemy)),
		int64(s.world.Treasury())
}

// actors returns the current interpreter and turn engine. They are replaced
// by Reset and Load.
func (s *Session) actors() (*interp.Interpreter, *ai.Controller, *turn.Engine) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.in, s.enemy, s.turns
}

// Map returns the board
func (s *Session) Map() *maplib.TileMap { return s.tiles }

// Catalog returns the unit kinds in play
func (s *Session) Catalog() core.Catalog { return s.opts.Catalog }

// Rules returns the balance constants
func (s *Session) Rules() systems.Rules { return s.opts.Rules }

// Busy reports whether a script is live or the enemy phase is being played.
func (s *Session) Busy() bool {
	in, _, _ := s.actors()
	return s.ending.Load() || in.Busy()
}

// SelectUnit marks id as the unit being programmed.
func (s *Session) SelectUnit(id core.UnitID) error {
	if s.Busy() {
		return ErrBusy
	}
	s.mu.RLock()
	ts := s.world.Turn()
	u, ok := s.world.UnitByID(id)
	s.mu.RUnlock()

	if ts.Phase != core.PhasePlayer {
		return fmt.Errorf("select in %s: %w", ts.Phase, ErrWrongPhase)
	}
	if !ok || !u.Alive() {
		return fmt.Errorf("unit %d: %w", id, ErrNoUnit)
	}
	if u.Team != ts.Phase.Team() {
		return fmt.Errorf("unit %d: %w", id, ErrNotOwned)
	}
	s.selMu.Lock()
	s.selected, s.hasSel = id, true
	s.selMu.Unlock()
	return nil
}

// DeselectUnit clears the selection
func (s *Session) DeselectUnit() {
	s.selMu.Lock()
	s.selected, s.hasSel = 0, false
	s.selMu.Unlock()
}

// Selected returns the selected unit if it is still alive.
func (s *Session) Selected() (core.UnitID, bool) {
	s.selMu.Lock()
	id, ok := s.selected, s.hasSel
	s.selMu.Unlock()
	if !ok {
		return 0, false
	}
	s.mu.RLock()
	u, alive := s.world.UnitByID(id)
	s.mu.RUnlock()
	if !alive || !u.Alive() {
		return 0, false
	}
	return id, true
}

// SetScript replaces the unit's script wholesale.
func (s *Session) SetScript(id core.UnitID, sc script.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.world.UnitByID(id)
	if !ok {
		return fmt.Errorf("unit %d: %w", id, ErrNoUnit)
	}
	if u.Team != s.world.Turn().Phase.Team() {
		return fmt.Errorf("unit %d: %w", id, ErrNotOwned)
	}
	s.world.SetScript(id, sc)
	s.log.Debug("script assigned", "unit", id, "commands", sc.Len())
	return nil
}

// Preview simulates sc from the unit's current position without touching
// the world.
func (s *Session) Preview(id core.UnitID, sc script.Script) ([]script.PreviewStep, error) {
	s.mu.RLock()
	u, ok := s.world.UnitByID(id)
	speed := s.world.Kinds[u.Kind].Speed
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", id, ErrNoUnit)
	}
	return script.Preview(u.Position.Ground(), speed, s.opts.Rules.MoveBudgetFactor, sc), nil
}

// RunScript starts the unit's assigned script. Steps execute as the returned
// sequence is pulled. Only one script runs at a time.
func (s *Session) RunScript(ctx context.Context, id core.UnitID) (iter.Seq[interp.Effect], error) {
	// the phase can only flip under mu, so check and register together
	s.mu.Lock()
	defer s.mu.Unlock()
	in := s.in
	if s.ending.Load() || in.Busy() {
		return nil, ErrBusy
	}
	ts := s.world.Turn()
	if ts.Phase != core.PhasePlayer {
		return nil, fmt.Errorf("run in %s: %w", ts.Phase, ErrWrongPhase)
	}
	u, ok := s.world.UnitByID(id)
	if !ok {
		return nil, fmt.Errorf("unit %d: %w", id, ErrNoUnit)
	}
	if u.Team != core.TeamPlayer {
		return nil, fmt.Errorf("unit %d: %w", id, ErrNotOwned)
	}
	run, err := in.Start(id, u.Script)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusy, err)
	}
	s.log.Info("script run", "unit", id, "commands", u.Script.Len())
	return run.Effects(ctx), nil
}

// CancelScripts halts every live script at its next step.
func (s *Session) CancelScripts() {
	in, _, _ := s.actors()
	in.CancelAll()
}

// EndTurn ends the player phase and plays the enemy phase, returning what
// the enemy did. Live scripts are cancelled and the selection is cleared
// first. If the enemy pass fails, calling EndTurn again resumes it.
func (s *Session) EndTurn(ctx context.Context) ([]interp.Effect, error) {
	if !s.ending.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.ending.Store(false)

	in, enemy, turns := s.actors()
	in.CancelAll()
	s.DeselectUnit()

	fx, err := turns.Cycle(ctx, enemy)
	if err != nil {
		s.log.Warn("enemy phase interrupted", "error", err)
		return fx, err
	}
	s.mu.RLock()
	ts, treasury := s.world.Turn(), s.world.Treasury()
	s.mu.RUnlock()
	s.log.Info("turn ended", "turn", ts.Number, "enemy_actions", len(fx),
		"income", turns.LastIncome(), "treasury", int(treasury))
	return fx, nil
}

// Reset discards the match and starts the opening position again.
func (s *Session) Reset() error {
	if !s.ending.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.ending.Store(false)

	s.CancelScripts()
	w, err := s.initialWorld()
	if err != nil {
		return err
	}
	if err := s.install(w, 0); err != nil {
		return err
	}
	s.log.Info("session reset")
	return nil
}

// On subscribes to world events. Handlers survive Reset and Load.
func (s *Session) On(t core.EventType, h core.EventHandler) {
	s.bus.On(t, h)
}

// DispatchEvents delivers queued events. The viewer calls it once a frame.
func (s *Session) DispatchEvents() {
	s.bus.Dispatch()
}
