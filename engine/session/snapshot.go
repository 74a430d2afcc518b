package session

import (
	"context"
	"fmt"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/persistence"
)

// Snapshot is a consistent read-only copy of the match for the viewer.
type Snapshot struct {
	Units      []core.Unit
	Points     []core.CapturePoint
	Treasury   core.Treasury
	Turn       core.TurnState
	LastIncome int
	Selected   core.UnitID
	HasSel     bool
	Busy       bool
}

// Snapshot copies the current state. Safe to call every frame from the
// render goroutine.
func (s *Session) Snapshot() Snapshot {
	sel, hasSel := s.Selected()
	busy := s.Busy()
	_, _, turns := s.actors()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Units:      s.world.Units(),
		Points:     s.world.Points(),
		Treasury:   s.world.Treasury(),
		Turn:       s.world.Turn(),
		LastIncome: turns.LastIncome(),
		Selected:   sel,
		HasSel:     hasSel,
		Busy:       busy,
	}
}

// Store is where matches are saved. *persistence.DB implements it.
type Store interface {
	Save(ctx context.Context, st persistence.State) (string, error)
	Load(ctx context.Context, id string) (persistence.State, error)
}

// Save writes the match, scripts included, and returns the save id.
func (s *Session) Save(ctx context.Context, store Store) (string, error) {
	if s.Busy() {
		return "", ErrBusy
	}
	snap := s.Snapshot()
	id, err := store.Save(ctx, persistence.State{
		Turn:       snap.Turn,
		Treasury:   int(snap.Treasury),
		LastIncome: snap.LastIncome,
		Units:      snap.Units,
		Points:     snap.Points,
		MapName:    s.tiles.Name,
	})
	if err != nil {
		return "", fmt.Errorf("saving match: %w", err)
	}
	s.log.Info("match saved", "save", id, "turn", snap.Turn.Number)
	return id, nil
}

// Load replaces the match with a saved one. A save that names a kind the
// catalog lacks, or that breaks a world invariant, is rejected and the
// current match is kept.
func (s *Session) Load(ctx context.Context, store Store, id string) error {
	st, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("loading match: %w", err)
	}
	if !s.ending.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.ending.Store(false)
	s.CancelScripts()

	w, err := s.restore(st)
	if err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	if err := s.install(w, st.LastIncome); err != nil {
		return err
	}
	s.log.Info("match loaded", "save", id, "turn", st.Turn.Number, "units", len(st.Units))
	return nil
}

func (s *Session) restore(st persistence.State) (w *core.World, err error) {
	if st.Treasury < 0 {
		return nil, fmt.Errorf("negative treasury %d", st.Treasury)
	}
	if (st.Turn.Phase != core.PhasePlayer && st.Turn.Phase != core.PhaseEnemy) || st.Turn.Number < 1 {
		return nil, fmt.Errorf("bad turn state %s", st.Turn)
	}
	w = core.NewWorld(s.opts.Catalog, st.Treasury)
	w.SetTurn(st.Turn)
	for _, p := range st.Points {
		if _, dup := w.PointByID(p.ID); dup {
			return nil, fmt.Errorf("duplicate capture point %d", p.ID)
		}
		w.AddPoint(p.ID, p.Position, p.Owner)
	}
	for _, u := range st.Units {
		if _, ok := w.Kinds[u.Kind]; !ok {
			return nil, fmt.Errorf("unit %d %q: %w", u.ID, u.Kind, ErrUnknownKind)
		}
		if _, dup := w.UnitByID(u.ID); dup {
			return nil, fmt.Errorf("duplicate unit %d", u.ID)
		}
		w.RestoreUnit(u)
	}

	defer func() {
		if r := recover(); r != nil {
			w, err = nil, fmt.Errorf("invalid save: %v", r)
		}
	}()
	w.Check()
	return w, nil
}
