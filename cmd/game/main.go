package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/1siamBot/tactics-engine/engine/config"
	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/input"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/logging"
	"github.com/1siamBot/tactics-engine/engine/metrics"
	"github.com/1siamBot/tactics-engine/engine/persistence"
	"github.com/1siamBot/tactics-engine/engine/render"
	"github.com/1siamBot/tactics-engine/engine/replay"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/session"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

// Game implements ebiten.Game over one session
type Game struct {
	ctx     context.Context
	sess    *session.Session
	db      *persistence.DB
	journal *replay.Recorder // nil unless --record
	log     *slog.Logger
	board   *render.Board
	hud     *render.HUD
	tracers *render.Tracers
	input   *input.State

	script     script.Script
	scriptName string

	hoverX, hoverZ int
	preview        []script.PreviewStep

	msgMu sync.Mutex
	msg   string
}

func NewGame(ctx context.Context, sess *session.Session, db *persistence.DB, sc script.Script, name string) *Game {
	g := &Game{
		ctx:        ctx,
		sess:       sess,
		db:         db,
		log:        slog.Default().With("component", "viewer"),
		board:      render.NewBoard(ScreenWidth, ScreenHeight),
		hud:        &render.HUD{Kind: core.KindInfantry},
		tracers:    &render.Tracers{},
		input:      input.NewState(),
		script:     sc,
		scriptName: name,
	}
	sess.On(core.EvtTracer, g.tracers.Handler())
	sess.On(core.EvtPointCaptured, func(e core.Event) {
		if c, ok := e.Payload.(core.Capture); ok {
			g.say(fmt.Sprintf("point %d captured by %s", c.Point, c.To))
		}
	})
	sess.On(core.EvtUnitDestroyed, func(e core.Event) {
		g.say(fmt.Sprintf("unit %v destroyed", e.Payload))
	})
	return g
}

// say sets the HUD message. Called from event handlers and worker goroutines.
func (g *Game) say(msg string) {
	g.msgMu.Lock()
	g.msg = msg
	g.msgMu.Unlock()
}

func (g *Game) record(fn func(*replay.Recorder) error) {
	if g.journal == nil {
		return
	}
	if err := fn(g.journal); err != nil {
		g.log.Warn("journal write failed", "error", err)
	}
}

func (g *Game) Update() error {
	g.input.Update()
	g.handleCamera()
	g.tracers.Update(time.Second / time.Duration(ebiten.TPS()))

	tm := g.sess.Map()
	g.hoverX, g.hoverZ = g.board.HoverTile(tm, g.input.MouseX, g.input.MouseY)

	for _, a := range g.input.Actions {
		g.handleAction(a)
	}
	if g.input.LeftClicked {
		g.handleClick()
	}

	g.preview = nil
	if id, ok := g.sess.Selected(); ok && len(g.script) > 0 {
		g.preview, _ = g.sess.Preview(id, g.script)
	}

	g.sess.DispatchEvents()
	return nil
}

func (g *Game) handleCamera() {
	cam := g.board.Camera
	speed := cam.Speed / float64(ebiten.TPS())
	if g.input.PanX != 0 || g.input.PanY != 0 {
		cam.Pan(g.input.PanX*speed, g.input.PanY*speed)
	}
	if g.input.ScrollY != 0 {
		cam.ZoomAt(g.input.ScrollY*0.1, g.input.MouseX, g.input.MouseY)
	}
	if g.input.Dragging {
		cam.Pan(float64(-g.input.MouseDX), float64(-g.input.MouseDY))
	}
}

func (g *Game) handleAction(a input.Action) {
	switch a {
	case input.ActionKind1:
		g.hud.Kind = core.KindInfantry
	case input.ActionKind2:
		g.hud.Kind = core.KindTank
	case input.ActionKind3:
		g.hud.Kind = core.KindHeli
	case input.ActionDeselect:
		g.sess.DeselectUnit()
	case input.ActionRun:
		g.runSelected()
	case input.ActionEndTurn:
		go func() {
			turn := g.sess.Snapshot().Turn.Number
			fx, err := g.sess.EndTurn(g.ctx)
			if err != nil {
				g.say("end turn: " + err.Error())
				return
			}
			g.record(func(r *replay.Recorder) error { return r.EndTurn(turn) })
			g.say(fmt.Sprintf("enemy took %d actions", len(fx)))
		}()
	case input.ActionSave:
		id, err := g.sess.Save(g.ctx, g.db)
		if err != nil {
			g.say("save: " + err.Error())
			return
		}
		g.say("saved " + id)
	case input.ActionLoad:
		_, id, err := g.db.Latest(g.ctx)
		if err != nil {
			g.say("load: " + err.Error())
			return
		}
		if err := g.sess.Load(g.ctx, g.db, id); err != nil {
			g.say("load: " + err.Error())
			return
		}
		if g.journal != nil {
			// the journal no longer describes this match
			g.journal = nil
			g.log.Warn("journal stopped after load", "save", id)
		}
		g.say("loaded " + id)
	}
}

func (g *Game) runSelected() {
	id, ok := g.sess.Selected()
	if !ok {
		g.say("select a unit first")
		return
	}
	if len(g.script) == 0 {
		g.say("no script loaded (use --script)")
		return
	}
	if err := g.sess.SetScript(id, g.script); err != nil {
		g.say("script: " + err.Error())
		return
	}
	effects, err := g.sess.RunScript(g.ctx, id)
	if err != nil {
		g.say("run: " + err.Error())
		return
	}
	turn := g.sess.Snapshot().Turn.Number
	g.record(func(r *replay.Recorder) error { return r.Run(turn, id, g.script) })
	g.say(fmt.Sprintf("running %q on unit %d", g.scriptName, id))
	go func() {
		for e := range effects {
			g.log.Debug("effect", "effect", e.String())
			if e.Type == interp.EffectHalted {
				g.say(e.String())
			}
		}
	}()
}

// handleClick selects a unit under the cursor, otherwise places the chosen
// kind on the hovered tile.
func (g *Game) handleClick() {
	snap := g.sess.Snapshot()
	for _, u := range snap.Units {
		sx, sy := g.board.Camera.WorldToScreen(u.Position.X, u.Position.Z)
		dx := float64(float32(g.input.MouseX) - sx)
		dy := float64(float32(g.input.MouseY) - sy)
		if math.Hypot(dx, dy) < 12 {
			if err := g.sess.SelectUnit(u.ID); err != nil {
				g.say("select: " + err.Error())
			}
			return
		}
	}

	tile := session.Tile{X: g.hoverX, Z: g.hoverZ}
	id, err := g.sess.PlaceUnit(core.TeamPlayer, g.hud.Kind, tile)
	if err != nil {
		g.say("place: " + err.Error())
		return
	}
	g.record(func(r *replay.Recorder) error { return r.Place(snap.Turn.Number, id, g.hud.Kind, tile) })
	g.say(fmt.Sprintf("placed unit %d", id))
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{20, 20, 30, 255})

	snap := g.sess.Snapshot()
	tm := g.sess.Map()
	rules := g.sess.Rules()
	kinds := g.sess.Catalog()

	g.board.DrawMap(screen, tm)
	g.board.DrawHover(screen, tm, g.hoverX, g.hoverZ, tm.Walkable(g.hoverX, g.hoverZ))
	g.board.DrawPoints(screen, snap.Points, rules.CaptureRadius)
	g.board.DrawPreview(screen, g.preview)
	g.board.DrawUnits(screen, snap, kinds)
	g.board.DrawTracers(screen, g.tracers)

	hover := ""
	if t := tm.At(g.hoverX, g.hoverZ); t != nil {
		hover = fmt.Sprintf("tile (%d,%d) %s", t.X, t.Z, t.Terrain)
	}
	g.msgMu.Lock()
	g.hud.Message = g.msg
	g.msgMu.Unlock()
	g.hud.Draw(screen, snap, kinds, hover)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

func loadScript(path string) (string, script.Script, error) {
	if path == "" {
		return "", nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	return script.LoadYAML(f)
}

func run() error {
	configDir := flag.String("config", ".", "Directory holding "+config.FileName)
	scriptPath := flag.String("script", "", "YAML script run by R on the selected unit")
	savePath := flag.String("save", "", "Save database (default from config)")
	recordPath := flag.String("record", "", "Journal the match to this file for replay")
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		return err
	}
	logOpts := config.GetLogging()
	logOpts.Console = os.Stderr
	logging.Setup(logOpts)

	rec, err := metrics.New(nil)
	if err != nil {
		return err
	}
	defer rec.Close()

	name, sc, err := loadScript(*scriptPath)
	if err != nil {
		return fmt.Errorf("loading script: %w", err)
	}

	path := *savePath
	if path == "" {
		path = config.GetString("savePath")
	}
	db, err := persistence.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	opts, err := session.OptionsFromConfig()
	if err != nil {
		return err
	}
	opts.Pacer = core.WallClock{}
	opts.Metrics = rec

	var journal *replay.Recorder
	if *recordPath != "" {
		seed := config.GetAI().Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		replay.Seed(&opts, seed)
		if journal, err = replay.NewRecorder(*recordPath, seed); err != nil {
			return err
		}
		defer journal.Close()
	}
	sess, err := session.New(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	game := NewGame(ctx, sess, db, sc, name)
	game.journal = journal

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("Tactics")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(true)

	err = ebiten.RunGame(game)
	sess.CancelScripts()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func main() {
	if err := run(); err != nil {
		slog.Error("tactics exited", "error", err)
		os.Exit(1)
	}
}
