// Command preview prints the simulated path of a YAML unit script and can
// run it headless against a fresh match.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/1siamBot/tactics-engine/engine/config"
	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/logging"
	"github.com/1siamBot/tactics-engine/engine/replay"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/session"
)

func main() {
	configDir := flag.String("config", ".", "Directory holding "+config.FileName)
	scriptPath := flag.String("script", "", "YAML script file (required)")
	kind := flag.String("kind", string(core.KindInfantry), "Unit kind whose speed bounds the preview")
	startX := flag.Float64("x", -12, "Start X")
	startZ := flag.Float64("z", -12, "Start Z")
	runIt := flag.Bool("run", false, "Also run the script on the opening player unit")
	journal := flag.String("replay", "", "Play a recorded match journal instead")
	flag.Parse()

	if *journal != "" {
		if err := playJournal(os.Stdout, *configDir, *journal); err != nil {
			slog.Error("replay failed", "error", err)
			os.Exit(1)
		}
		return
	}
	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "usage: preview --script FILE [--run] | --replay FILE")
		os.Exit(2)
	}
	if err := run(os.Stdout, *configDir, *scriptPath, core.Kind(strings.ToUpper(*kind)), script.Point{X: *startX, Z: *startZ}, *runIt); err != nil {
		slog.Error("preview failed", "error", err)
		os.Exit(1)
	}
}

func setup(configDir string) error {
	if err := config.Load(configDir); err != nil {
		return err
	}
	logOpts := config.GetLogging()
	logOpts.Console = os.Stderr
	logging.Setup(logOpts)
	return nil
}

// playJournal replays a recorded match headless and prints what happened
func playJournal(out io.Writer, configDir, path string) error {
	if err := setup(configDir); err != nil {
		return err
	}
	j, err := replay.Load(path)
	if err != nil {
		return err
	}
	opts, err := session.OptionsFromConfig()
	if err != nil {
		return err
	}
	opts.Pacer = core.Instant{}
	opts.AI.Think = 0
	replay.Seed(&opts, j.Seed)
	sess, err := session.New(opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "journal seed %d, %d actions\n", j.Seed, len(j.Actions))
	err = replay.Play(context.Background(), sess, j, func(a replay.Action, fx []interp.Effect) {
		fmt.Fprintf(out, "turn %d %s unit %d\n", a.Turn, a.Type, a.Unit)
		for _, e := range fx {
			fmt.Fprintf(out, "  %s\n", e)
		}
	})
	if err != nil {
		return err
	}
	snap := sess.Snapshot()
	fmt.Fprintf(out, "final: %s, treasury $%d, %d units\n", snap.Turn, int(snap.Treasury), len(snap.Units))
	return nil
}

func run(out io.Writer, configDir, path string, kind core.Kind, start script.Point, runIt bool) error {
	if err := setup(configDir); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	name, sc, err := script.LoadYAML(f)
	if err != nil {
		return err
	}

	opts, err := session.OptionsFromConfig()
	if err != nil {
		return err
	}
	stats, ok := opts.Catalog[kind]
	if !ok {
		return fmt.Errorf("kind %s: %w", kind, session.ErrUnknownKind)
	}

	fmt.Fprintf(out, "script %q, %d commands, %s speed %.0f\n", name, sc.Len(), kind, stats.Speed)
	for _, st := range script.Preview(start, stats.Speed, opts.Rules.MoveBudgetFactor, sc) {
		mark := ""
		if !st.Valid {
			mark = "  out of budget"
		}
		fmt.Fprintf(out, "  %-6s (%.1f, %.1f)  dist %.1f%s\n", st.Type, st.At.X, st.At.Z, st.Dist, mark)
	}
	if !runIt {
		return nil
	}

	opts.Pacer = core.Instant{}
	sess, err := session.New(opts)
	if err != nil {
		return err
	}
	var unit core.Unit
	for _, u := range sess.Snapshot().Units {
		if u.Team == core.TeamPlayer {
			unit = u
			break
		}
	}
	if err := sess.SetScript(unit.ID, sc); err != nil {
		return err
	}
	effects, err := sess.RunScript(context.Background(), unit.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run on unit %d at (%.1f, %.1f)\n", unit.ID, unit.Position.X, unit.Position.Z)
	for e := range effects {
		fmt.Fprintf(out, "  %s\n", e)
	}
	return nil
}
