// Package metrics exposes game counters through OpenTelemetry. With no
// provider installed the global meter is a no-op.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/1siamBot/tactics-engine/engine/metrics"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Recorder holds the session counters. A nil *Recorder records nothing.
type Recorder struct {
	commands metric.Int64Counter
	halts    metric.Int64Counter
	attacks  metric.Int64Counter
	spawns   metric.Int64Counter
	turns    metric.Int64Counter
	income   metric.Int64Counter
	units    metric.Int64ObservableGauge
	reg      metric.Registration
	meter    metric.Meter
}

// Gauge reports live unit counts per team and the treasury
type Gauge func() (player, enemy, treasury int64)

// New creates the instruments on m, or on the global meter when m is nil.
func New(m metric.Meter) (*Recorder, error) {
	if m == nil {
		m = meter()
	}
	r := &Recorder{meter: m}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&r.commands, "script.commands", "Script commands executed"},
		{&r.halts, "script.halts", "Script runs halted, by reason"},
		{&r.attacks, "combat.attacks", "Attacks resolved"},
		{&r.spawns, "units.spawned", "Units placed or spawned"},
		{&r.turns, "turns.completed", "Full player and enemy cycles"},
		{&r.income, "treasury.income", "Money credited at player phase start"},
	}
	for _, c := range counters {
		*c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	r.units, err = m.Int64ObservableGauge(
		"session.units",
		metric.WithDescription("Live units per team, and the treasury"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating units gauge: %w", err)
	}
	return r, nil
}

// Observe registers g to be sampled on every collection. A nil m means the
// meter the instruments were created on.
func (r *Recorder) Observe(m metric.Meter, g Gauge) error {
	if r == nil {
		return nil
	}
	if m == nil {
		m = r.meter
	}
	reg, err := m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			player, enemy, treasury := g()
			o.ObserveInt64(r.units, player, metric.WithAttributes(attribute.String("team", "player")))
			o.ObserveInt64(r.units, enemy, metric.WithAttributes(attribute.String("team", "enemy")))
			o.ObserveInt64(r.units, treasury, metric.WithAttributes(attribute.String("team", "treasury")))
			return nil
		},
		r.units,
	)
	if err != nil {
		return fmt.Errorf("registering units callback: %w", err)
	}
	r.reg = reg
	return nil
}

// Close unregisters the gauge callback
func (r *Recorder) Close() error {
	if r == nil || r.reg == nil {
		return nil
	}
	return r.reg.Unregister()
}

func (r *Recorder) Command(ctx context.Context, kind string) {
	if r == nil {
		return
	}
	r.commands.Add(ctx, 1, metric.WithAttributes(attribute.String("command", kind)))
}

func (r *Recorder) Halt(ctx context.Context, reason string) {
	if r == nil {
		return
	}
	r.halts.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (r *Recorder) Attack(ctx context.Context, team string, killed bool) {
	if r == nil {
		return
	}
	r.attacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("team", team),
		attribute.Bool("killed", killed),
	))
}

func (r *Recorder) Spawn(ctx context.Context, team, kind string) {
	if r == nil {
		return
	}
	r.spawns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("team", team),
		attribute.String("kind", kind),
	))
}

func (r *Recorder) Turn(ctx context.Context, income int) {
	if r == nil {
		return
	}
	r.turns.Add(ctx, 1)
	r.income.Add(ctx, int64(income))
}
