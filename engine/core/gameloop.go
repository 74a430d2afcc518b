package core

import (
	"context"
	"time"
)

// Pacer suspends a script or AI pass between visible steps. Pause returns
// early with ctx's error when ctx is done.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration) error
}

// WallClock pauses for real time
type WallClock struct{}

func (WallClock) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Instant never waits. Headless runs and tests use it.
type Instant struct{}

func (Instant) Pause(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Recorder is an Instant pacer that remembers every requested pause.
type Recorder struct {
	Pauses []time.Duration
}

func (r *Recorder) Pause(ctx context.Context, d time.Duration) error {
	r.Pauses = append(r.Pauses, d)
	return ctx.Err()
}

// Total returns the sum of recorded pauses
func (r *Recorder) Total() time.Duration {
	var sum time.Duration
	for _, d := range r.Pauses {
		sum += d
	}
	return sum
}
