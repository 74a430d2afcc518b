package render

import (
	"sync"
	"time"

	"github.com/1siamBot/tactics-engine/engine/core"
)

// TracerLife is how long a projectile stays on screen
const TracerLife = 500 * time.Millisecond

// LiveTracer is a tracer with its animation progress in [0,1]
type LiveTracer struct {
	core.Tracer
	Progress float64
}

// Tracers collects EvtTracer payloads and ages them each frame. Add may be
// called from event handlers on any goroutine.
type Tracers struct {
	mu   sync.Mutex
	live []tracer
}

type tracer struct {
	core.Tracer
	age time.Duration
}

// Add starts a tracer
func (t *Tracers) Add(tr core.Tracer) {
	t.mu.Lock()
	t.live = append(t.live, tracer{Tracer: tr})
	t.mu.Unlock()
}

// Update ages every tracer by dt and drops the expired ones
func (t *Tracers) Update(dt time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.live[:0]
	for _, tr := range t.live {
		tr.age += dt
		if tr.age < TracerLife {
			kept = append(kept, tr)
		}
	}
	t.live = kept
}

// Live returns the tracers currently on screen
func (t *Tracers) Live() []LiveTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]LiveTracer, len(t.live))
	for i, tr := range t.live {
		out[i] = LiveTracer{Tracer: tr.Tracer, Progress: float64(tr.age) / float64(TracerLife)}
	}
	return out
}

// Handler adapts Add to an event handler
func (t *Tracers) Handler() core.EventHandler {
	return func(e core.Event) {
		if tr, ok := e.Payload.(core.Tracer); ok {
			t.Add(tr)
		}
	}
}
