package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/tactics-engine/engine/core"
)

func TestTracers_Age(t *testing.T) {
	var tr Tracers
	h := tr.Handler()
	h(core.Event{Type: core.EvtTracer, Payload: core.Tracer{Attacker: 1, Target: 2}})
	h(core.Event{Type: core.EvtTracer, Payload: "not a tracer"})

	live := tr.Live()
	require.Len(t, live, 1)
	assert.Zero(t, live[0].Progress)

	tr.Update(250 * time.Millisecond)
	live = tr.Live()
	require.Len(t, live, 1)
	assert.InDelta(t, 0.5, live[0].Progress, 1e-9)

	tr.Update(250 * time.Millisecond)
	assert.Empty(t, tr.Live())
}
