package core

import "sync"

// Event represents a game event
type Event struct {
	Type    EventType
	Turn    int
	Payload any
}

type EventType uint16

const (
	EvtUnitPlaced EventType = iota
	EvtUnitSpawned
	EvtUnitDestroyed
	EvtUnitMoved
	EvtUnitAttack
	EvtTracer
	EvtPointCaptured
	EvtPhaseChanged
	EvtIncome
)

// Tracer is the payload of EvtTracer: a projectile from Start to End for the
// renderer to animate. Nobody waits for it to be consumed.
type Tracer struct {
	Attacker UnitID
	Target   UnitID
	Start    Vec3
	End      Vec3
}

// Capture is the payload of EvtPointCaptured
type Capture struct {
	Point PointID
	From  Team
	To    Team
}

// EventBus queues events from the simulation and hands them to listeners when
// the presentation side calls Dispatch. Emit and Dispatch may run on
// different goroutines.
type EventBus struct {
	mu        sync.Mutex
	listeners map[EventType][]EventHandler
	queue     []Event
}

type EventHandler func(e Event)

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type
func (eb *EventBus) On(t EventType, h EventHandler) {
	eb.mu.Lock()
	eb.listeners[t] = append(eb.listeners[t], h)
	eb.mu.Unlock()
}

// Emit queues an event for dispatch
func (eb *EventBus) Emit(e Event) {
	eb.mu.Lock()
	eb.queue = append(eb.queue, e)
	eb.mu.Unlock()
}

// Pending returns the number of queued events
func (eb *EventBus) Pending() int {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return len(eb.queue)
}

// Dispatch processes all queued events. Handlers run without the bus lock
// held, so they may Emit.
func (eb *EventBus) Dispatch() {
	eb.mu.Lock()
	queue := eb.queue
	eb.queue = nil
	listeners := make(map[EventType][]EventHandler, len(eb.listeners))
	for t, hs := range eb.listeners {
		listeners[t] = hs
	}
	eb.mu.Unlock()

	for _, e := range queue {
		for _, h := range listeners[e.Type] {
			h(e)
		}
	}
}
