package bus

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

// Event is the closed set of messages the views exchange. The original UI
// used stringly-typed window events for this; the fixed variants below
// replace them.
type Event interface{ isEvent() }

// PlaceSelected fires when the selection store toggles a place.
type PlaceSelected struct {
	Place    models.Place
	Selected bool
}

// ScheduleRequested fires when a scheduling run is submitted, before any
// network traffic. The container uses it to flip into its busy state.
type ScheduleRequested struct {
	Request models.ScheduleRequest
}

// ScheduleStreamEvent forwards each decoded scheduler event.
type ScheduleStreamEvent struct {
	Event models.StreamEvent
}

// ScheduleCompleted carries the terminal payload, verbatim.
type ScheduleCompleted struct {
	Payload json.RawMessage
}

// StorageChanged announces that a persisted blob was rewritten. This is
// the stand-in for the browser's cross-tab storage notification: observers
// re-read on it and tolerate staleness in between.
type StorageChanged struct {
	Key string
}

func (PlaceSelected) isEvent()       {}
func (ScheduleRequested) isEvent()   {}
func (ScheduleStreamEvent) isEvent() {}
func (ScheduleCompleted) isEvent()   {}
func (StorageChanged) isEvent()      {}

type subscriber struct {
	ch chan Event
}

// Bus is a small in-process pub/sub fan-out. Publish never blocks: a
// subscriber that cannot keep up loses events rather than stalling the
// publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	logger *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[string]*subscriber),
		logger: logger,
	}
}

// Subscribe registers a listener with the given channel buffer and returns
// the event channel plus an unsubscribe func. Unsubscribing closes the
// channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	sub := &subscriber{ch: make(chan Event, buffer)}
	b.subs[id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			close(s.ch)
			delete(b.subs, id)
		}
	}
	return sub.ch, cancel
}

// Publish delivers the event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			b.logger.Debug("Dropping bus event for slow subscriber",
				zap.String("subscriber", id))
		}
	}
}
