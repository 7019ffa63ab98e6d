package schedule

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/notify"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/bus"
	"github.com/npc-hackathon/tripplanner/internal/pkg/metrics"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

// Toast id of the run-wide progress toast. The "scheduling started" toast
// is pushed under this id and the terminal completed event updates it in
// place.
const runToastID = "ai-start"

// Projector folds decoded stream events into user-visible state: the
// toast collection, the per-place pipeline status map and the persisted
// completed payload. Each event is also republished on the bus for
// anything else that wants to follow the run.
type Projector struct {
	mu        sync.Mutex
	statuses  map[string]models.PlaceStatus
	scheduled []json.RawMessage

	toasts  *notify.Store
	result  *storage.BlobRepo[json.RawMessage]
	events  *bus.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewProjector(toasts *notify.Store, result *storage.BlobRepo[json.RawMessage], events *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{
		statuses: make(map[string]models.PlaceStatus),
		toasts:   toasts,
		result:   result,
		events:   events,
		metrics:  m,
		logger:   logger,
	}
}

// Begin resets per-run state and announces the run.
func (p *Projector) Begin() {
	p.mu.Lock()
	p.statuses = make(map[string]models.PlaceStatus)
	p.scheduled = nil
	p.mu.Unlock()

	p.toasts.Push(models.Toast{
		ID:         runToastID,
		Variant:    models.ToastInfo,
		Message:    "Đang lập lịch...",
		AutoHide:   true,
		DurationMs: 4000,
	})
}

// Apply projects one decoded event.
func (p *Projector) Apply(ev models.StreamEvent) {
	if ev.Opaque {
		p.metrics.ObserveStreamEvent("opaque")
		p.toasts.Push(models.Toast{
			Variant:    models.ToastInfo,
			Message:    ev.Raw,
			AutoHide:   true,
			DurationMs: 4000,
		})
		return
	}

	p.metrics.ObserveStreamEvent(string(ev.Status))
	if p.events != nil {
		p.events.Publish(bus.ScheduleStreamEvent{Event: ev})
	}

	switch ev.Status {
	case models.StatusPlaceScheduled:
		p.applyPlaceScheduled(ev)
	case models.StatusAIProcessingPlace:
		p.applyProcessingPlace(ev)
	case models.StatusCompleted:
		p.applyCompleted(ev)
	case models.StatusError, models.StatusPlaceError:
		p.applyGeneric(ev, models.ToastDanger)
	default:
		p.applyGeneric(ev, models.ToastInfo)
	}
}

func (p *Projector) applyPlaceScheduled(ev models.StreamEvent) {
	p.mu.Lock()
	p.statuses[ev.Place] = models.PlaceStatus{Status: "scheduled", Data: ev.Data}
	if len(ev.Data) > 0 {
		p.scheduled = append(p.scheduled, ev.Data)
	}
	p.mu.Unlock()

	p.toasts.Push(models.Toast{
		ID:         placeToastID(ev.Place),
		Variant:    models.ToastSuccess,
		Message:    ev.Place + " đã được lập lịch",
		AutoHide:   true,
		DurationMs: 3000,
	})
}

func (p *Projector) applyProcessingPlace(ev models.StreamEvent) {
	p.mu.Lock()
	p.statuses[ev.Place] = models.PlaceStatus{Status: "processing", Message: ev.Message}
	p.mu.Unlock()

	msg := ev.Message
	if msg == "" {
		msg = ev.Place
	}
	// persistent until place_scheduled overwrites it by id
	p.toasts.Push(models.Toast{
		ID:       placeToastID(ev.Place),
		Variant:  models.ToastInfo,
		Message:  "🤖" + msg,
		AutoHide: false,
	})
}

func (p *Projector) applyCompleted(ev models.StreamEvent) {
	if err := p.result.Set(json.RawMessage(ev.Raw)); err != nil {
		p.logger.Warn("Failed to persist completed schedule", zap.Error(err))
	}
	if p.events != nil {
		p.events.Publish(bus.ScheduleCompleted{Payload: json.RawMessage(ev.Raw)})
	}

	p.toasts.Push(models.Toast{
		ID:         runToastID,
		Variant:    models.ToastSuccess,
		Message:    "Lập lịch hoàn tất",
		AutoHide:   true,
		DurationMs: 4000,
	})
}

func (p *Projector) applyGeneric(ev models.StreamEvent, variant models.ToastVariant) {
	msg, show := notify.DisplayMessage(ev.Raw)
	if !show {
		// place_hours_ready carries data for later views, never a toast
		return
	}
	p.toasts.Push(models.Toast{
		Variant:    variant,
		Message:    msg,
		AutoHide:   true,
		DurationMs: 4000,
	})
}

// PlaceStatuses returns a snapshot of the per-place pipeline map.
func (p *Projector) PlaceStatuses() map[string]models.PlaceStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]models.PlaceStatus, len(p.statuses))
	for k, v := range p.statuses {
		out[k] = v
	}
	return out
}

// ScheduledPlaces returns the entries accumulated during the current run.
func (p *Projector) ScheduledPlaces() []json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]json.RawMessage, len(p.scheduled))
	copy(out, p.scheduled)
	return out
}

func placeToastID(place string) string {
	return "place-" + place
}
