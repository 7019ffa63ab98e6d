package notify

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/metrics"
)

// Store keeps the live toast collection. Toasts are identity-keyed:
// pushing with an id that already exists updates that entry in place
// (message, variant, duration), pushing with a new or absent id prepends a
// new entry, removing by id deletes that single entry. That protocol lets
// a place's long-running "processing" toast be replaced by its
// "scheduled" toast without flicker or duplication.
type Store struct {
	mu       sync.RWMutex
	toasts   []models.Toast // newest first
	logger   *zap.Logger
	metrics  *metrics.Metrics
	onChange func([]models.Toast)
	wake     chan struct{}
}

func NewStore(logger *zap.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger, metrics: m}
}

// SetOnChange registers a callback invoked with collection snapshots.
// Delivery runs on a single dispatcher goroutine: bursts of mutations may
// coalesce into one callback, but the snapshot delivered last always
// reflects the newest state. Used by the websocket hub to fan the
// collection out to tabs.
func (s *Store) SetOnChange(fn func([]models.Toast)) {
	s.mu.Lock()
	s.onChange = fn
	if s.wake == nil {
		s.wake = make(chan struct{}, 1)
		go s.dispatch()
	}
	s.mu.Unlock()
}

func (s *Store) dispatch() {
	for range s.wake {
		s.mu.RLock()
		fn := s.onChange
		snapshot := make([]models.Toast, len(s.toasts))
		copy(snapshot, s.toasts)
		s.mu.RUnlock()

		if fn != nil {
			fn(snapshot)
		}
	}
}

// Push inserts or updates a toast and returns its id.
func (s *Store) Push(toast models.Toast) string {
	s.mu.Lock()

	if toast.ID != "" {
		for i := range s.toasts {
			if s.toasts[i].ID == toast.ID {
				s.toasts[i].Message = toast.Message
				s.toasts[i].Variant = toast.Variant
				s.toasts[i].DurationMs = toast.DurationMs
				s.toasts[i].AutoHide = toast.AutoHide
				s.notifyLocked("update")
				s.mu.Unlock()
				return toast.ID
			}
		}
	} else {
		toast.ID = uuid.New().String()
	}

	s.toasts = append([]models.Toast{toast}, s.toasts...)
	s.notifyLocked("push")
	s.mu.Unlock()

	s.logger.Debug("Toast pushed",
		zap.String("id", toast.ID),
		zap.String("variant", string(toast.Variant)))
	return toast.ID
}

// Remove deletes the toast with the given id, if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.toasts {
		if s.toasts[i].ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			s.notifyLocked("remove")
			return
		}
	}
}

// List returns a snapshot of the collection, newest first.
func (s *Store) List() []models.Toast {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

// notifyLocked must be called with s.mu held.
func (s *Store) notifyLocked(kind string) {
	if s.metrics != nil {
		s.metrics.ObserveToast(kind)
	}
	if s.wake != nil {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// DisplayMessage normalizes a raw toast message the way the container view
// did: if the message is a JSON object, prefer its `message` field, then
// its `status`, then the compact JSON itself. The second return is false
// when the payload is a place_hours_ready carrier that should produce no
// toast at all.
func DisplayMessage(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", true
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return raw, true
	}

	if status, _ := obj["status"].(string); status == string(models.StatusPlaceHoursReady) {
		if _, hasData := obj["data"]; hasData {
			return "", false
		}
	}

	if msg, _ := obj["message"].(string); strings.TrimSpace(msg) != "" {
		return msg, true
	}
	if status, _ := obj["status"].(string); strings.TrimSpace(status) != "" {
		return status, true
	}

	compact, err := json.Marshal(obj)
	if err != nil {
		return raw, true
	}
	return string(compact), true
}
