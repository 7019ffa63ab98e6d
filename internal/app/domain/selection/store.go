package selection

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/places"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/bus"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

// ErrNoIdentifier is returned when a record cannot be toggled because it
// has no stable ref id.
var ErrNoIdentifier = errors.New("selection: record has no identifier")

// Store is the user's current place selection: a mapping from ref id to
// normalized Place, mirrored to persistent storage after every toggle so
// other views can pick it up. The in-memory copy is the authority for the
// view that owns it; external writes are only noticed through a
// StorageChanged notification.
type Store struct {
	mu       sync.RWMutex
	selected map[string]bool
	byRef    map[string]models.Place
	order    []string // insertion order of refs, for stable listing

	repo   *storage.BlobRepo[[]models.Place]
	events *bus.Bus
	logger *zap.Logger
}

func NewStore(repo *storage.BlobRepo[[]models.Place], events *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		selected: make(map[string]bool),
		byRef:    make(map[string]models.Place),
		repo:     repo,
		events:   events,
		logger:   logger,
	}
	s.Load()
	return s
}

// Load re-reads the persisted selection. Malformed or absent data yields
// an empty store; Load never fails.
func (s *Store) Load() {
	saved, _ := s.repo.Get()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = make(map[string]bool)
	s.byRef = make(map[string]models.Place)
	s.order = s.order[:0]
	for _, p := range saved {
		if p.RefID == "" {
			continue
		}
		if _, dup := s.byRef[p.RefID]; dup {
			continue
		}
		s.selected[p.RefID] = true
		s.byRef[p.RefID] = p
		s.order = append(s.order, p.RefID)
	}
}

// WatchStorage subscribes to the bus and reloads when another writer
// rewrites the selection blob. The returned func stops the watcher.
func (s *Store) WatchStorage() func() {
	ch, cancel := s.events.Subscribe(8)
	go func() {
		for ev := range ch {
			if changed, ok := ev.(bus.StorageChanged); ok && changed.Key == storage.KeySelection {
				s.Load()
			}
		}
	}()
	return cancel
}

// Toggle flips membership of the given raw record and synchronously
// persists the full selection. On insertion the normalized Place is
// stored; on removal the identifier is dropped from both maps.
func (s *Store) Toggle(raw map[string]interface{}) (bool, error) {
	place := places.Normalize(raw)
	if place == nil {
		return false, ErrNoIdentifier
	}

	s.mu.Lock()
	nowSelected := !s.selected[place.RefID]
	if nowSelected {
		s.selected[place.RefID] = true
		s.byRef[place.RefID] = *place
		s.order = append(s.order, place.RefID)
	} else {
		delete(s.selected, place.RefID)
		delete(s.byRef, place.RefID)
		s.dropOrderLocked(place.RefID)
	}
	snapshot := s.listLocked()
	s.mu.Unlock()

	if err := s.repo.Set(snapshot); err != nil {
		s.logger.Warn("Failed to persist selection", zap.Error(err))
	}
	if s.events != nil {
		s.events.Publish(bus.PlaceSelected{Place: *place, Selected: nowSelected})
	}
	return nowSelected, nil
}

// Remove drops a place by ref id (the delete button in the selected-places
// view) and persists.
func (s *Store) Remove(refID string) {
	s.mu.Lock()
	_, existed := s.byRef[refID]
	delete(s.selected, refID)
	delete(s.byRef, refID)
	s.dropOrderLocked(refID)
	snapshot := s.listLocked()
	s.mu.Unlock()

	if !existed {
		return
	}
	if err := s.repo.Set(snapshot); err != nil {
		s.logger.Warn("Failed to persist selection", zap.Error(err))
	}
}

// IsSelected reports the results-view flag for a ref id.
func (s *Store) IsSelected(refID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected[refID]
}

// List returns the selected places in insertion order.
func (s *Store) List() []models.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked()
}

func (s *Store) listLocked() []models.Place {
	out := make([]models.Place, 0, len(s.order))
	for _, ref := range s.order {
		if p, ok := s.byRef[ref]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) dropOrderLocked(refID string) {
	for i, ref := range s.order {
		if ref == refID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
