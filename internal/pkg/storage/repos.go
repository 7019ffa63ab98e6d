package storage

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

// Storage keys. These mirror the blobs the original UI kept in
// localStorage, so an export of one maps one-to-one onto the other.
const (
	KeySearchPanel    = "ai:section1"
	KeySelection      = "ai:selectedPlaces"
	KeyScheduleResult = "ai:scheduleResult"
	KeyMapCenter      = "center"
)

// BlobRepo wraps one logical blob behind a typed get/set/clear API with
// schema validation. Malformed or absent data reads as absence, never an
// error the caller has to handle.
type BlobRepo[T any] struct {
	store    BlobStore
	key      string
	logger   *zap.Logger
	onChange func(key string)
}

func NewBlobRepo[T any](store BlobStore, key string, logger *zap.Logger, onChange func(key string)) *BlobRepo[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobRepo[T]{store: store, key: key, logger: logger, onChange: onChange}
}

// Get returns the decoded blob and whether it was present and well-formed.
func (r *BlobRepo[T]) Get() (T, bool) {
	var zero T

	raw, err := r.store.Get(r.key)
	if err != nil {
		return zero, false
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		// treat malformed persisted data as absent
		r.logger.Warn("Discarding malformed blob",
			zap.String("key", r.key),
			zap.Error(err))
		return zero, false
	}
	return value, true
}

func (r *BlobRepo[T]) Set(value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.store.Set(r.key, raw); err != nil {
		return err
	}
	if r.onChange != nil {
		r.onChange(r.key)
	}
	return nil
}

func (r *BlobRepo[T]) Clear() error {
	if err := r.store.Delete(r.key); err != nil {
		return err
	}
	if r.onChange != nil {
		r.onChange(r.key)
	}
	return nil
}

// Repos bundles the typed repositories for every persisted blob.
type Repos struct {
	Panel          *BlobRepo[models.SearchPanelState]
	Selection      *BlobRepo[[]models.Place]
	ScheduleResult *BlobRepo[json.RawMessage]
	MapCenter      *BlobRepo[models.LatLng]
}

// NewRepos builds the repository set over one BlobStore. onChange, when
// non-nil, is invoked with the storage key after every successful write.
// The event bus hooks in here to emit StorageChanged notifications.
func NewRepos(store BlobStore, logger *zap.Logger, onChange func(key string)) *Repos {
	return &Repos{
		Panel:          NewBlobRepo[models.SearchPanelState](store, KeySearchPanel, logger, onChange),
		Selection:      NewBlobRepo[[]models.Place](store, KeySelection, logger, onChange),
		ScheduleResult: NewBlobRepo[json.RawMessage](store, KeyScheduleResult, logger, onChange),
		MapCenter:      NewBlobRepo[models.LatLng](store, KeyMapCenter, logger, onChange),
	}
}
