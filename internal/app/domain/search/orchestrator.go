package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/places"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/selection"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/metrics"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

const (
	debounceSettle  = 350 * time.Millisecond
	minQueryLength  = 2
	autocompleteTTL = 10 * time.Second
)

// ErrNoLocation is returned when a search is submitted before any
// suggestion has been resolved to coordinates.
var ErrNoLocation = errors.New("search: no start location resolved")

// ErrUnknownCategories is returned when none of the requested category
// codes map to a known keyword set.
var ErrUnknownCategories = errors.New("search: no keywords for requested categories")

// Provider is the slice of the places API the orchestrator consumes.
type Provider interface {
	Autocomplete(ctx context.Context, text string) ([]models.Suggestion, error)
	PlaceDetail(ctx context.Context, refID string) (*models.PlaceDetail, error)
	Search(ctx context.Context, location models.LatLng, categories []string) ([]map[string]interface{}, error)
}

// Orchestrator drives the search panel: it debounces free-text input into
// autocomplete calls, resolves a chosen suggestion to coordinates, runs
// category searches around that point and keeps the panel state persisted
// so a restart restores the view.
//
// Autocomplete responses are sequence-checked: every keystroke bumps a
// counter, each in-flight call carries the counter value it was dispatched
// with, and a response whose value is no longer current is discarded. A
// late reply for an old query can therefore never overwrite suggestions
// for a newer one.
type Orchestrator struct {
	mu          sync.Mutex
	query       string
	suggestions []models.Suggestion
	suppress    bool // true right after a pick, until the user types again
	location    *models.LatLng
	placeInfo   *models.PlaceInfo
	categories  []string
	labels      []string
	results     []models.ResultPlace // nil until the first search completes

	timer   *time.Timer
	seq     uint64
	pending chan autocompleteOutcome

	provider Provider
	matcher  *places.CategoryMatcher
	panel    *storage.BlobRepo[models.SearchPanelState]
	center   *storage.BlobRepo[models.LatLng]
	sel      *selection.Store
	metrics  *metrics.Metrics
	logger   *zap.Logger

	debounce time.Duration
}

func NewOrchestrator(provider Provider, repos *storage.Repos, sel *selection.Store, m *metrics.Metrics, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		provider: provider,
		matcher:  places.NewCategoryMatcher(),
		panel:    repos.Panel,
		center:   repos.MapCenter,
		sel:      sel,
		metrics:  m,
		logger:   logger,
		debounce: debounceSettle,
	}
	o.hydrate()
	return o
}

// hydrate restores the persisted panel state. Absent or malformed state
// starts the panel empty.
func (o *Orchestrator) hydrate() {
	state, ok := o.panel.Get()
	if !ok {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.query = state.Query
	o.categories = state.Selected
	o.labels = state.SelectedLabels
	o.location = state.Location
	o.placeInfo = state.PlaceInfo
	o.results = state.LastResults
	o.suppress = state.Location != nil
}

type autocompleteOutcome struct {
	suggestions []models.Suggestion
	err         error
	superseded  bool
}

// SetQuery records a keystroke. Any pending debounce timer is cancelled
// and a new one armed; the autocomplete call only fires once input has
// been quiet for the settle window.
func (o *Orchestrator) SetQuery(ctx context.Context, text string) {
	o.setQuery(ctx, text, nil)
}

// QueryAndWait records a keystroke and blocks until its debounced
// autocomplete call completes. superseded is true when a newer keystroke
// arrived first, in which case the suggestions belong to that newer call.
func (o *Orchestrator) QueryAndWait(ctx context.Context, text string) (suggestions []models.Suggestion, superseded bool, err error) {
	done := make(chan autocompleteOutcome, 1)
	o.setQuery(ctx, text, done)

	select {
	case outcome := <-done:
		return outcome.suggestions, outcome.superseded, outcome.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (o *Orchestrator) setQuery(ctx context.Context, text string, done chan autocompleteOutcome) {
	o.mu.Lock()
	o.query = text
	o.suppress = false
	o.placeInfo = nil
	o.seq++
	seq := o.seq

	// When Stop reports the timer already fired, the in-flight
	// runAutocomplete owns the old channel and will deliver the
	// superseded outcome itself.
	if o.timer != nil && o.timer.Stop() && o.pending != nil {
		o.pending <- autocompleteOutcome{superseded: true}
	}
	o.pending = done
	o.timer = time.AfterFunc(o.debounce, func() {
		o.runAutocomplete(ctx, seq, text, done)
	})
	o.mu.Unlock()

	o.persistPanel()
}

func (o *Orchestrator) runAutocomplete(ctx context.Context, seq uint64, text string, done chan autocompleteOutcome) {
	outcome := o.autocompleteOnce(ctx, seq, text)

	o.mu.Lock()
	if o.pending == done {
		o.pending = nil
	}
	o.mu.Unlock()

	if done != nil {
		done <- outcome
	}
}

func (o *Orchestrator) autocompleteOnce(ctx context.Context, seq uint64, text string) autocompleteOutcome {
	trimmed := strings.TrimSpace(text)

	o.mu.Lock()
	stale := seq != o.seq || o.suppress
	o.mu.Unlock()
	if stale {
		return autocompleteOutcome{superseded: true}
	}
	if len([]rune(trimmed)) < minQueryLength {
		o.mu.Lock()
		if seq == o.seq {
			o.suggestions = nil
		}
		o.mu.Unlock()
		return autocompleteOutcome{}
	}

	ctx, cancel := context.WithTimeout(ctx, autocompleteTTL)
	defer cancel()

	suggestions, err := o.provider.Autocomplete(ctx, trimmed)
	if err != nil {
		o.logger.Warn("Autocomplete request failed", zap.Error(err))
		return autocompleteOutcome{err: err}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq || o.suppress {
		// a newer keystroke or a pick happened while this was in flight
		return autocompleteOutcome{superseded: true}
	}
	o.suggestions = suggestions
	return autocompleteOutcome{suggestions: suggestions}
}

// Suggestions returns the current dropdown contents.
func (o *Orchestrator) Suggestions() []models.Suggestion {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Suggestion, len(o.suggestions))
	copy(out, o.suggestions)
	return out
}

// SelectSuggestion resolves a picked suggestion to coordinates, makes it
// the start location and closes the dropdown. The map center is persisted
// so the map view can recenter.
func (o *Orchestrator) SelectSuggestion(ctx context.Context, s models.Suggestion) (*models.PlaceDetail, error) {
	detail, err := o.provider.PlaceDetail(ctx, s.RefID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve suggestion %q", s.RefID)
	}

	display := s.Display
	if display == "" {
		display = s.Name
	}
	loc := models.LatLng{Lat: detail.Lat, Lng: detail.Lng}

	o.mu.Lock()
	o.seq++ // invalidate in-flight autocomplete calls
	o.query = display
	o.suggestions = nil
	o.suppress = true
	o.location = &loc
	o.placeInfo = &models.PlaceInfo{Name: detail.Name, Address: detail.Address}
	o.mu.Unlock()

	if err := o.center.Set(loc); err != nil {
		o.logger.Warn("Failed to persist map center", zap.Error(err))
	}
	o.persistPanel()
	return detail, nil
}

// ToggleCategory flips a category chip. Labels track codes so the panel
// can render human names without re-deriving them.
func (o *Orchestrator) ToggleCategory(code string) {
	o.mu.Lock()
	found := -1
	for i, c := range o.categories {
		if c == code {
			found = i
			break
		}
	}
	if found >= 0 {
		o.categories = append(o.categories[:found], o.categories[found+1:]...)
		o.labels = append(o.labels[:found], o.labels[found+1:]...)
	} else {
		o.categories = append(o.categories, code)
		o.labels = append(o.labels, places.CategoryLabel(code))
	}
	o.mu.Unlock()

	o.persistPanel()
}

// SetCategories replaces the selected category set wholesale.
func (o *Orchestrator) SetCategories(codes []string) {
	labels := make([]string, len(codes))
	for i, code := range codes {
		labels[i] = places.CategoryLabel(code)
	}

	o.mu.Lock()
	o.categories = append([]string(nil), codes...)
	o.labels = labels
	o.mu.Unlock()

	o.persistPanel()
}

// Categories returns the selected category codes.
func (o *Orchestrator) Categories() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.categories))
	copy(out, o.categories)
	return out
}

// Submit runs the category search around the resolved location, sorts the
// merged results by distance and flags each one with its current selection
// state. It fails with ErrNoLocation when no suggestion has been resolved.
// A failed provider call leaves an empty (non-nil) result list so the view
// shows "no results" rather than "not searched yet".
func (o *Orchestrator) Submit(ctx context.Context) ([]models.ResultPlace, error) {
	o.mu.Lock()
	loc := o.location
	cats := make([]string, len(o.categories))
	copy(cats, o.categories)
	o.mu.Unlock()

	if loc == nil {
		return nil, ErrNoLocation
	}
	return o.SearchAt(ctx, *loc, cats)
}

// SearchAt runs the category search around an explicit point. The result
// list is cached and persisted just like a Submit around the resolved
// location.
func (o *Orchestrator) SearchAt(ctx context.Context, loc models.LatLng, cats []string) ([]models.ResultPlace, error) {
	if len(cats) > 0 && len(places.CategoryKeywords(cats)) == 0 {
		return nil, ErrUnknownCategories
	}

	raw, err := o.provider.Search(ctx, loc, cats)
	if err != nil {
		o.metrics.ObserveSearch("error")
		o.setResults([]models.ResultPlace{})
		return []models.ResultPlace{}, errors.Wrap(err, "place search failed")
	}
	o.metrics.ObserveSearch("ok")

	results := make([]models.ResultPlace, 0, len(raw))
	for _, item := range raw {
		p := places.NormalizeLenient(item)
		results = append(results, models.ResultPlace{
			Place:      p,
			IsSelected: o.sel != nil && o.sel.IsSelected(p.RefID),
			Tags:       o.matcher.Match(p.Name),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SortDistance() < results[j].SortDistance()
	})

	o.setResults(results)
	return results, nil
}

// Results returns the last result list and whether a search has run at
// all. (nil, false) means the panel has never searched.
func (o *Orchestrator) Results() ([]models.ResultPlace, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		return nil, false
	}
	out := make([]models.ResultPlace, len(o.results))
	copy(out, o.results)
	return out, true
}

// Location returns the resolved start location, or nil.
func (o *Orchestrator) Location() *models.LatLng {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.location == nil {
		return nil
	}
	loc := *o.location
	return &loc
}

// RefreshSelectionFlags re-derives the IsSelected flag on the cached
// result list after the selection store changed.
func (o *Orchestrator) RefreshSelectionFlags() {
	o.mu.Lock()
	for i := range o.results {
		o.results[i].IsSelected = o.sel != nil && o.sel.IsSelected(o.results[i].RefID)
	}
	o.mu.Unlock()

	o.persistPanel()
}

func (o *Orchestrator) setResults(results []models.ResultPlace) {
	o.mu.Lock()
	o.results = results
	o.mu.Unlock()
	o.persistPanel()
}

func (o *Orchestrator) persistPanel() {
	o.mu.Lock()
	state := models.SearchPanelState{
		Query:          o.query,
		Selected:       o.categories,
		SelectedLabels: o.labels,
		Location:       o.location,
		PlaceInfo:      o.placeInfo,
		LastResults:    o.results,
	}
	o.mu.Unlock()

	if err := o.panel.Set(state); err != nil {
		o.logger.Warn("Failed to persist search panel state", zap.Error(err))
	}
}
