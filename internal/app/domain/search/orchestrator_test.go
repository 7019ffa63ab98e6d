package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/selection"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

type fakeProvider struct {
	mu                sync.Mutex
	autocompleteCalls []string
	autocompleteDelay time.Duration
	suggestions       []models.Suggestion
	detail            *models.PlaceDetail
	detailErr         error
	searchResults     []map[string]interface{}
	searchErr         error
	searchCalls       int
}

func (f *fakeProvider) Autocomplete(ctx context.Context, text string) ([]models.Suggestion, error) {
	f.mu.Lock()
	f.autocompleteCalls = append(f.autocompleteCalls, text)
	delay := f.autocompleteDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return f.suggestions, nil
}

func (f *fakeProvider) PlaceDetail(ctx context.Context, refID string) (*models.PlaceDetail, error) {
	return f.detail, f.detailErr
}

func (f *fakeProvider) Search(ctx context.Context, location models.LatLng, categories []string) ([]map[string]interface{}, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()
	return f.searchResults, f.searchErr
}

func (f *fakeProvider) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.autocompleteCalls))
	copy(out, f.autocompleteCalls)
	return out
}

func newTestOrchestrator(t *testing.T, provider Provider) (*Orchestrator, *storage.Repos) {
	t.Helper()
	repos := storage.NewRepos(storage.NewMemoryStore(), nil, nil)
	sel := selection.NewStore(repos.Selection, nil, nil)
	o := NewOrchestrator(provider, repos, sel, nil, nil)
	o.debounce = 10 * time.Millisecond
	return o, repos
}

func TestDebounceCollapsesKeystrokes(t *testing.T) {
	provider := &fakeProvider{
		suggestions: []models.Suggestion{{RefID: "r1", Name: "Hanoi"}},
	}
	o, _ := newTestOrchestrator(t, provider)

	ctx := context.Background()
	o.SetQuery(ctx, "h")
	o.SetQuery(ctx, "ha")
	suggestions, superseded, err := o.QueryAndWait(ctx, "hanoi")

	require.NoError(t, err)
	assert.False(t, superseded)
	assert.Equal(t, []string{"hanoi"}, provider.calls())
	assert.Len(t, suggestions, 1)
	assert.Equal(t, suggestions, o.Suggestions())
}

func TestSupersededKeystrokeReturnsEarly(t *testing.T) {
	provider := &fakeProvider{
		suggestions: []models.Suggestion{{RefID: "r1", Name: "Saigon"}},
	}
	o, _ := newTestOrchestrator(t, provider)
	ctx := context.Background()

	first := make(chan autocompleteOutcome, 1)
	o.setQuery(ctx, "sa", first)

	_, superseded, err := o.QueryAndWait(ctx, "saigon")
	require.NoError(t, err)
	assert.False(t, superseded)

	got := <-first
	require.NoError(t, got.err)
	assert.True(t, got.superseded)
}

func TestStaleResponseDiscarded(t *testing.T) {
	provider := &fakeProvider{
		autocompleteDelay: 40 * time.Millisecond,
		suggestions:       []models.Suggestion{{RefID: "old", Name: "Old"}},
	}
	o, _ := newTestOrchestrator(t, provider)
	ctx := context.Background()

	first := make(chan autocompleteOutcome, 1)
	o.setQuery(ctx, "hanoi", first)

	// wait until the call is actually in flight, then type again
	for len(provider.calls()) == 0 {
		time.Sleep(time.Millisecond)
	}
	o.SetQuery(ctx, "hanoi old quarter")

	got := <-first
	assert.True(t, got.superseded, "in-flight response for the old keystroke must be discarded")
	assert.Empty(t, got.suggestions)
}

func TestShortQuerySkipsProvider(t *testing.T) {
	provider := &fakeProvider{
		suggestions: []models.Suggestion{{RefID: "r1", Name: "Hue"}},
	}
	o, _ := newTestOrchestrator(t, provider)
	ctx := context.Background()

	_, _, err := o.QueryAndWait(ctx, "hue")
	require.NoError(t, err)
	require.NotEmpty(t, o.Suggestions())

	suggestions, superseded, err := o.QueryAndWait(ctx, "h")
	require.NoError(t, err)
	assert.False(t, superseded)
	assert.Empty(t, suggestions)
	assert.Empty(t, o.Suggestions(), "dropping under the minimum length clears the dropdown")
	assert.Equal(t, []string{"hue"}, provider.calls())
}

func TestSelectSuggestionResolvesAndSuppresses(t *testing.T) {
	provider := &fakeProvider{
		detail: &models.PlaceDetail{
			RefID:   "r1",
			Name:    "Ben Thanh Market",
			Address: "Le Loi, District 1",
			Lat:     10.772,
			Lng:     106.698,
		},
	}
	o, repos := newTestOrchestrator(t, provider)
	ctx := context.Background()

	detail, err := o.SelectSuggestion(ctx, models.Suggestion{
		RefID:   "r1",
		Name:    "Ben Thanh Market",
		Display: "Ben Thanh Market, District 1",
	})
	require.NoError(t, err)
	assert.Equal(t, 10.772, detail.Lat)

	assert.Empty(t, o.Suggestions())
	require.NotNil(t, o.Location())
	assert.Equal(t, 106.698, o.Location().Lng)

	center, ok := repos.MapCenter.Get()
	require.True(t, ok)
	assert.Equal(t, 10.772, center.Lat)

	panel, ok := repos.Panel.Get()
	require.True(t, ok)
	assert.Equal(t, "Ben Thanh Market, District 1", panel.Query)
	require.NotNil(t, panel.PlaceInfo)
	assert.Equal(t, "Ben Thanh Market", panel.PlaceInfo.Name)
}

func TestSubmitRequiresLocation(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeProvider{})

	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestSearchAtRejectsUnknownCategories(t *testing.T) {
	provider := &fakeProvider{}
	o, _ := newTestOrchestrator(t, provider)

	_, err := o.SearchAt(context.Background(), models.LatLng{Lat: 10.77, Lng: 106.69}, []string{"zzz"})
	assert.ErrorIs(t, err, ErrUnknownCategories)
	assert.Zero(t, provider.searchCalls)
}

func TestSubmitSortsByDistanceAndFlagsSelection(t *testing.T) {
	provider := &fakeProvider{
		detail: &models.PlaceDetail{RefID: "start", Lat: 10.77, Lng: 106.69},
		searchResults: []map[string]interface{}{
			{"ref_id": "far", "name": "Far", "distance": 3.2},
			{"ref_id": "near", "name": "Near", "distance": "0.5"},
			{"ref_id": "unknown", "name": "Unknown"},
		},
	}
	o, repos := newTestOrchestrator(t, provider)
	ctx := context.Background()

	sel := selection.NewStore(repos.Selection, nil, nil)
	_, err := sel.Toggle(map[string]interface{}{"ref_id": "near", "name": "Near"})
	require.NoError(t, err)
	o.sel = sel

	_, err = o.SelectSuggestion(ctx, models.Suggestion{RefID: "start"})
	require.NoError(t, err)

	results, err := o.Submit(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "near", results[0].RefID, "numeric strings sort by value")
	assert.Equal(t, "far", results[1].RefID)
	assert.Equal(t, "unknown", results[2].RefID, "missing distance sorts last")
	assert.True(t, results[0].IsSelected)
	assert.False(t, results[1].IsSelected)
}

func TestSearchTagsResultsWithCategoryLabels(t *testing.T) {
	provider := &fakeProvider{
		searchResults: []map[string]interface{}{
			{"ref_id": "museum", "name": "Bảo Tàng Lịch Sử Việt Nam", "distance": 1.0},
			{"ref_id": "plain", "name": "Somewhere Else", "distance": 2.0},
		},
	}
	o, _ := newTestOrchestrator(t, provider)

	results, err := o.SearchAt(context.Background(), models.LatLng{Lat: 10.77, Lng: 106.69}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, results[0].Tags, "Bảo Tàng", "diacritic-folded name matches the label keyword")
	assert.Empty(t, results[1].Tags)
}

func TestResultsDistinguishNeverSearchedFromEmpty(t *testing.T) {
	provider := &fakeProvider{
		detail:        &models.PlaceDetail{RefID: "start", Lat: 10.77, Lng: 106.69},
		searchResults: []map[string]interface{}{},
	}
	o, _ := newTestOrchestrator(t, provider)
	ctx := context.Background()

	results, searched := o.Results()
	assert.Nil(t, results)
	assert.False(t, searched)

	_, err := o.SelectSuggestion(ctx, models.Suggestion{RefID: "start"})
	require.NoError(t, err)
	_, err = o.Submit(ctx)
	require.NoError(t, err)

	results, searched = o.Results()
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.True(t, searched)
}

func TestHydrateRestoresPanelState(t *testing.T) {
	repos := storage.NewRepos(storage.NewMemoryStore(), nil, nil)
	loc := &models.LatLng{Lat: 21.03, Lng: 105.85}
	require.NoError(t, repos.Panel.Set(models.SearchPanelState{
		Query:    "Hoan Kiem",
		Selected: []string{"1000"},
		Location: loc,
		LastResults: []models.ResultPlace{
			{Place: models.Place{RefID: "r1", Name: "Lake"}},
		},
	}))

	sel := selection.NewStore(repos.Selection, nil, nil)
	o := NewOrchestrator(&fakeProvider{}, repos, sel, nil, nil)

	require.NotNil(t, o.Location())
	assert.Equal(t, 21.03, o.Location().Lat)
	assert.Equal(t, []string{"1000"}, o.Categories())
	results, searched := o.Results()
	assert.True(t, searched)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].RefID)
}
