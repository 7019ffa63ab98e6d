package schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/notify"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

func newTestConsumer(t *testing.T, backend http.HandlerFunc) (*Consumer, *Projector, *storage.Repos) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	repos := storage.NewRepos(storage.NewMemoryStore(), nil, nil)
	projector := NewProjector(notify.NewStore(nil, nil), repos.ScheduleResult, nil, nil, nil)
	consumer := NewConsumer(config.SchedulerConfig{BaseURL: srv.URL}, projector, nil, nil, nil)
	return consumer, projector, repos
}

func testRequest() models.ScheduleRequest {
	return models.ScheduleRequest{
		Places:    []models.Place{{RefID: "r1", Name: "Ben Thanh"}},
		StartTime: "08:00",
	}
}

func TestRunConsumesStreamToCompletion(t *testing.T) {
	completed := `{"status":"completed","result":{"schedule":[{"place_name":"Ben Thanh","start_time":"09:00"}]}}`
	consumer, _, repos := newTestConsumer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/schedule", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		w.Write([]byte("data: {\"status\":\"optimizing\"}\n\n"))
		flusher.Flush()
		// last frame deliberately unterminated
		w.Write([]byte("data: " + completed))
	})

	var statuses []models.ScheduleStatus
	err := consumer.Run(context.Background(), testRequest(), func(ev models.StreamEvent) {
		statuses = append(statuses, ev.Status)
	})
	require.NoError(t, err)

	assert.Equal(t, []models.ScheduleStatus{models.StatusOptimizing, models.StatusCompleted}, statuses)
	stored, ok := repos.ScheduleResult.Get()
	require.True(t, ok, "completed payload must be persisted")
	assert.JSONEq(t, completed, string(stored))
	assert.False(t, consumer.Running(), "running flag must clear after the run")
}

func TestRunFallsBackToWholeBodyJSON(t *testing.T) {
	body := `{"places":[{"name":"Ben Thanh","start_time":"09:00"},{"name":"Nha Tho Duc Ba","start_time":"10:30"}]}`
	consumer, projector, repos := newTestConsumer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})

	var got []models.StreamEvent
	err := consumer.Run(context.Background(), testRequest(), func(ev models.StreamEvent) {
		got = append(got, ev)
	})
	require.NoError(t, err)

	// the body's places are projected one by one, then the document closes
	// the run as the completed payload
	require.Len(t, got, 3)
	assert.Equal(t, models.StatusPlaceScheduled, got[0].Status)
	assert.Equal(t, "Ben Thanh", got[0].Place)
	assert.Equal(t, models.StatusPlaceScheduled, got[1].Status)
	assert.Equal(t, "Nha Tho Duc Ba", got[1].Place)
	assert.Equal(t, models.StatusCompleted, got[2].Status)

	assert.Len(t, projector.ScheduledPlaces(), 2)
	statuses := projector.PlaceStatuses()
	assert.Equal(t, "scheduled", statuses["Ben Thanh"].Status)
	assert.Equal(t, "scheduled", statuses["Nha Tho Duc Ba"].Status)

	stored, ok := repos.ScheduleResult.Get()
	require.True(t, ok)
	assert.JSONEq(t, body, string(stored))
}

func TestRunWholeBodyWithoutPlacesStillCompletes(t *testing.T) {
	consumer, projector, repos := newTestConsumer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"completed","result":{}}`))
	})

	var got []models.StreamEvent
	err := consumer.Run(context.Background(), testRequest(), func(ev models.StreamEvent) {
		got = append(got, ev)
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, models.StatusCompleted, got[0].Status)
	assert.Empty(t, projector.ScheduledPlaces())

	_, ok := repos.ScheduleResult.Get()
	assert.True(t, ok)
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	release := make(chan struct{})
	consumer, _, _ := newTestConsumer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
	})

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- consumer.Run(context.Background(), testRequest(), nil)
	}()

	for !consumer.Running() {
		time.Sleep(time.Millisecond)
	}
	err := consumer.Run(context.Background(), testRequest(), nil)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.NoError(t, <-firstDone)
	assert.False(t, consumer.Running())
}

func TestRunAcceptsAny2xxStatus(t *testing.T) {
	consumer, _, _ := newTestConsumer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("data: {\"status\":\"optimizing\"}\n\n"))
	})

	var statuses []models.ScheduleStatus
	err := consumer.Run(context.Background(), testRequest(), func(ev models.StreamEvent) {
		statuses = append(statuses, ev.Status)
	})
	require.NoError(t, err)
	assert.Equal(t, []models.ScheduleStatus{models.StatusOptimizing}, statuses)
}

func TestRunSurfacesBackendFailure(t *testing.T) {
	consumer, _, repos := newTestConsumer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := consumer.Run(context.Background(), testRequest(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, ok := repos.ScheduleResult.Get()
	assert.False(t, ok, "a failed run must not produce a result")
	assert.False(t, consumer.Running())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	started := make(chan struct{})
	consumer, _, _ := newTestConsumer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, testRequest(), nil)
	}()

	<-started
	cancel()

	err := <-done
	require.Error(t, err)
	assert.False(t, consumer.Running())
}
