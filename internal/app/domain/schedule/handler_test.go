package schedule

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/notify"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/selection"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

func newTestScheduleRouter(t *testing.T, backend http.HandlerFunc) (*gin.Engine, *models.ScheduleRequest) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	forwarded := &models.ScheduleRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(forwarded))
		backend(w, r)
	}))
	t.Cleanup(srv.Close)

	repos := storage.NewRepos(storage.NewMemoryStore(), nil, nil)
	projector := NewProjector(notify.NewStore(nil, nil), repos.ScheduleResult, nil, nil, nil)
	consumer := NewConsumer(config.SchedulerConfig{BaseURL: srv.URL}, projector, nil, nil, nil)
	sel := selection.NewStore(repos.Selection, nil, nil)
	h := NewHandler(consumer, projector, sel, repos.ScheduleResult, nil)

	r := gin.New()
	r.POST("/api/schedule", h.Start)
	r.GET("/api/schedule/statuses", h.Statuses)
	return r, forwarded
}

func completedBackend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Write([]byte("data: {\"status\":\"completed\",\"result\":{}}\n\n"))
}

func TestStartDefaultsStartTimeAndVisitDate(t *testing.T) {
	router, forwarded := newTestScheduleRouter(t, completedBackend)

	body := `{"places":[{"ref_id":"r1","name":"Ben Thanh"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "07:00", forwarded.StartTime)
	assert.Equal(t, time.Now().Format("2006-01-02"), forwarded.VisitDate)
}

func TestStartKeepsExplicitTiming(t *testing.T) {
	router, forwarded := newTestScheduleRouter(t, completedBackend)

	body := `{"places":[{"ref_id":"r1","name":"Ben Thanh"}],"start_time":"09:30","visit_date":"2026-05-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "09:30", forwarded.StartTime)
	assert.Equal(t, "2026-05-01", forwarded.VisitDate)
}

func TestStatusesExposeScheduledEntries(t *testing.T) {
	router, _ := newTestScheduleRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"places":[{"name":"Ben Thanh"}]}`))
	})

	body := `{"places":[{"ref_id":"r1","name":"Ben Thanh"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedule", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/schedule/statuses", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Running   bool                          `json:"running"`
		Statuses  map[string]models.PlaceStatus `json:"statuses"`
		Scheduled []json.RawMessage             `json:"scheduled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Running)
	assert.Equal(t, "scheduled", resp.Statuses["Ben Thanh"].Status)
	require.Len(t, resp.Scheduled, 1)
	assert.JSONEq(t, `{"name":"Ben Thanh"}`, string(resp.Scheduled[0]))
}

func TestStartWithoutPlacesOrSelectionFails(t *testing.T) {
	router, _ := newTestScheduleRouter(t, completedBackend)

	req := httptest.NewRequest(http.MethodPost, "/api/schedule", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
