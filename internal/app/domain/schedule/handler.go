package schedule

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/selection"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

// defaultStartTime seeds the schedule request when the client leaves the
// start time unset, matching the day window the calendar opens at.
const defaultStartTime = "07:00"

type Handler struct {
	consumer  *Consumer
	projector *Projector
	selection *selection.Store
	result    *storage.BlobRepo[json.RawMessage]
	log       *zap.Logger
}

func NewHandler(consumer *Consumer, projector *Projector, sel *selection.Store, result *storage.BlobRepo[json.RawMessage], log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		consumer:  consumer,
		projector: projector,
		selection: sel,
		result:    result,
		log:       log,
	}
}

// Start serves POST /api/schedule. The run's decoded events are relayed to
// the caller as they arrive, in the same framed form the backend uses, so
// the browser can follow progress live. An empty places list falls back to
// the current selection.
func (h *Handler) Start(c *gin.Context) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Places) == 0 {
		req.Places = h.selection.List()
	}
	if len(req.Places) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no places selected"})
		return
	}
	if req.StartTime == "" {
		req.StartTime = defaultStartTime
	}
	if req.VisitDate == "" {
		req.VisitDate = time.Now().Format("2006-01-02")
	}
	if h.consumer.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	emit := func(ev models.StreamEvent) {
		if ev.Opaque {
			fmt.Fprintf(c.Writer, "%s\n\n", ev.Raw)
		} else {
			fmt.Fprintf(c.Writer, "data: %s\n\n", ev.Raw)
		}
		c.Writer.Flush()
	}

	err := h.consumer.Run(c.Request.Context(), req, emit)
	if errors.Is(err, ErrRunInProgress) {
		// headers are already out; surface it in-band
		fmt.Fprint(c.Writer, "data: {\"status\":\"error\",\"message\":\"a run is already in progress\"}\n\n")
		c.Writer.Flush()
		return
	}
	if err != nil {
		h.log.Error("Schedule run failed", zap.Error(err))
		fmt.Fprint(c.Writer, "data: {\"status\":\"error\",\"message\":\"schedule run failed\"}\n\n")
		c.Writer.Flush()
	}
}

// Result serves GET /api/schedule/result: the verbatim completed payload
// of the last finished run.
func (h *Handler) Result(c *gin.Context) {
	raw, ok := h.result.Get()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no schedule result"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// Statuses serves GET /api/schedule/statuses: where each place is in the
// current run's pipeline.
func (h *Handler) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":   h.consumer.Running(),
		"statuses":  h.projector.PlaceStatuses(),
		"scheduled": h.projector.ScheduledPlaces(),
	})
}
