package calendar

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
)

type Handler struct {
	engine *Engine
	result *storage.BlobRepo[json.RawMessage]
	log    *zap.Logger
}

func NewHandler(engine *Engine, result *storage.BlobRepo[json.RawMessage], log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, result: result, log: log}
}

// Layout serves GET /api/schedule/layout: the timeline blocks for the
// persisted schedule result. A request body is never required; the layout
// always reflects the last completed run.
func (h *Handler) Layout(c *gin.Context) {
	raw, ok := h.result.Get()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no schedule result"})
		return
	}

	entries := models.ScheduleResult{Raw: raw}.Entries()
	c.JSON(http.StatusOK, h.engine.Layout(entries))
}
