package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/selection"
	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

type Handler struct {
	planner   *Planner
	selection *selection.Store
	log       *zap.Logger
}

func NewHandler(planner *Planner, sel *selection.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{planner: planner, selection: sel, log: log}
}

type planRequest struct {
	Points []models.LatLng `json:"points"`
	Labels []string        `json:"labels"`
}

// Plan serves GET /api/route. With a body carrying explicit points it
// routes through those; otherwise it resolves the current selection to
// coordinates and routes through that.
func (h *Handler) Plan(c *gin.Context) {
	var req planRequest
	_ = c.ShouldBindJSON(&req) // an empty body means "use the selection"

	var (
		stops []Stop
		err   error
	)
	if len(req.Points) > 0 {
		stops = make([]Stop, len(req.Points))
		for i, pt := range req.Points {
			var label string
			if i < len(req.Labels) {
				label = req.Labels[i]
			}
			stops[i] = Stop{Label: label, Position: pt}
		}
	} else {
		stops, err = h.planner.ResolveStops(c.Request.Context(), h.selection.List())
		if err != nil {
			h.log.Error("Failed to resolve selection for routing", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to resolve selected places"})
			return
		}
	}

	plan, err := h.planner.Plan(c.Request.Context(), stops)
	if errors.Is(err, ErrNoPoints) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no places to route"})
		return
	}
	if err != nil {
		h.log.Error("Route planning failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "route planning failed"})
		return
	}
	c.JSON(http.StatusOK, plan)
}
