package search

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

type Handler struct {
	orchestrator *Orchestrator
	log          *zap.Logger
}

func NewHandler(orchestrator *Orchestrator, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		orchestrator: orchestrator,
		log:          log,
	}
}

// Autocomplete serves GET /api/autocomplete?text=. The call goes through
// the debounced query machine, so a burst of requests for successive
// keystrokes collapses into one provider call; superseded requests get a
// 204 and only the final one carries suggestions.
func (h *Handler) Autocomplete(c *gin.Context) {
	text := c.Query("text")

	suggestions, superseded, err := h.orchestrator.QueryAndWait(c.Request.Context(), text)
	if err != nil {
		h.log.Error("Autocomplete failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "autocomplete failed"})
		return
	}
	if superseded {
		c.Status(http.StatusNoContent)
		return
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// Place serves GET /api/place?refid=. Resolving a detail also makes it
// the start location for searches and recenters the map.
func (h *Handler) Place(c *gin.Context) {
	refID := c.Query("refid")
	if refID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refid is required"})
		return
	}

	detail, err := h.orchestrator.SelectSuggestion(c.Request.Context(), models.Suggestion{
		RefID:   refID,
		Name:    c.Query("name"),
		Display: c.Query("display"),
	})
	if err != nil {
		h.log.Error("Place detail failed", zap.String("refid", refID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "place detail failed"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Search serves POST /api/search. A body with an explicit location
// searches around that point; otherwise the resolved start location from
// the panel is used.
func (h *Handler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		results []models.ResultPlace
		err     error
	)
	if req.Location != nil {
		results, err = h.orchestrator.SearchAt(c.Request.Context(), *req.Location, req.Categories)
	} else {
		if len(req.Categories) > 0 {
			h.orchestrator.SetCategories(req.Categories)
		}
		results, err = h.orchestrator.Submit(c.Request.Context())
	}
	if errors.Is(err, ErrNoLocation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no start location resolved"})
		return
	}
	if errors.Is(err, ErrUnknownCategories) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no keywords for requested categories"})
		return
	}
	if err != nil {
		h.log.Error("Search failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "search failed", "places": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": results})
}

// Results serves GET /api/search/results: the cached result list plus a
// flag telling "never searched" apart from "searched, found nothing".
func (h *Handler) Results(c *gin.Context) {
	results, searched := h.orchestrator.Results()
	c.JSON(http.StatusOK, gin.H{"places": results, "searched": searched})
}

// ToggleCategory serves POST /api/search/category.
func (h *Handler) ToggleCategory(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	h.orchestrator.ToggleCategory(req.Code)
	c.JSON(http.StatusOK, gin.H{"selected": h.orchestrator.Categories()})
}
