package selection

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Handler struct {
	store *Store
	log   *zap.Logger
}

func NewHandler(store *Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, log: log}
}

// Toggle serves POST /api/selection/toggle. The body is the raw provider
// record; normalization happens inside the store so any of the id aliases
// work.
func (h *Handler) Toggle(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	selected, err := h.store.Toggle(raw)
	if errors.Is(err, ErrNoIdentifier) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record has no identifier"})
		return
	}
	if err != nil {
		h.log.Error("Toggle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "toggle failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": selected, "places": h.store.List()})
}

// List serves GET /api/selection.
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"places": h.store.List()})
}

// Remove serves DELETE /api/selection/:refid.
func (h *Handler) Remove(c *gin.Context) {
	refID := c.Param("refid")
	if refID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refid is required"})
		return
	}
	h.store.Remove(refID)
	c.JSON(http.StatusOK, gin.H{"places": h.store.List()})
}
