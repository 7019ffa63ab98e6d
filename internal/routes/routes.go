package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/calendar"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/notify"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/places"
	routePkg "github.com/npc-hackathon/tripplanner/internal/app/domain/route"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/schedule"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/search"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/selection"
)

// AppHandlers bundles every domain handler the router mounts.
type AppHandlers struct {
	Search    *search.Handler
	Selection *selection.Handler
	Schedule  *schedule.Handler
	Calendar  *calendar.Handler
	Route     *routePkg.Handler
	Notify    *notify.Hub
}

// Setup registers all application routes on the router.
func Setup(r *gin.Engine, h *AppHandlers, logger *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/search", h.Search.Search)
		api.GET("/search/results", h.Search.Results)
		api.POST("/search/category", h.Search.ToggleCategory)
		api.GET("/autocomplete", h.Search.Autocomplete)
		api.GET("/place", h.Search.Place)

		api.GET("/categories", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"groups": places.CategoryGroups()})
		})

		api.POST("/selection/toggle", h.Selection.Toggle)
		api.GET("/selection", h.Selection.List)
		api.DELETE("/selection/:refid", h.Selection.Remove)

		api.POST("/schedule", h.Schedule.Start)
		api.GET("/schedule/result", h.Schedule.Result)
		api.GET("/schedule/statuses", h.Schedule.Statuses)
		api.GET("/schedule/layout", h.Calendar.Layout)

		api.POST("/route", h.Route.Plan)
		api.GET("/route", h.Route.Plan)
	}

	r.GET("/ws/notifications", h.Notify.HandleWS)

	logger.Info("Routes registered")
}
