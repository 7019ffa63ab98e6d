package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/domain/calendar"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/notify"
	routePkg "github.com/npc-hackathon/tripplanner/internal/app/domain/route"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/schedule"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/search"
	"github.com/npc-hackathon/tripplanner/internal/app/domain/selection"
	"github.com/npc-hackathon/tripplanner/internal/pkg/bus"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
	"github.com/npc-hackathon/tripplanner/internal/pkg/metrics"
	"github.com/npc-hackathon/tripplanner/internal/pkg/storage"
	"github.com/npc-hackathon/tripplanner/internal/routes"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	store  storage.BlobStore
	router http.Handler

	handlers    *routes.AppHandlers
	stopWatcher func()
}

// New creates a new Server instance with all dependencies wired
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	store, err := storage.OpenBadger(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}
	s.store = store

	s.handlers = s.buildHandlers()
	return s, nil
}

// buildHandlers wires the domain services together: storage repos with
// bus notifications, the shared provider clients, and one handler per
// domain.
func (s *Server) buildHandlers() *routes.AppHandlers {
	m := metrics.NewMetrics()
	events := bus.New(s.logger)
	repos := storage.NewRepos(s.store, s.logger, func(key string) {
		events.Publish(bus.StorageChanged{Key: key})
	})

	sel := selection.NewStore(repos.Selection, events, s.logger)
	s.stopWatcher = sel.WatchStorage()

	vietmap := search.NewClient(s.cfg.Vietmap, m, s.logger)
	orchestrator := search.NewOrchestrator(vietmap, repos, sel, m, s.logger)

	toasts := notify.NewStore(s.logger, m)
	hub := notify.NewHub(toasts, s.logger)

	projector := schedule.NewProjector(toasts, repos.ScheduleResult, events, m, s.logger)
	consumer := schedule.NewConsumer(s.cfg.Scheduler, projector, events, m, s.logger)

	engine := calendar.NewEngine(s.cfg.Calendar)

	router := routePkg.NewClient(s.cfg.Vietmap, m, s.logger)
	planner := routePkg.NewPlanner(router, vietmap, s.logger)

	return &routes.AppHandlers{
		Search:    search.NewHandler(orchestrator, s.logger),
		Selection: selection.NewHandler(sel, s.logger),
		Schedule:  schedule.NewHandler(consumer, projector, sel, repos.ScheduleResult, s.logger),
		Calendar:  calendar.NewHandler(engine, repos.ScheduleResult, s.logger),
		Route:     routePkg.NewHandler(planner, sel, s.logger),
		Notify:    hub,
	}
}

// HTTPServer creates and configures the HTTP server. WriteTimeout stays
// unset: schedule runs stream for minutes and a deadline would cut the
// response mid-stream.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        ":" + s.cfg.ServerPort,
		Handler:     s.router,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// Handlers returns the wired domain handlers
func (s *Server) Handlers() *routes.AppHandlers {
	return s.handlers
}

// GetLogger returns the logger instance
func (s *Server) GetLogger() *zap.Logger {
	return s.logger
}

// GetConfig returns the configuration
func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// Close closes all server resources
func (s *Server) Close() {
	if s.stopWatcher != nil {
		s.stopWatcher()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("Failed to close blob store", zap.Error(err))
		}
	}
}
