package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/bus"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
	"github.com/npc-hackathon/tripplanner/internal/pkg/metrics"
)

// ErrRunInProgress is returned when a schedule run is requested while a
// previous one is still streaming.
var ErrRunInProgress = errors.New("schedule: a run is already in progress")

// Consumer drives one scheduling run: it posts the request, consumes the
// incremental response and projects every decoded event. The client has
// no overall timeout since a run legitimately streams for minutes; only
// the caller's context cancels it. A failed run is not retried.
type Consumer struct {
	cfg       config.SchedulerConfig
	http      *http.Client
	projector *Projector
	events    *bus.Bus
	metrics   *metrics.Metrics
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewConsumer(cfg config.SchedulerConfig, projector *Projector, events *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		cfg:       cfg,
		http:      &http.Client{},
		projector: projector,
		events:    events,
		metrics:   m,
		logger:    logger,
	}
}

// Running reports whether a run is currently streaming.
func (c *Consumer) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Run executes one scheduling run. Every decoded event goes through the
// projector and, when emit is non-nil, to the caller as well (the SSE
// handler forwards them to the browser). The running flag is cleared on
// every exit path.
func (c *Consumer) Run(ctx context.Context, req models.ScheduleRequest, emit func(models.StreamEvent)) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrRunInProgress
	}
	c.running = true
	c.mu.Unlock()

	start := time.Now()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		c.metrics.ScheduleRunFinished(time.Since(start).Seconds())
	}()

	c.metrics.ScheduleRunStarted()
	c.projector.Begin()
	if c.events != nil {
		c.events.Publish(bus.ScheduleRequested{Request: req})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "failed to encode schedule request")
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/schedule"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to build schedule request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "schedule request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("schedule request failed: %d %s", resp.StatusCode, string(text))
	}

	if isJSONResponse(resp) {
		return c.consumeWholeBody(resp.Body, emit)
	}
	return c.consumeStream(resp.Body, emit)
}

func (c *Consumer) consumeStream(body io.Reader, emit func(models.StreamEvent)) error {
	decoder := NewDecoder()
	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range decoder.Feed(buf[:n]) {
				c.dispatch(ev, emit)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// project what already arrived before surfacing the error
			for _, ev := range decoder.Flush() {
				c.dispatch(ev, emit)
			}
			return errors.Wrap(err, "schedule stream aborted")
		}
	}

	for _, ev := range decoder.Flush() {
		c.dispatch(ev, emit)
	}
	return nil
}

// consumeWholeBody handles a backend that answered with a plain JSON
// document instead of a stream: the document's places are projected one
// by one as if they had been streamed, then the document itself becomes
// the terminal completed payload.
func (c *Consumer) consumeWholeBody(body io.Reader, emit func(models.StreamEvent)) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "failed to read schedule response")
	}
	if !json.Valid(raw) {
		return errors.New("schedule response is not valid JSON")
	}

	var doc struct {
		Places []json.RawMessage `json:"places"`
	}
	// non-object bodies simply carry no places
	_ = json.Unmarshal(raw, &doc)

	for _, entry := range doc.Places {
		c.dispatch(models.StreamEvent{
			Status: models.StatusPlaceScheduled,
			Place:  entryPlaceName(entry),
			Data:   entry,
			Raw:    string(entry),
		}, emit)
	}

	c.dispatch(models.StreamEvent{
		Status: models.StatusCompleted,
		Raw:    string(raw),
	}, emit)
	return nil
}

// entryPlaceName pulls a display name out of a scheduled-place entry so
// the per-place status map and toasts key on something readable.
func entryPlaceName(entry json.RawMessage) string {
	var fields struct {
		Place string `json:"place"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(entry, &fields); err != nil {
		return ""
	}
	if fields.Place != "" {
		return fields.Place
	}
	return fields.Name
}

func (c *Consumer) dispatch(ev models.StreamEvent, emit func(models.StreamEvent)) {
	c.projector.Apply(ev)
	if emit != nil {
		emit(ev)
	}
}

func isJSONResponse(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
}
