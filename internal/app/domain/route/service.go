package route

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
	"github.com/npc-hackathon/tripplanner/internal/pkg/metrics"
)

const (
	routeVehicle = "motorcycle"

	// The animated marker steps through the geometry in at most ~200
	// frames, one every 40ms, regardless of how dense the polyline is.
	animationFrames = 200
	animationTickMs = 40
)

// ErrNoPoints is returned when a route is requested without any stops.
var ErrNoPoints = errors.New("route: no points to route through")

// Path is one routed alternative from the routing provider.
type Path struct {
	BBox          []float64            `json:"bbox"`
	PointsEncoded bool                 `json:"points_encoded"`
	Points        json.RawMessage      `json:"points"`
	Instructions  []models.Instruction `json:"instructions"`
}

// Provider is the routing backend.
type Provider interface {
	Route(ctx context.Context, points []models.LatLng) (*Path, error)
}

// DetailResolver resolves a place ref id to coordinates. The search
// domain's provider client satisfies it.
type DetailResolver interface {
	PlaceDetail(ctx context.Context, refID string) (*models.PlaceDetail, error)
}

// Client calls the Vietmap routing API.
type Client struct {
	cfg     config.VietmapConfig
	http    *http.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewClient(cfg config.VietmapConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 30 * time.Second},
		metrics: m,
		logger:  logger,
	}
}

// Route asks the provider for a motorcycle route through the points, in
// order. Points go on the wire as lat,lng pairs.
func (c *Client) Route(ctx context.Context, points []models.LatLng) (*Path, error) {
	q := url.Values{}
	q.Set("api-version", "1.1")
	q.Set("apikey", c.cfg.APIKey)
	q.Set("vehicle", routeVehicle)
	for _, p := range points {
		q.Add("point", fmt.Sprintf("%v,%v", p.Lat, p.Lng))
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/route?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build route request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveProviderRequest("route", "error")
		return nil, errors.Wrap(err, "route request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ObserveProviderRequest("route", "error")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("route API returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Paths []Path `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.metrics.ObserveProviderRequest("route", "error")
		return nil, errors.Wrap(err, "failed to decode route response")
	}
	c.metrics.ObserveProviderRequest("route", "ok")

	if len(out.Paths) == 0 {
		return nil, errors.New("route API returned no paths")
	}
	return &out.Paths[0], nil
}

// Planner turns an ordered stop list into a drawable RoutePlan. A failed
// or missing routing response degrades to a straight line through the
// stops rather than an error; the map still renders something useful.
type Planner struct {
	provider Provider
	details  DetailResolver
	logger   *zap.Logger
}

func NewPlanner(provider Provider, details DetailResolver, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{provider: provider, details: details, logger: logger}
}

// Stop is one named point on the trip.
type Stop struct {
	Label    string
	Position models.LatLng
}

// Plan routes through the stops in order.
func (p *Planner) Plan(ctx context.Context, stops []Stop) (*models.RoutePlan, error) {
	if len(stops) == 0 {
		return nil, ErrNoPoints
	}

	plan := &models.RoutePlan{
		Markers: markersFor(stops),
	}

	points := make([]models.LatLng, len(stops))
	for i, s := range stops {
		points[i] = s.Position
	}
	plan.Coordinates = points

	if len(stops) > 1 {
		if path, err := p.provider.Route(ctx, points); err != nil {
			p.logger.Warn("Routing failed, falling back to straight line", zap.Error(err))
		} else if coords := pathCoordinates(path); len(coords) > 0 {
			plan.Coordinates = coords
			plan.Routed = true
			plan.Instructions = path.Instructions
			if len(path.BBox) == 4 {
				bbox := models.BBox{path.BBox[0], path.BBox[1], path.BBox[2], path.BBox[3]}
				plan.BBox = &bbox
			}
		}
	}

	if plan.BBox == nil {
		plan.BBox = computeBBox(plan.Coordinates)
	}
	plan.Animation = animationFor(len(plan.Coordinates))
	return plan, nil
}

// ResolveStops resolves place ref ids to coordinates concurrently,
// preserving order. One unresolvable place fails the whole plan; a route
// with a silently missing stop would be worse than no route.
func (p *Planner) ResolveStops(ctx context.Context, placeList []models.Place) ([]Stop, error) {
	stops := make([]Stop, len(placeList))

	g, ctx := errgroup.WithContext(ctx)
	for i, place := range placeList {
		g.Go(func() error {
			detail, err := p.details.PlaceDetail(ctx, place.RefID)
			if err != nil {
				return errors.Wrapf(err, "failed to resolve %q", place.RefID)
			}
			label := place.Name
			if label == "" {
				label = detail.Name
			}
			stops[i] = Stop{
				Label:    label,
				Position: models.LatLng{Lat: detail.Lat, Lng: detail.Lng},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stops, nil
}

// pathCoordinates extracts the geometry from a routed path. Encoded paths
// carry a polyline string; otherwise points is an array of [lng, lat]
// pairs.
func pathCoordinates(path *Path) []models.LatLng {
	if path.PointsEncoded {
		var encoded string
		if err := json.Unmarshal(path.Points, &encoded); err != nil {
			return nil
		}
		return DecodePolyline(encoded, 5)
	}

	var pairs [][2]float64
	if err := json.Unmarshal(path.Points, &pairs); err != nil {
		return nil
	}
	coords := make([]models.LatLng, len(pairs))
	for i, pair := range pairs {
		coords[i] = models.LatLng{Lat: pair[1], Lng: pair[0]}
	}
	return coords
}

func markersFor(stops []Stop) []models.Marker {
	markers := make([]models.Marker, len(stops))
	for i, s := range stops {
		kind := models.MarkerMid
		if i == 0 {
			kind = models.MarkerStart
		} else if i == len(stops)-1 {
			kind = models.MarkerEnd
		}
		label := s.Label
		if label == "" {
			label = strconv.Itoa(i + 1)
		}
		markers[i] = models.Marker{
			Index:    i + 1,
			Kind:     kind,
			Label:    label,
			Position: s.Position,
		}
	}
	return markers
}

func computeBBox(coords []models.LatLng) *models.BBox {
	if len(coords) == 0 {
		return nil
	}
	bbox := models.BBox{coords[0].Lng, coords[0].Lat, coords[0].Lng, coords[0].Lat}
	for _, c := range coords[1:] {
		if c.Lng < bbox[0] {
			bbox[0] = c.Lng
		}
		if c.Lat < bbox[1] {
			bbox[1] = c.Lat
		}
		if c.Lng > bbox[2] {
			bbox[2] = c.Lng
		}
		if c.Lat > bbox[3] {
			bbox[3] = c.Lat
		}
	}
	return &bbox
}

func animationFor(total int) *models.AnimationPlan {
	if total == 0 {
		return nil
	}
	stride := total / animationFrames
	if stride < 1 {
		stride = 1
	}
	return &models.AnimationPlan{Stride: stride, TickMs: animationTickMs}
}
