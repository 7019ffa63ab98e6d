package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/cache"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
	"github.com/npc-hackathon/tripplanner/internal/pkg/metrics"
)

const searchRadiusMeters = 20000

// Client calls the Vietmap autocomplete, place-detail and search APIs.
// The API key never leaves the server.
type Client struct {
	cfg     config.VietmapConfig
	http    *http.Client
	details *cache.UnifiedCache[models.PlaceDetail]
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
		details: cache.NewUnifiedCache[models.PlaceDetail](15*time.Minute, "place_details", logger),
		metrics: m,
		logger:  logger,
	}
}

// Autocomplete returns suggestions for free text.
func (c *Client) Autocomplete(ctx context.Context, text string) ([]models.Suggestion, error) {
	q := url.Values{}
	q.Set("apikey", c.cfg.APIKey)
	q.Set("text", text)

	var raw []map[string]interface{}
	if err := c.getJSON(ctx, "/api/autocomplete/v3", q, &raw); err != nil {
		c.observe("autocomplete", "error")
		return nil, err
	}
	c.observe("autocomplete", "ok")

	suggestions := make([]models.Suggestion, 0, len(raw))
	for _, item := range raw {
		suggestions = append(suggestions, models.Suggestion{
			RefID:   stringField(item, "ref_id", "refId", "ref"),
			Name:    stringField(item, "name"),
			Display: stringField(item, "display"),
			Address: stringField(item, "address"),
		})
	}
	return suggestions, nil
}

// PlaceDetail resolves a suggestion's ref id to coordinates. The provider
// sometimes nests lat/lng under a `location` object; both shapes are
// accepted. Results are cached.
func (c *Client) PlaceDetail(ctx context.Context, refID string) (*models.PlaceDetail, error) {
	if detail, ok := c.details.Get(refID); ok {
		return &detail, nil
	}

	q := url.Values{}
	q.Set("apikey", c.cfg.APIKey)
	q.Set("refid", refID)

	var raw map[string]interface{}
	if err := c.getJSON(ctx, "/api/place/v4", q, &raw); err != nil {
		c.observe("place", "error")
		return nil, err
	}

	lat, latOK := numberField(raw, "lat")
	lng, lngOK := numberField(raw, "lng")
	if !latOK || !lngOK {
		if loc, ok := raw["location"].(map[string]interface{}); ok {
			lat, latOK = numberField(loc, "lat")
			lng, lngOK = numberField(loc, "lng")
		}
	}
	if !latOK || !lngOK {
		c.observe("place", "error")
		return nil, errors.Errorf("place detail for %q has no coordinates", refID)
	}
	c.observe("place", "ok")

	detail := models.PlaceDetail{
		RefID:   refID,
		Name:    stringField(raw, "name"),
		Address: stringField(raw, "address"),
		Lat:     lat,
		Lng:     lng,
	}
	c.details.Set(refID, detail)
	return &detail, nil
}

// Search queries the provider once per category around the given location
// and merges the results, deduplicating by ref_id. Only the fields the UI
// consumes are kept; a Google Maps link is derived from the display name.
func (c *Client) Search(ctx context.Context, location models.LatLng, categories []string) ([]map[string]interface{}, error) {
	focus := fmt.Sprintf("%v,%v", location.Lat, location.Lng)

	var all []map[string]interface{}
	for _, category := range categories {
		q := url.Values{}
		q.Set("apikey", c.cfg.APIKey)
		q.Set("focus", focus)
		q.Set("circle_center", focus)
		q.Set("circle_radius", fmt.Sprintf("%d", searchRadiusMeters))
		q.Set("cats", category)

		var page []map[string]interface{}
		if err := c.getJSON(ctx, "/api/search/v3", q, &page); err != nil {
			c.observe("search", "error")
			return nil, err
		}
		all = append(all, page...)
	}
	c.observe("search", "ok")

	seen := make(map[string]struct{})
	results := make([]map[string]interface{}, 0, len(all))
	for _, item := range all {
		refID := stringField(item, "ref_id")
		if refID == "" {
			continue
		}
		if _, dup := seen[refID]; dup {
			continue
		}
		seen[refID] = struct{}{}

		kept := map[string]interface{}{}
		for _, key := range []string{"ref_id", "distance", "address", "name", "display", "categories"} {
			if v, ok := item[key]; ok {
				kept[key] = v
			}
		}
		display := stringField(item, "display")
		kept["url"] = "https://www.google.com/maps/search/?api=1&query=" +
			strings.ReplaceAll(display, " ", "+")
		results = append(results, kept)
	}
	return results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build provider request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "provider request %s failed", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("provider %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", path)
	}
	return nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveProviderRequest(endpoint, outcome)
	}
}

func stringField(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func numberField(raw map[string]interface{}, key string) (float64, bool) {
	switch v := raw[key].(type) {
	case float64:
		return v, true
	case string:
		var n float64
		if _, err := fmt.Sscanf(v, "%g", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}
