package models

import (
	"math"
	"strconv"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a normalized point-of-interest record. RefID is the stable
// identifier assigned by the places provider; a Place without one cannot
// be selected or deduplicated.
type Place struct {
	RefID    string   `json:"ref_id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Distance *float64 `json:"distance"` // kilometers, nil when unknown
	URL      *string  `json:"url"`
}

// ResultPlace is a Place as shown in the search-results view, carrying the
// per-view selection flag that gets persisted with the panel state.
type ResultPlace struct {
	Place
	IsSelected bool `json:"isSelected"`

	// Tags are the category labels whose keywords appear in the place
	// name, for filter chips in the result list.
	Tags []string `json:"tags,omitempty"`
}

// DistanceValue returns the sortable distance of a raw distance field.
// Numbers and numeric strings are accepted; anything else (including nil)
// sorts after every real value.
func DistanceValue(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return math.Inf(1)
}

// SortDistance is DistanceValue for an already-normalized Place.
func (p Place) SortDistance() float64 {
	if p.Distance == nil {
		return math.Inf(1)
	}
	return *p.Distance
}
