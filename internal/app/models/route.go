package models

// MarkerKind distinguishes the first, last and intermediate stops.
type MarkerKind string

const (
	MarkerStart MarkerKind = "start"
	MarkerMid   MarkerKind = "mid"
	MarkerEnd   MarkerKind = "end"
)

// Marker is a numbered map marker with a persistent label popup.
type Marker struct {
	Index    int        `json:"index"` // 1-based display number
	Kind     MarkerKind `json:"kind"`
	Label    string     `json:"label"`
	Position LatLng     `json:"position"`
}

// Instruction is one turn-by-turn step returned by the routing provider.
type Instruction struct {
	Text           string  `json:"text"`
	DistanceMeters float64 `json:"distance"`
}

// BBox is [minLng, minLat, maxLng, maxLat], the routing provider's layout.
type BBox [4]float64

// AnimationPlan drives the marker that steps along the route: advance
// Stride coordinates every TickMs until the end of the line.
type AnimationPlan struct {
	Stride int `json:"stride"`
	TickMs int `json:"tick_ms"`
}

// RoutePlan is everything a map widget needs to draw the day trip: the
// route geometry, its bounds, one marker per stop, optional turn-by-turn
// instructions and the animated-marker plan. Routed reports whether the
// geometry came from the routing provider or is the straight-line fallback
// through the input points.
type RoutePlan struct {
	Coordinates  []LatLng       `json:"coordinates"`
	BBox         *BBox          `json:"bbox,omitempty"`
	Markers      []Marker       `json:"markers"`
	Instructions []Instruction  `json:"instructions,omitempty"`
	Animation    *AnimationPlan `json:"animation,omitempty"`
	Routed       bool           `json:"routed"`
}
