package models

// Suggestion is one autocomplete hit from the places provider.
type Suggestion struct {
	RefID   string `json:"ref_id"`
	Name    string `json:"name"`
	Display string `json:"display"`
	Address string `json:"address,omitempty"`
}

// PlaceDetail is the resolved detail record for a suggestion's ref id.
type PlaceDetail struct {
	RefID   string  `json:"ref_id,omitempty"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// PlaceInfo is the display name/address of the resolved start location.
type PlaceInfo struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// SearchRequest is the body of a place search.
type SearchRequest struct {
	Location   *LatLng  `json:"location"`
	Categories []string `json:"categories"`
}

// SearchPanelState is the persisted state of the search view: the free-text
// query, chosen categories, the resolved start location and the last result
// list with per-result selection flags. LastResults == nil means no search
// has run yet; an empty slice means a search found nothing.
type SearchPanelState struct {
	Query          string        `json:"location"`
	Selected       []string      `json:"selected"`
	SelectedLabels []string      `json:"selectedLabels"`
	Location       *LatLng       `json:"selectedLocation"`
	PlaceInfo      *PlaceInfo    `json:"selectedPlaceInfo"`
	LastResults    []ResultPlace `json:"lastResults"`
}
