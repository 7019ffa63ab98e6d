package models

import (
	"encoding/json"
)

// ScheduleStatus is the `status` discriminator of the scheduler's streamed
// events. The vocabulary mirrors what the backend actually emits; anything
// outside it is surfaced to the user as raw JSON.
type ScheduleStatus string

const (
	StatusOptimizing        ScheduleStatus = "optimizing"
	StatusOptimized         ScheduleStatus = "optimized"
	StatusProcessing        ScheduleStatus = "processing"
	StatusFetchingHours     ScheduleStatus = "fetching_hours"
	StatusPlaceHoursReady   ScheduleStatus = "place_hours_ready"
	StatusAIStart           ScheduleStatus = "ai_start"
	StatusAIProcessingPlace ScheduleStatus = "ai_processing_place"
	StatusPlaceScheduled    ScheduleStatus = "place_scheduled"
	StatusPlaceError        ScheduleStatus = "place_error"
	StatusGeneratingSummary ScheduleStatus = "generating_summary"
	StatusCompleted         ScheduleStatus = "completed"
	StatusDone              ScheduleStatus = "done"
	StatusError             ScheduleStatus = "error"
)

// ScheduleEntry is one time-boxed item of a generated day plan. The backend
// produces these; the front end only maps them into layout coordinates.
type ScheduleEntry struct {
	PlaceName             string   `json:"place_name"`
	Address               string   `json:"address,omitempty"`
	StartTime             string   `json:"start_time"`
	EndTime               string   `json:"end_time,omitempty"`
	DurationMinutes       *int     `json:"duration_minutes,omitempty"`
	Location              *LatLng  `json:"location,omitempty"`
	Notes                 string   `json:"notes,omitempty"`
	RecommendedActivities []string `json:"recommended_activities,omitempty"`
	TravelTimeToNext      *int     `json:"travel_time_to_next,omitempty"`
}

// StreamEvent is one decoded unit of the scheduling endpoint's incremental
// response. Opaque marks lines that did not carry the `data: ` prefix and
// are passed through as plain text.
type StreamEvent struct {
	Status   ScheduleStatus  `json:"status"`
	Place    string          `json:"place,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Progress int             `json:"progress,omitempty"`
	Total    int             `json:"total,omitempty"`

	// Raw is the full JSON text of the event (or the literal line for
	// opaque events), kept so unknown shapes and the completed payload can
	// be forwarded unmodified.
	Raw    string `json:"-"`
	Opaque bool   `json:"-"`
}

// Entry decodes the event's data payload as a schedule entry.
func (e StreamEvent) Entry() (*ScheduleEntry, bool) {
	if len(e.Data) == 0 {
		return nil, false
	}
	var entry ScheduleEntry
	if err := json.Unmarshal(e.Data, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// PlaceStatus records where a single place is in the scheduling pipeline.
type PlaceStatus struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ScheduleResult is the persisted payload of the terminal `completed`
// event, kept verbatim so later views see exactly what the backend sent.
type ScheduleResult struct {
	Raw json.RawMessage `json:"raw"`
}

// Entries digs the schedule entries out of the completed payload. The
// backend has nested the list at different depths across versions, so the
// lookup walks result.schedule.schedule, then schedule.schedule, then a
// bare schedule array.
func (r ScheduleResult) Entries() []ScheduleEntry {
	if len(r.Raw) == 0 {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(r.Raw, &doc); err != nil {
		return nil
	}

	if result, ok := doc["result"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(result, &inner); err == nil {
			if entries := entriesFromSchedule(inner["schedule"]); entries != nil {
				return entries
			}
		}
	}
	return entriesFromSchedule(doc["schedule"])
}

func entriesFromSchedule(raw json.RawMessage) []ScheduleEntry {
	if len(raw) == 0 {
		return nil
	}

	// either {"schedule": [...]} or a bare array
	var wrapper struct {
		Schedule []ScheduleEntry `json:"schedule"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Schedule != nil {
		return wrapper.Schedule
	}

	var entries []ScheduleEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries
	}
	return nil
}

// ScheduleRequest is the body sent to the scheduling endpoint.
type ScheduleRequest struct {
	Places    []Place `json:"places"`
	StartTime string  `json:"start_time,omitempty"`
	VisitDate string  `json:"visit_date,omitempty"`
	Prompt    string  `json:"prompt,omitempty"`
}
