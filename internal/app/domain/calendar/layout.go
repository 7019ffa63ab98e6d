package calendar

import (
	"regexp"
	"strconv"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
)

var clockRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// Block is one positioned entry on the day timeline. Pixel values assume
// the canvas starts at the day window's first hour.
type Block struct {
	Entry       models.ScheduleEntry `json:"entry"`
	StartMinute int                  `json:"start_minute"`
	EndMinute   int                  `json:"end_minute"`
	TopPx       float64              `json:"top"`
	HeightPx    float64              `json:"height"`
}

// HourMark is a gridline position for one hour of the day window.
type HourMark struct {
	Hour  int     `json:"hour"`
	TopPx float64 `json:"top"`
}

// Layout is the fully positioned timeline.
type Layout struct {
	Blocks         []Block    `json:"blocks"`
	Hours          []HourMark `json:"hours"`
	CanvasHeightPx float64    `json:"canvas_height"`

	// Dropped counts entries discarded because another entry already
	// occupied their clamped start minute.
	Dropped int `json:"dropped"`
}

// Engine maps schedule entries onto a fixed day window. Entries are
// clamped into the window, entries with no parsable start time are
// skipped, and of several entries sharing one clamped start minute only
// the first is kept.
type Engine struct {
	cfg config.CalendarConfig
}

func NewEngine(cfg config.CalendarConfig) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Layout(entries []models.ScheduleEntry) Layout {
	dayStart := e.cfg.DayStartHour * 60
	dayEnd := e.cfg.DayEndHour * 60

	layout := Layout{
		Blocks:         []Block{},
		CanvasHeightPx: e.minutesToPx(dayEnd - dayStart),
	}
	for h := e.cfg.DayStartHour; h <= e.cfg.DayEndHour; h++ {
		layout.Hours = append(layout.Hours, HourMark{
			Hour:  h,
			TopPx: e.minutesToPx(h*60 - dayStart),
		})
	}

	seenStarts := make(map[int]bool)
	for _, entry := range entries {
		start, ok := parseClock(entry.StartTime)
		if !ok {
			continue
		}

		end, ok := parseClock(entry.EndTime)
		if !ok {
			switch {
			case entry.DurationMinutes != nil:
				end = start + *entry.DurationMinutes
			default:
				end = start + e.cfg.DefaultVisitMinutes
			}
		}

		s := clamp(start, dayStart, dayEnd)
		en := clamp(end, dayStart, dayEnd)
		if seenStarts[s] {
			layout.Dropped++
			continue
		}
		seenStarts[s] = true

		height := e.minutesToPx(en - s)
		if height < float64(e.cfg.MinBlockPx) {
			height = float64(e.cfg.MinBlockPx)
		}
		layout.Blocks = append(layout.Blocks, Block{
			Entry:       entry,
			StartMinute: s,
			EndMinute:   en,
			TopPx:       e.minutesToPx(s - dayStart),
			HeightPx:    height,
		})
	}
	return layout
}

func (e *Engine) minutesToPx(minutes int) float64 {
	return float64(minutes) * float64(e.cfg.HourHeightPx) / 60
}

// parseClock pulls the first HH:MM token out of a time string, tolerating
// surrounding text like dates or timezone suffixes.
func parseClock(s string) (int, bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return hh*60 + mm, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
