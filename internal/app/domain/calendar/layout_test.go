package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
	"github.com/npc-hackathon/tripplanner/internal/pkg/config"
)

func testConfig() config.CalendarConfig {
	return config.CalendarConfig{
		DayStartHour:        7,
		DayEndHour:          19,
		HourHeightPx:        80,
		MinBlockPx:          20,
		DefaultVisitMinutes: 60,
	}
}

func intPtr(v int) *int { return &v }

func TestLayoutPositionsBlocks(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout([]models.ScheduleEntry{
		{PlaceName: "Market", StartTime: "09:00", EndTime: "10:30"},
	})

	require.Len(t, layout.Blocks, 1)
	b := layout.Blocks[0]
	assert.Equal(t, 540, b.StartMinute)
	assert.Equal(t, 630, b.EndMinute)
	assert.InDelta(t, 160, b.TopPx, 0.001, "09:00 is two hours into the window")
	assert.InDelta(t, 120, b.HeightPx, 0.001, "90 minutes at 80px per hour")
	assert.InDelta(t, 960, layout.CanvasHeightPx, 0.001, "12 hour window")
}

func TestLayoutFallsBackToDurationThenDefault(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout([]models.ScheduleEntry{
		{PlaceName: "A", StartTime: "08:00", DurationMinutes: intPtr(30)},
		{PlaceName: "B", StartTime: "12:00"},
	})

	require.Len(t, layout.Blocks, 2)
	assert.Equal(t, 510, layout.Blocks[0].EndMinute, "explicit duration wins")
	assert.Equal(t, 780, layout.Blocks[1].EndMinute, "no end and no duration adds an hour")
}

func TestLayoutClampsToDayWindow(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout([]models.ScheduleEntry{
		{PlaceName: "Early", StartTime: "05:00", EndTime: "08:00"},
		{PlaceName: "Late", StartTime: "18:30", EndTime: "21:00"},
	})

	require.Len(t, layout.Blocks, 2)
	assert.Equal(t, 7*60, layout.Blocks[0].StartMinute, "pre-window start clamps to 07:00")
	assert.Equal(t, 19*60, layout.Blocks[1].EndMinute, "post-window end clamps to 19:00")
}

func TestLayoutDropsDuplicateStartMinutes(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout([]models.ScheduleEntry{
		{PlaceName: "First", StartTime: "09:00", EndTime: "10:00"},
		{PlaceName: "Second", StartTime: "09:00", EndTime: "11:00"},
		{PlaceName: "AlsoClamped", StartTime: "05:30", EndTime: "07:30"},
		{PlaceName: "ClampedDuplicate", StartTime: "06:00", EndTime: "08:00"},
	})

	require.Len(t, layout.Blocks, 2)
	assert.Equal(t, "First", layout.Blocks[0].Entry.PlaceName, "first entry at a start minute wins")
	assert.Equal(t, "AlsoClamped", layout.Blocks[1].Entry.PlaceName,
		"clamping can collide starts; later ones drop")
	assert.Equal(t, 2, layout.Dropped)
}

func TestLayoutSkipsEntriesWithoutStartTime(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout([]models.ScheduleEntry{
		{PlaceName: "NoStart"},
		{PlaceName: "BadStart", StartTime: "soon"},
		{PlaceName: "Good", StartTime: "10:00", EndTime: "11:00"},
	})

	require.Len(t, layout.Blocks, 1)
	assert.Equal(t, "Good", layout.Blocks[0].Entry.PlaceName)
	assert.Zero(t, layout.Dropped, "unparsable starts are skipped, not counted as duplicates")
}

func TestLayoutEnforcesMinimumBlockHeight(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout([]models.ScheduleEntry{
		{PlaceName: "Quick", StartTime: "09:00", EndTime: "09:05"},
	})

	require.Len(t, layout.Blocks, 1)
	assert.InDelta(t, 20, layout.Blocks[0].HeightPx, 0.001, "5 minutes would be 6.7px; floor applies")
}

func TestLayoutParsesClockInsideLongerStrings(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout([]models.ScheduleEntry{
		{PlaceName: "Timestamped", StartTime: "2026-03-14 09:15", EndTime: "2026-03-14 10:45"},
	})

	require.Len(t, layout.Blocks, 1)
	assert.Equal(t, 555, layout.Blocks[0].StartMinute)
	assert.Equal(t, 645, layout.Blocks[0].EndMinute)
}

func TestLayoutEmptyInput(t *testing.T) {
	engine := NewEngine(testConfig())

	layout := engine.Layout(nil)
	assert.NotNil(t, layout.Blocks)
	assert.Empty(t, layout.Blocks)
	assert.Len(t, layout.Hours, 13, "07:00 through 19:00 inclusive")
}
