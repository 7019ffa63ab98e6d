package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

func TestDecoderReassemblesSplitFrames(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("data: {\"status\":\"opti"))
	assert.Empty(t, events, "a partial frame must not produce an event")

	events = d.Feed([]byte("mizing\",\"message\":\"dang toi uu\"}\n\ndata: {\"status\":\"proc"))
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusOptimizing, events[0].Status)
	assert.Equal(t, "dang toi uu", events[0].Message)

	events = d.Feed([]byte("essing\"}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusProcessing, events[0].Status)
}

func TestDecoderFeedReturnsMultipleFrames(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("data: {\"status\":\"ai_start\"}\n\ndata: {\"status\":\"done\"}\n\n"))
	require.Len(t, events, 2)
	assert.Equal(t, models.StatusAIStart, events[0].Status)
	assert.Equal(t, models.StatusDone, events[1].Status)
}

func TestDecoderFlushesUnterminatedTrailingFrame(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("data: {\"status\":\"completed\",\"result\":{}}"))
	assert.Empty(t, events)

	events = d.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusCompleted, events[0].Status)
	assert.JSONEq(t, `{"status":"completed","result":{}}`, events[0].Raw)

	assert.Empty(t, d.Flush(), "flush drains the buffer")
}

func TestDecoderSkipsMalformedJSON(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("data: {not json}\n\ndata: {\"status\":\"optimized\"}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusOptimized, events[0].Status)
}

func TestDecoderPassesUnprefixedLinesThroughOpaque(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("warming up the model\n\n"))
	require.Len(t, events, 1)
	assert.True(t, events[0].Opaque)
	assert.Equal(t, "warming up the model", events[0].Raw)
}

func TestDecoderIgnoresBlankFrames(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("\n\n\n\ndata: {\"status\":\"done\"}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, models.StatusDone, events[0].Status)
}

func TestDecoderKeepsEventPayloadVerbatim(t *testing.T) {
	d := NewDecoder()

	payload := `{"status":"place_scheduled","place":"Ben Thanh","data":{"place_name":"Ben Thanh","start_time":"09:00"}}`
	events := d.Feed([]byte("data: " + payload + "\n\n"))
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, models.StatusPlaceScheduled, ev.Status)
	assert.Equal(t, "Ben Thanh", ev.Place)
	assert.Equal(t, payload, ev.Raw)

	entry, ok := ev.Entry()
	require.True(t, ok)
	assert.Equal(t, "Ben Thanh", entry.PlaceName)
	assert.Equal(t, "09:00", entry.StartTime)
}
