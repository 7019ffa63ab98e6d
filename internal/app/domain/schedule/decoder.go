package schedule

import (
	"encoding/json"
	"strings"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

const framePrefix = "data: "

// Decoder reassembles the scheduling endpoint's chunked response into
// discrete events. Frames are separated by blank lines and may arrive
// split across arbitrary chunk boundaries; the trailing partial frame is
// carried over between Feed calls and delivered by Flush at stream end.
type Decoder struct {
	buffer strings.Builder
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk and returns every complete frame it closed off.
func (d *Decoder) Feed(chunk []byte) []models.StreamEvent {
	d.buffer.Write(chunk)

	parts := strings.Split(d.buffer.String(), "\n\n")
	d.buffer.Reset()
	d.buffer.WriteString(parts[len(parts)-1]) // remainder, possibly partial

	var events []models.StreamEvent
	for _, part := range parts[:len(parts)-1] {
		if ev, ok := decodeFrame(part); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Flush decodes whatever is left in the buffer. The backend does not
// always terminate the last frame with a separator, so the remainder is
// treated as one or more complete frames.
func (d *Decoder) Flush() []models.StreamEvent {
	rest := d.buffer.String()
	d.buffer.Reset()
	if strings.TrimSpace(rest) == "" {
		return nil
	}

	var events []models.StreamEvent
	for _, part := range strings.Split(rest, "\n\n") {
		if ev, ok := decodeFrame(part); ok {
			events = append(events, ev)
		}
	}
	return events
}

// decodeFrame parses one frame. Frames carrying the `data: ` prefix with
// valid JSON become typed events; JSON parse failures are dropped; frames
// without the prefix pass through opaque so the user still sees them.
func decodeFrame(part string) (models.StreamEvent, bool) {
	line := strings.TrimSpace(part)
	if line == "" {
		return models.StreamEvent{}, false
	}

	if !strings.HasPrefix(line, framePrefix) {
		return models.StreamEvent{Raw: line, Opaque: true}, true
	}

	payload := line[len(framePrefix):]
	var ev models.StreamEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return models.StreamEvent{}, false
	}
	ev.Raw = payload
	return ev, true
}
