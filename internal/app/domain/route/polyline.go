package route

import (
	"math"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

// DecodePolyline decodes a Google-style encoded polyline. Each coordinate
// is a zigzag-encoded delta packed into 5-bit groups offset by 63; the
// routing provider encodes with precision 5.
func DecodePolyline(encoded string, precision int) []models.LatLng {
	factor := math.Pow10(precision)

	var coords []models.LatLng
	index, lat, lng := 0, 0, 0
	for index < len(encoded) {
		dLat, next, ok := decodeDelta(encoded, index)
		if !ok {
			break
		}
		lat += dLat

		dLng, next, ok := decodeDelta(encoded, next)
		if !ok {
			break
		}
		lng += dLng
		index = next

		coords = append(coords, models.LatLng{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}
	return coords
}

func decodeDelta(encoded string, index int) (value, next int, ok bool) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, false
		}
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 == 1 {
		return ^(result >> 1), index, true
	}
	return result >> 1, index, true
}
