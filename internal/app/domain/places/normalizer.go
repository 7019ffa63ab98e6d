package places

import (
	"fmt"
	"math"

	"github.com/npc-hackathon/tripplanner/internal/app/models"
)

// Normalize converts a raw provider record into a Place. The providers are
// inconsistent about field names, so each field is resolved through a
// fallback chain. Records without any usable identifier normalize to nil:
// a Place with no stable ref cannot be selected or deduplicated.
//
// Normalize is pure and idempotent; feeding a normalized Place back in
// yields an equivalent Place.
func Normalize(raw map[string]interface{}) *models.Place {
	if raw == nil {
		return nil
	}
	ref := firstString(raw, "ref_id", "refId", "id", "ref")
	if ref == "" {
		return nil
	}
	p := normalizeFields(raw)
	p.RefID = ref
	return &p
}

// NormalizeLenient is Normalize for display contexts that tolerate records
// without an identifier (search-result listings). The RefID is left empty
// when none of the id fields is present.
func NormalizeLenient(raw map[string]interface{}) models.Place {
	p := normalizeFields(raw)
	p.RefID = firstString(raw, "ref_id", "refId", "id", "ref")
	return p
}

func normalizeFields(raw map[string]interface{}) models.Place {
	p := models.Place{
		Name:    firstString(raw, "name", "display", "title"),
		Address: firstString(raw, "address", "addr", "vicinity"),
	}

	for _, key := range []string{"distance", "dist"} {
		if v, ok := raw[key]; ok && v != nil {
			if d := models.DistanceValue(v); !math.IsInf(d, 1) {
				p.Distance = &d
			}
			break
		}
	}

	if u, ok := raw["url"].(string); ok && u != "" {
		p.URL = &u
	}
	return p
}

// firstString returns the first present, non-empty field coerced to a
// string. Providers sometimes send numeric ids, so numbers are accepted.
func firstString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			// JSON numbers decode as float64; ids are integral
			return fmt.Sprintf("%.0f", s)
		case int:
			return fmt.Sprintf("%d", s)
		}
	}
	return ""
}
