// internal/assistant/capability/defaults.go
package capability

import (
	"strings"

	"shop-assistant/internal/models"
)

// defaultTable is the deterministic fail-safe: literal shopper words mapped to
// capability weights, used when inference errors or returns nothing.
var defaultTable = []struct {
	triggers []string
	weight   models.CapabilityWeight
}{
	{[]string{"dark", "night", "low light", "dim", "stars"}, models.CapabilityWeight{CapabilityKey: "low_light", Weight: 1.0}},
	{[]string{"travel", "trip", "light", "compact", "carry"}, models.CapabilityWeight{CapabilityKey: "portability", Weight: 0.9}},
	{[]string{"vlog", "video", "film", "youtube"}, models.CapabilityWeight{CapabilityKey: "video_quality", Weight: 0.9}},
	{[]string{"focus", "fast", "moving", "kids", "pets", "sports", "action"}, models.CapabilityWeight{CapabilityKey: "autofocus", Weight: 0.8}},
	{[]string{"battery", "all day", "long"}, models.CapabilityWeight{CapabilityKey: "battery_life", Weight: 0.7}},
	{[]string{"rain", "water", "weather", "outdoor", "rugged"}, models.CapabilityWeight{CapabilityKey: "weather_sealing", Weight: 0.8}},
	{[]string{"zoom", "far", "distant", "wildlife", "bird"}, models.CapabilityWeight{CapabilityKey: "zoom_range", Weight: 0.9}},
	{[]string{"stream", "webcam", "twitch", "broadcast"}, models.CapabilityWeight{CapabilityKey: "streaming", Weight: 0.9}},
	{[]string{"portrait", "blur", "bokeh", "headshot"}, models.CapabilityWeight{CapabilityKey: "bokeh", Weight: 0.8}},
	{[]string{"shake", "stable", "handheld", "walking"}, models.CapabilityWeight{CapabilityKey: "stabilization", Weight: 0.8}},
	{[]string{"cheap", "budget", "affordable", "value"}, models.CapabilityWeight{CapabilityKey: "value", Weight: 0.7}},
	{[]string{"beginner", "easy", "simple", "auto"}, models.CapabilityWeight{CapabilityKey: "ease_of_use", Weight: 0.7}},
}

// genericWeights pad the vector when even the default table finds too few
// triggers; a broad query still gets a usable 3-entry vector.
var genericWeights = []models.CapabilityWeight{
	{CapabilityKey: "versatility", Weight: 0.5},
	{CapabilityKey: "ease_of_use", Weight: 0.5},
	{CapabilityKey: "value", Weight: 0.5},
}

func defaultWeights(query string) []models.CapabilityWeight {
	q := strings.ToLower(query)
	seen := make(map[string]bool)
	var out []models.CapabilityWeight
	for _, entry := range defaultTable {
		for _, trigger := range entry.triggers {
			if strings.Contains(q, trigger) && !seen[entry.weight.CapabilityKey] {
				out = append(out, entry.weight)
				seen[entry.weight.CapabilityKey] = true
				break
			}
		}
	}
	return out
}
