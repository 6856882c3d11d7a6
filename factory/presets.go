package factory

import "encoding/json"

// Preset names.
const (
	PresetStandard = "standard"
	PresetTiered   = "tiered"
	PresetExact    = "exact"
)

// PresetNames lists the presets in display order.
var PresetNames = []string{PresetStandard, PresetTiered, PresetExact}

var presets = map[string]map[string]interface{}{
	// The defaults, spelled out.
	PresetStandard: {
		"annualLeaveStart":     15,
		"ot1Multiplier":        1.5,
		"ot2Multiplier":        1.5,
		"nightExtraMultiplier": 0.5,
		"roundMode":            "ceil",
		"roundUnit":            30,
		"monthlyStdHours":      209,
	},
	// Late overtime paid at double time.
	PresetTiered: {
		"ot1Multiplier": 1.5,
		"ot2Multiplier": 2,
		"roundMode":     "nearest",
		"roundUnit":     30,
	},
	// Minute-exact, never rounds in the worker's favor.
	PresetExact: {
		"roundMode": "floor",
		"roundUnit": 1,
	},
}

// PresetJSON returns the settings JSON for a named preset, or "" if unknown.
func PresetJSON(name string) string {
	p, ok := presets[name]
	if !ok {
		return ""
	}
	b, _ := json.MarshalIndent(p, "", "  ")
	return string(b)
}
