/*
Package factory provides JSON to Go settings conversion.

PURPOSE:
  Converts loosely typed settings documents (settings files, API bodies,
  backups produced by older clients) into generic.SettingsPatch and
  generic.Settings. Numbers may arrive as JSON numbers or as numeric
  strings; anything unusable is skipped and the default is kept.

JSON SCHEMA:
  {
    "annualLeaveStart": 15,
    "ot1Multiplier": "1.5",
    "ot2Multiplier": 1.5,
    "nightExtraMultiplier": 0.5,
    "roundMode": "ceil",
    "roundUnit": 30,
    "monthlyStdHours": 209,
    "scheduledStart": "09:00",
    "ot1Start": "18:00",
    "ot1End": "20:30",
    "nightStart": "22:00",
    "nightEnd": "06:00"
  }

USAGE:
  f := factory.NewSettingsFactory()
  settings, err := f.ParseSettings(jsonString)

  // From a named preset
  settings, err := f.ParseSettings(factory.PresetJSON(factory.PresetTiered))

SEE ALSO:
  - generic/settings.go: Settings and SettingsPatch
*/
package factory

import (
	"fmt"
	"os"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// SETTINGS FACTORY
// =============================================================================

// SettingsFactory converts JSON settings to Go structs.
type SettingsFactory struct{}

// NewSettingsFactory creates a new settings factory.
func NewSettingsFactory() *SettingsFactory {
	return &SettingsFactory{}
}

// ParsePatch decodes a settings object into a patch. Keys may be camelCase
// (backup files) or snake_case (API bodies). Only a document that is not a
// JSON object is an error; bad individual values are dropped.
func (f *SettingsFactory) ParsePatch(data []byte) (generic.SettingsPatch, error) {
	return generic.ParseSettingsPatch(data)
}

// ParseSettings decodes a settings object and merges it over the defaults.
func (f *SettingsFactory) ParseSettings(jsonStr string) (generic.Settings, error) {
	p, err := f.ParsePatch([]byte(jsonStr))
	if err != nil {
		return generic.Settings{}, err
	}
	return generic.DefaultSettings().Apply(p), nil
}

// PatchFromFile reads a settings file as a patch; only the keys present in
// the file override anything.
func (f *SettingsFactory) PatchFromFile(path string) (generic.SettingsPatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return generic.SettingsPatch{}, fmt.Errorf("read settings file: %w", err)
	}
	return f.ParsePatch(data)
}

// FromFile reads a settings file and merges it over the defaults.
func (f *SettingsFactory) FromFile(path string) (generic.Settings, error) {
	p, err := f.PatchFromFile(path)
	if err != nil {
		return generic.Settings{}, err
	}
	return generic.DefaultSettings().Apply(p), nil
}
