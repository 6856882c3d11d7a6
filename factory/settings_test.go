package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseSettings_NumbersAndStrings(t *testing.T) {
	// GIVEN: A document mixing JSON numbers and numeric strings
	// THEN: Both forms are accepted
	f := factory.NewSettingsFactory()
	s, err := f.ParseSettings(`{
		"ot1Multiplier": "1.75",
		"ot2Multiplier": 2,
		"nightExtraMultiplier": " 0.3 ",
		"roundUnit": "15",
		"roundMode": "floor",
		"ot1End": "21:00"
	}`)
	require.NoError(t, err)

	assert.True(t, dec("1.75").Equal(s.OT1Multiplier))
	assert.True(t, dec("2").Equal(s.OT2Multiplier))
	assert.True(t, dec("0.3").Equal(s.NightExtraMultiplier))
	assert.Equal(t, 15, s.RoundUnit)
	assert.Equal(t, generic.RoundFloor, s.RoundMode)
	assert.Equal(t, "21:00", s.OT1End)

	def := generic.DefaultSettings()
	assert.True(t, def.AnnualLeaveStart.Equal(s.AnnualLeaveStart), "absent keys keep defaults")
	assert.Equal(t, def.NightStart, s.NightStart)
}

func TestParsePatch_SnakeCaseAliases(t *testing.T) {
	f := factory.NewSettingsFactory()
	p, err := f.ParsePatch([]byte(`{"annual_leave_start": 20, "ot1_end": "20:00", "round_unit": 10}`))
	require.NoError(t, err)

	require.NotNil(t, p.AnnualLeaveStart)
	assert.True(t, dec("20").Equal(*p.AnnualLeaveStart))
	require.NotNil(t, p.OT1End)
	assert.Equal(t, "20:00", *p.OT1End)
	require.NotNil(t, p.RoundUnit)
	assert.Equal(t, 10, *p.RoundUnit)
	assert.Nil(t, p.OT2Multiplier)
}

func TestParsePatch_BadValuesDropped(t *testing.T) {
	f := factory.NewSettingsFactory()
	p, err := f.ParsePatch([]byte(`{
		"ot1Multiplier": "lots",
		"ot2Multiplier": null,
		"roundUnit": 7.5,
		"roundMode": 3,
		"nightStart": true
	}`))
	require.NoError(t, err)

	assert.Nil(t, p.OT1Multiplier)
	assert.Nil(t, p.OT2Multiplier)
	assert.Nil(t, p.RoundUnit, "round unit must be a whole number")
	assert.Nil(t, p.RoundMode)
	assert.Nil(t, p.NightStart)
}

func TestParsePatch_NotAnObject(t *testing.T) {
	f := factory.NewSettingsFactory()
	_, err := f.ParsePatch([]byte(`[1, 2]`))
	assert.Error(t, err)
	_, err = f.ParseSettings(`nope`)
	assert.Error(t, err)
}

func TestParseSettings_NegativeAndZero(t *testing.T) {
	// Negative values fall back to the default; zero is kept.
	f := factory.NewSettingsFactory()
	s, err := f.ParseSettings(`{"ot1Multiplier": -1, "nightExtraMultiplier": 0, "roundUnit": 0}`)
	require.NoError(t, err)

	assert.True(t, dec("1.5").Equal(s.OT1Multiplier))
	assert.True(t, s.NightExtraMultiplier.IsZero())
	assert.Equal(t, generic.DefaultRoundUnit, s.RoundUnit)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"monthlyStdHours": 200}`), 0o644))

	f := factory.NewSettingsFactory()
	s, err := f.FromFile(path)
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(s.MonthlyStdHours))

	p, err := f.PatchFromFile(path)
	require.NoError(t, err)
	assert.Nil(t, p.OT1Multiplier, "a patch carries only the file's keys")

	_, err = f.FromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// =============================================================================
// PRESETS
// =============================================================================

func TestPresets_AllParse(t *testing.T) {
	f := factory.NewSettingsFactory()
	for _, name := range factory.PresetNames {
		t.Run(name, func(t *testing.T) {
			js := factory.PresetJSON(name)
			require.NotEmpty(t, js)
			_, err := f.ParseSettings(js)
			assert.NoError(t, err)
		})
	}
	assert.Empty(t, factory.PresetJSON("nonexistent"))
}

func TestPresetStandard_IsTheDefaults(t *testing.T) {
	s, err := factory.NewSettingsFactory().ParseSettings(factory.PresetJSON(factory.PresetStandard))
	require.NoError(t, err)
	def := generic.DefaultSettings()

	assert.True(t, def.OT1Multiplier.Equal(s.OT1Multiplier))
	assert.True(t, def.OT2Multiplier.Equal(s.OT2Multiplier))
	assert.True(t, def.NightExtraMultiplier.Equal(s.NightExtraMultiplier))
	assert.True(t, def.MonthlyStdHours.Equal(s.MonthlyStdHours))
	assert.Equal(t, def.RoundMode, s.RoundMode)
	assert.Equal(t, def.RoundUnit, s.RoundUnit)
}

func TestPresetTiered(t *testing.T) {
	s, err := factory.NewSettingsFactory().ParseSettings(factory.PresetJSON(factory.PresetTiered))
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(s.OT2Multiplier))
	assert.Equal(t, generic.RoundNearest, s.RoundMode)
}

func TestPresetExact(t *testing.T) {
	s, err := factory.NewSettingsFactory().ParseSettings(factory.PresetJSON(factory.PresetExact))
	require.NoError(t, err)
	assert.Equal(t, generic.RoundFloor, s.RoundMode)
	assert.Equal(t, 1, s.RoundUnit)
}
