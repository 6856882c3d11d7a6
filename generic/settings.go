package generic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SETTINGS - Global payroll policy
// =============================================================================

// Settings is the fully specified payroll configuration. Build it with
// DefaultSettings().Apply(patch); the calculator never re-derives defaults
// on read.
type Settings struct {
	AnnualLeaveStart     decimal.Decimal `json:"annualLeaveStart"`
	OT1Multiplier        decimal.Decimal `json:"ot1Multiplier"`
	OT2Multiplier        decimal.Decimal `json:"ot2Multiplier"`
	NightExtraMultiplier decimal.Decimal `json:"nightExtraMultiplier"`
	RoundMode            RoundMode       `json:"roundMode"`
	RoundUnit            int             `json:"roundUnit"`
	MonthlyStdHours      decimal.Decimal `json:"monthlyStdHours"`

	// Schedule boundaries, "HH:MM".
	ScheduledStart string `json:"scheduledStart"`
	OT1Start       string `json:"ot1Start"`
	OT1End         string `json:"ot1End"`
	NightStart     string `json:"nightStart"`
	NightEnd       string `json:"nightEnd"`
}

// DefaultSettings returns the literal default table. Tier 2 defaults to 1.5,
// the same as tier 1.
func DefaultSettings() Settings {
	return Settings{
		AnnualLeaveStart:     decimal.NewFromInt(15),
		OT1Multiplier:        decimal.RequireFromString("1.5"),
		OT2Multiplier:        decimal.RequireFromString("1.5"),
		NightExtraMultiplier: decimal.RequireFromString("0.5"),
		RoundMode:            RoundCeil,
		RoundUnit:            DefaultRoundUnit,
		MonthlyStdHours:      decimal.NewFromInt(209),
		ScheduledStart:       "09:00",
		OT1Start:             "18:00",
		OT1End:               "20:30",
		NightStart:           "22:00",
		NightEnd:             "06:00",
	}
}

// SettingsPatch is a partial override. Nil fields keep the base value.
type SettingsPatch struct {
	AnnualLeaveStart     *decimal.Decimal `json:"annualLeaveStart,omitempty"`
	OT1Multiplier        *decimal.Decimal `json:"ot1Multiplier,omitempty"`
	OT2Multiplier        *decimal.Decimal `json:"ot2Multiplier,omitempty"`
	NightExtraMultiplier *decimal.Decimal `json:"nightExtraMultiplier,omitempty"`
	RoundMode            *string          `json:"roundMode,omitempty"`
	RoundUnit            *int             `json:"roundUnit,omitempty"`
	MonthlyStdHours      *decimal.Decimal `json:"monthlyStdHours,omitempty"`
	ScheduledStart       *string          `json:"scheduledStart,omitempty"`
	OT1Start             *string          `json:"ot1Start,omitempty"`
	OT1End               *string          `json:"ot1End,omitempty"`
	NightStart           *string          `json:"nightStart,omitempty"`
	NightEnd             *string          `json:"nightEnd,omitempty"`
}

// Apply returns s with every valid patch field applied. Invalid values
// (negative numbers, unparsable clocks, non-positive unit) are ignored and
// the current value is kept, so Apply never fails. Zero is a valid value for
// multipliers and the leave entitlement.
func (s Settings) Apply(p SettingsPatch) Settings {
	nonNeg := func(dst *decimal.Decimal, v *decimal.Decimal) {
		if v != nil && !v.IsNegative() {
			*dst = *v
		}
	}
	clock := func(dst *string, v *string) {
		if v != nil {
			if _, ok := ToMinutes(*v); ok {
				*dst = *v
			}
		}
	}

	nonNeg(&s.AnnualLeaveStart, p.AnnualLeaveStart)
	nonNeg(&s.OT1Multiplier, p.OT1Multiplier)
	nonNeg(&s.OT2Multiplier, p.OT2Multiplier)
	nonNeg(&s.NightExtraMultiplier, p.NightExtraMultiplier)
	nonNeg(&s.MonthlyStdHours, p.MonthlyStdHours)
	if p.RoundMode != nil {
		s.RoundMode = ParseRoundMode(*p.RoundMode)
	}
	if p.RoundUnit != nil && *p.RoundUnit > 0 {
		s.RoundUnit = *p.RoundUnit
	}
	clock(&s.ScheduledStart, p.ScheduledStart)
	clock(&s.OT1Start, p.OT1Start)
	clock(&s.OT1End, p.OT1End)
	clock(&s.NightStart, p.NightStart)
	clock(&s.NightEnd, p.NightEnd)
	return s
}

// boundaries resolves the schedule clocks to minutes, falling back to the
// defaults for anything a hand-built Settings got wrong.
type boundaries struct {
	scheduledStart int
	ot1Start       int
	ot1End         int
	nightStart     int
	nightEnd       int
}

func (s Settings) boundaries() boundaries {
	return boundaries{
		scheduledStart: clockOr(s.ScheduledStart, 9*60),
		ot1Start:       clockOr(s.OT1Start, 18*60),
		ot1End:         clockOr(s.OT1End, 20*60+30),
		nightStart:     clockOr(s.NightStart, 22*60),
		nightEnd:       clockOr(s.NightEnd, 6*60),
	}
}

func clockOr(hhmm string, fallback int) int {
	if m, ok := ToMinutes(hhmm); ok {
		return m
	}
	return fallback
}

// ParseSettingsPatch decodes a settings object into a patch. Keys may be
// camelCase (backup files) or snake_case (API bodies); numbers may be JSON
// numbers or numeric strings. Only a document that is not a JSON object is an
// error; bad individual values are dropped and Apply keeps the base value.
func ParseSettingsPatch(data []byte) (SettingsPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return SettingsPatch{}, fmt.Errorf("parse settings: %w", err)
	}

	field := func(camel string) json.RawMessage {
		if v, ok := raw[camel]; ok {
			return v
		}
		return raw[snakeCase(camel)]
	}

	var p SettingsPatch
	p.AnnualLeaveStart = decimalField(field("annualLeaveStart"))
	p.OT1Multiplier = decimalField(field("ot1Multiplier"))
	p.OT2Multiplier = decimalField(field("ot2Multiplier"))
	p.NightExtraMultiplier = decimalField(field("nightExtraMultiplier"))
	p.MonthlyStdHours = decimalField(field("monthlyStdHours"))
	p.RoundMode = stringField(field("roundMode"))
	if d := decimalField(field("roundUnit")); d != nil && d.IsInteger() {
		unit := int(d.IntPart())
		p.RoundUnit = &unit
	}
	p.ScheduledStart = stringField(field("scheduledStart"))
	p.OT1Start = stringField(field("ot1Start"))
	p.OT1End = stringField(field("ot1End"))
	p.NightStart = stringField(field("nightStart"))
	p.NightEnd = stringField(field("nightEnd"))
	return p, nil
}

// decimalField accepts a JSON number or a numeric string.
func decimalField(raw json.RawMessage) *decimal.Decimal {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &d
}

func stringField(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

// snakeCase converts "ot1Multiplier" to "ot1_multiplier".
func snakeCase(camel string) string {
	var b strings.Builder
	for _, r := range camel {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
