/*
payroll.go - Time-window payroll calculation

PURPOSE:
  Derives lateness, overtime tiers and night differential for one person on
  one date, plus the resulting pay amounts. Pure: no side effects, no
  mutation, no failure for any well-typed input.

POLICY:
  1. Effective hourly wage:
       monthly -> monthlyBase / monthlyStdHours (0 if the divisor <= 0)
       hourly  -> hourlyWage
  2. leave / half / absent, or no valid work interval -> everything zero
  3. From the work interval [start, end):
       Lateness = max(0, start - scheduledStart), rounded
       Tier 1   = overlap with [ot1Start, ot1End), rounded
       Tier 2   = overlap with [ot1End, end), rounded
       Night    = overlap with the night window, NOT rounded
  4. Pay:
       tier pay  = rounded minutes / 60 * wage * multiplier
       night pay = raw night minutes / 60 * wage * nightExtraMultiplier
       total     = tier1 + tier2 + night

WHY NIGHT IS NOT ROUNDED:
  The night differential is a rate adjustment layered on minutes that are
  already counted in a tier. Rounding it again would compound rounding error.

EXAMPLE (defaults, wage 10,000/h):
  In 18:00, out 23:00
    Tier 1: 18:00-20:30 = 150 -> 150 min  -> 37,500
    Tier 2: 20:30-23:00 = 150 -> 150 min  -> 37,500
    Night:  22:00-23:00 =  60 min (raw)   ->  5,000
    Total:                                   80,000

SEE ALSO:
  - time.go: Interval arithmetic and rounding
  - settings.go: Boundaries and multipliers
*/
package generic

import "github.com/shopspring/decimal"

var sixty = decimal.NewFromInt(60)

// PayrollResult holds raw and rounded minutes per category and pay amounts.
// Amounts are unrounded; currency rounding is a display concern.
type PayrollResult struct {
	HourlyWage decimal.Decimal

	LateRaw     int
	LateRounded int
	OT1Raw      int
	OT1Rounded  int
	OT2Raw      int
	OT2Rounded  int
	NightRaw    int

	PayOT1   decimal.Decimal
	PayOT2   decimal.Decimal
	PayNight decimal.Decimal
	PayTotal decimal.Decimal
}

// HourlyWage resolves a person's effective hourly wage. Never negative.
func HourlyWage(p Person, s Settings) decimal.Decimal {
	var wage decimal.Decimal
	if p.PayType == PayMonthly {
		if !s.MonthlyStdHours.IsPositive() {
			return decimal.Zero
		}
		wage = p.MonthlyBase.Div(s.MonthlyStdHours)
	} else {
		wage = p.HourlyWage
	}
	if wage.IsNegative() {
		return decimal.Zero
	}
	return wage
}

// Calculate derives the payroll figures for one person's record.
func Calculate(p Person, rec DayRecord, s Settings) PayrollResult {
	res := PayrollResult{
		HourlyWage: HourlyWage(p, s),
		PayOT1:     decimal.Zero,
		PayOT2:     decimal.Zero,
		PayNight:   decimal.Zero,
		PayTotal:   decimal.Zero,
	}
	if rec.Status.NonWorked() {
		return res
	}
	iv, ok := WorkInterval(rec.InTime, rec.OutTime)
	if !ok {
		return res
	}

	b := s.boundaries()
	round := func(m int) int { return Round(m, s.RoundUnit, s.RoundMode) }

	res.LateRaw = max(0, iv.Start-b.scheduledStart)
	res.LateRounded = round(res.LateRaw)

	res.OT1Raw = Overlap(iv.Start, iv.End, b.ot1Start, b.ot1End)
	res.OT1Rounded = round(res.OT1Raw)

	// Tier 2 starts where tier 1 ends and runs to clock-out.
	res.OT2Raw = Overlap(iv.Start, iv.End, b.ot1End, iv.End)
	res.OT2Rounded = round(res.OT2Raw)

	res.NightRaw = NightOverlapMinutes(iv, b.nightStart, b.nightEnd)

	res.PayOT1 = pay(res.OT1Rounded, res.HourlyWage, s.OT1Multiplier)
	res.PayOT2 = pay(res.OT2Rounded, res.HourlyWage, s.OT2Multiplier)
	res.PayNight = pay(res.NightRaw, res.HourlyWage, s.NightExtraMultiplier)
	res.PayTotal = res.PayOT1.Add(res.PayOT2).Add(res.PayNight)
	return res
}

func pay(minutes int, wage, multiplier decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Mul(wage).Mul(multiplier).Div(sixty)
}
