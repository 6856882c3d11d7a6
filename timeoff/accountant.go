/*
accountant.go - Annual leave accounting

PURPOSE:
  Counts leave taken by one person within the calendar year of a reference
  date and compares it with the annual entitlement from the settings.

RULES:
  - Only records whose date is in [Jan 1, Dec 31] of the reference year count
  - leave = 1 day, half = 0.5 day, every other status = 0
  - remaining = entitlement - used, rounded to one decimal place
  - remaining may go negative; overdrawn leave is reported, not blocked

EXAMPLE:
  Entitlement 15, three "leave" days and two "half" days in 2026:
    used      = 3 + 2*0.5 = 4.0
    remaining = 15 - 4.0  = 11.0

SEE ALSO:
  - generic/period.go: Calendar year periods
  - generic/engine.go: RecordsInPeriod
*/
package timeoff

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Accountant computes leave usage from a RecordSource.
type Accountant struct {
	source RecordSource
}

func NewAccountant(source RecordSource) *Accountant {
	return &Accountant{source: source}
}

// DaysOff lists the leave dates of a person within p, in date order.
func (a *Accountant) DaysOff(pid generic.PersonID, p generic.Period) []DayOff {
	var out []DayOff
	for _, dr := range a.source.RecordsInPeriod(pid, p) {
		w := DayWeight(dr.Record.Status)
		if w.IsZero() {
			continue
		}
		out = append(out, DayOff{
			Date:   dr.Date,
			Status: dr.Record.Status,
			Days:   generic.Amount{Value: w, Unit: generic.UnitDays},
		})
	}
	return out
}

// Usage returns the leave usage for the calendar year containing date.
func (a *Accountant) Usage(pid generic.PersonID, date generic.DateKey) Usage {
	period := generic.PeriodFor(date)
	u := Usage{
		Period:      period,
		UsedDays:    generic.Amount{Value: decimal.Zero, Unit: generic.UnitDays},
		Entitlement: generic.Amount{Value: a.source.Settings().AnnualLeaveStart, Unit: generic.UnitDays},
	}
	for _, d := range a.DaysOff(pid, period) {
		if d.Status == generic.StatusLeave {
			u.UsedFull++
		} else {
			u.UsedHalf++
		}
		u.UsedDays = u.UsedDays.Add(d.Days)
	}
	u.Remaining = u.Entitlement.Sub(u.UsedDays).Round(1)
	return u
}

// Remaining is shorthand for Usage(pid, date).Remaining.
func (a *Accountant) Remaining(pid generic.PersonID, date generic.DateKey) generic.Amount {
	return a.Usage(pid, date).Remaining
}
