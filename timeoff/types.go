// Package timeoff derives annual leave usage from attendance records.
// It reads the engine through RecordSource and never mutates anything.
package timeoff

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// RecordSource is the read side of the attendance engine the accountant
// needs. *generic.Engine implements it.
type RecordSource interface {
	RecordsInPeriod(pid generic.PersonID, p generic.Period) []generic.DatedRecord
	Settings() generic.Settings
}

var _ RecordSource = (*generic.Engine)(nil)

// Day weights for leave statuses.
var (
	FullDay = decimal.NewFromInt(1)
	HalfDay = decimal.RequireFromString("0.5")
)

// DayWeight returns how much leave a status consumes.
func DayWeight(s generic.StatusID) decimal.Decimal {
	switch s {
	case generic.StatusLeave:
		return FullDay
	case generic.StatusHalf:
		return HalfDay
	}
	return decimal.Zero
}

// DayOff is one date on which leave was taken.
type DayOff struct {
	Date   generic.DateKey
	Status generic.StatusID
	Days   generic.Amount
}

// Usage summarizes leave taken in one calendar year.
type Usage struct {
	Period      generic.Period
	UsedFull    int
	UsedHalf    int
	UsedDays    generic.Amount
	Entitlement generic.Amount
	Remaining   generic.Amount
}
