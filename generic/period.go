package generic

import "time"

// =============================================================================
// PERIOD - Calendar year boundary for leave accounting
// =============================================================================

// Period is an inclusive [Start, End] range of date keys.
//
// Leave entitlement is tracked per calendar year: Jan 1 - Dec 31 of the year
// the date key falls in.
type Period struct {
	Start DateKey
	End   DateKey
}

// CalendarYear returns the period covering the whole of year.
func CalendarYear(year int) Period {
	return Period{
		Start: NewDateKey(year, time.January, 1),
		End:   NewDateKey(year, time.December, 31),
	}
}

// PeriodFor returns the calendar year containing k.
func PeriodFor(k DateKey) Period {
	return CalendarYear(k.Year())
}

// Contains returns true if k is within [Start, End].
func (p Period) Contains(k DateKey) bool {
	return !k.Before(p.Start) && !p.End.Before(k)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
