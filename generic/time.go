package generic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// WALL-CLOCK MINUTES - Naive minute offsets after midnight
// =============================================================================

const MinutesPerDay = 24 * 60

// ToMinutes parses "H:MM", "HH:MM" or "HH:MM:SS" into minutes after
// midnight. Seconds are ignored. Returns false for missing, non-numeric or
// out-of-range input.
func ToMinutes(hhmm string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(hhmm), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// NormalizeClock turns a user-entered "H:MM" into the stored "HH:MM:00"
// form. Unparsable input yields "" (cleared).
func NormalizeClock(hhmm string) string {
	m, ok := ToMinutes(hhmm)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:00", m/60, m%60)
}

// ShortClock returns the "HH:MM" prefix of a stored clock string.
func ShortClock(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}

// ClockString formats a time as "HH:MM:SS".
func ClockString(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatDuration renders minutes as "H:MM". Negative input renders as 0:00.
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// =============================================================================
// INTERVALS
// =============================================================================

// Interval is a [Start, End) span of minutes. For work intervals,
// 0 <= Start < 1440 and Start <= End < 2880.
type Interval struct {
	Start int
	End   int
}

func (iv Interval) Len() int { return iv.End - iv.Start }

// WorkInterval builds the worked span from clock-in and clock-out. A
// clock-out numerically earlier than the clock-in is taken to be on the
// next day.
func WorkInterval(inTime, outTime string) (Interval, bool) {
	if inTime == "" || outTime == "" {
		return Interval{}, false
	}
	a, ok := ToMinutes(inTime)
	if !ok {
		return Interval{}, false
	}
	b, ok := ToMinutes(outTime)
	if !ok {
		return Interval{}, false
	}
	if b < a {
		b += MinutesPerDay
	}
	return Interval{Start: a, End: b}, true
}

// Overlap returns the length of [a,b) ∩ [s,e), zero when disjoint or inverted.
func Overlap(a, b, s, e int) int {
	lo := max(a, s)
	hi := min(b, e)
	return max(0, hi-lo)
}

// NightOverlapMinutes counts minutes of iv inside the night window
// [nightStart, nightEnd), which wraps midnight when nightStart > nightEnd.
// A wrapping window is laid out as three disjoint segments:
// [nightStart, 1440) + [0, nightEnd) + [1440, 1440+nightEnd). The next
// evening's night is never counted, even for shifts longer than a day's
// worth of clock.
//
// A non-wrapping window (e.g. 00:00-06:00) is counted on the work day and
// on the following morning.
func NightOverlapMinutes(iv Interval, nightStart, nightEnd int) int {
	if nightStart == nightEnd {
		return 0
	}
	if nightStart < nightEnd {
		return Overlap(iv.Start, iv.End, nightStart, nightEnd) +
			Overlap(iv.Start, iv.End, MinutesPerDay+nightStart, MinutesPerDay+nightEnd)
	}
	return Overlap(iv.Start, iv.End, nightStart, MinutesPerDay) +
		Overlap(iv.Start, iv.End, 0, nightEnd) +
		Overlap(iv.Start, iv.End, MinutesPerDay, MinutesPerDay+nightEnd)
}

// =============================================================================
// ROUNDING
// =============================================================================

type RoundMode string

const (
	RoundFloor   RoundMode = "floor"
	RoundNearest RoundMode = "nearest"
	RoundCeil    RoundMode = "ceil"
)

const DefaultRoundUnit = 30

// ParseRoundMode maps unknown values to RoundCeil.
func ParseRoundMode(s string) RoundMode {
	switch RoundMode(s) {
	case RoundFloor, RoundNearest:
		return RoundMode(s)
	}
	return RoundCeil
}

// Round rounds minutes to a multiple of unit. Negative minutes are clamped
// to 0; a non-positive unit falls back to DefaultRoundUnit. Nearest rounds
// exact halves up (75 -> 90 with a 30 minute unit).
func Round(minutes, unit int, mode RoundMode) int {
	if minutes < 0 {
		minutes = 0
	}
	if unit <= 0 {
		unit = DefaultRoundUnit
	}
	switch mode {
	case RoundFloor:
		return minutes / unit * unit
	case RoundNearest:
		return (2*minutes + unit) / (2 * unit) * unit
	default:
		return (minutes + unit - 1) / unit * unit
	}
}

// =============================================================================
// DATE KEYS - "YYYY-MM-DD" calendar dates
// =============================================================================

type DateKey string

const dateKeyLayout = "2006-01-02"

// ParseDateKey validates s as a calendar date in YYYY-MM-DD form.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil || t.Format(dateKeyLayout) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateKey, s)
	}
	return DateKey(s), nil
}

func NewDateKey(year int, month time.Month, day int) DateKey {
	return DateKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(dateKeyLayout))
}

func DateKeyOf(t time.Time) DateKey {
	return NewDateKey(t.Year(), t.Month(), t.Day())
}

func (k DateKey) Valid() bool {
	_, err := ParseDateKey(string(k))
	return err == nil
}

// Time returns midnight UTC of the key, or the zero time for a malformed key.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(dateKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Year returns the year of the key, or 0 for a malformed key.
func (k DateKey) Year() int {
	if t := k.Time(); !t.IsZero() {
		return t.Year()
	}
	return 0
}

// AddDays returns the key n days later (earlier for negative n).
func (k DateKey) AddDays(n int) DateKey {
	return DateKeyOf(k.Time().AddDate(0, 0, n))
}

// Before compares keys lexically, which matches date order for valid keys.
func (k DateKey) Before(other DateKey) bool { return k < other }

func (k DateKey) String() string { return string(k) }
