/*
Package export renders one date of attendance as a table.

PURPOSE:
  Projects a generic.DaySheet into one row per roster member, with the
  payroll figures alongside the raw record, and writes it as CSV or XLSX.
  Money is rounded to whole currency units here and only here; the
  calculator itself keeps full precision.

COLUMNS:
  date, name, status, inTime, outTime,
  lateRaw, late30, ot1Raw, ot1_30, ot2Raw, ot2_30, nightMin,
  hourly(calc), payOT1, payOT2, payNightExtra, payTotal, note

  The "30" suffixes are historical column names kept for spreadsheet
  compatibility; the values follow the configured rounding unit.

SEE ALSO:
  - csv.go, xlsx.go: Writers
  - generic/payroll.go: Calculate
*/
package export

import (
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Header is the column header row.
var Header = []string{
	"date", "name", "status", "inTime", "outTime",
	"lateRaw", "late30",
	"ot1Raw", "ot1_30",
	"ot2Raw", "ot2_30",
	"nightMin",
	"hourly(calc)",
	"payOT1", "payOT2", "payNightExtra", "payTotal",
	"note",
}

var statusLabels = map[generic.StatusID]string{
	generic.StatusIn:     "✅ 출근",
	generic.StatusOut:    "🏁 퇴근",
	generic.StatusLate:   "🟨 지각",
	generic.StatusAbsent: "🟥 결근",
	generic.StatusLeave:  "🟦 연차(전일)",
	generic.StatusHalf:   "🟪 반차(0.5)",
}

// StatusLabel returns the display label of a status. Unknown ids are
// returned as-is; the empty status has an empty label.
func StatusLabel(s generic.StatusID) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Row is one person's line of the export.
type Row struct {
	Date    generic.DateKey
	Name    string
	Status  string
	InTime  string
	OutTime string
	Payroll generic.PayrollResult
	Note    string
}

// BuildRows returns one row per roster member, in roster order.
func BuildRows(sheet generic.DaySheet) []Row {
	rows := make([]Row, 0, len(sheet.People))
	for _, p := range sheet.People {
		rec := sheet.Record(p.ID)
		rows = append(rows, Row{
			Date:    sheet.Date,
			Name:    p.Name,
			Status:  StatusLabel(rec.Status),
			InTime:  generic.ShortClock(rec.InTime),
			OutTime: generic.ShortClock(rec.OutTime),
			Payroll: generic.Calculate(p, rec, sheet.Settings),
			Note:    rec.Note,
		})
	}
	return rows
}

// Minutes returns the integer columns in header order.
func (r Row) Minutes() []int {
	c := r.Payroll
	return []int{c.LateRaw, c.LateRounded, c.OT1Raw, c.OT1Rounded, c.OT2Raw, c.OT2Rounded, c.NightRaw}
}

// Money returns the currency columns in header order, rounded to whole units.
func (r Row) Money() []int64 {
	c := r.Payroll
	return []int64{Whole(c.HourlyWage), Whole(c.PayOT1), Whole(c.PayOT2), Whole(c.PayNight), Whole(c.PayTotal)}
}

// Strings renders the row as text cells.
func (r Row) Strings() []string {
	out := []string{r.Date.String(), r.Name, r.Status, r.InTime, r.OutTime}
	for _, m := range r.Minutes() {
		out = append(out, strconv.Itoa(m))
	}
	for _, m := range r.Money() {
		out = append(out, strconv.FormatInt(m, 10))
	}
	return append(out, r.Note)
}

// Whole rounds an amount to whole currency units, halves away from zero.
func Whole(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
