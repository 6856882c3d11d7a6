/*
Package generic provides the core attendance and payroll engine.

PURPOSE:
  This package contains the data model and algorithms for tracking daily
  attendance of a small roster and deriving payroll-relevant time metrics
  from it: lateness, two overtime tiers, and a night differential. The same
  engine owns the per-date record map, the change log, and the bounded undo
  stack that reverses mutations.

KEY CONCEPTS IN THIS FILE (types.go):
  - Person: A roster member with a pay configuration
  - DayRecord: One person's attendance on one date (status, clock times, note)
  - Bucket: All records and log entries for a single date
  - LogEntry: An immutable note of a status click or time edit
  - UndoEntry: The snapshot needed to reverse one mutation
  - Amount: A quantity with a unit (used for leave days)

DESIGN PRINCIPLES:
  1. Value records: DayRecord is a plain value, so snapshots are copies
  2. Precision: Money and leave days use decimal.Decimal
  3. Type Safety: Strong typing for IDs and date keys
  4. Total arithmetic: calculations never fail for well-typed input

USAGE:
  engine := generic.NewEngine(generic.Options{MinDate: "2026-01-01"})
  p, _ := engine.AddPerson("Kim")
  _, err := engine.Execute(generic.SetStatusCommand{
      Date:   "2026-03-02",
      Person: p.ID,
      Status: generic.StatusIn,
  })

SEE ALSO:
  - time.go: Minute arithmetic and date keys
  - payroll.go: Payroll calculation
  - engine.go: Mutation dispatcher and undo
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const UnitDays Unit = "days"

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Round(places int32) Amount { return Amount{Value: a.Value.Round(places), Unit: a.Unit} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type LogID string

// =============================================================================
// PERSON - Roster member
// =============================================================================

type PayType string

const (
	PayHourly  PayType = "hourly"
	PayMonthly PayType = "monthly"
)

// ParsePayType maps unknown or empty values to PayHourly.
func ParsePayType(s string) PayType {
	if PayType(s) == PayMonthly {
		return PayMonthly
	}
	return PayHourly
}

// Person is a roster member. CreatedAt is unix milliseconds, matching the
// backup format.
type Person struct {
	ID          PersonID        `json:"id"`
	Name        string          `json:"name"`
	PayType     PayType         `json:"payType"`
	HourlyWage  decimal.Decimal `json:"hourlyWage"`
	MonthlyBase decimal.Decimal `json:"monthlyBase"`
	CreatedAt   int64           `json:"createdAt"`
}

// PayUpdate carries optional pay-field edits. Nil fields are left unchanged.
type PayUpdate struct {
	PayType     *PayType
	HourlyWage  *decimal.Decimal
	MonthlyBase *decimal.Decimal
}

// =============================================================================
// DAY RECORD - One person's attendance on one date
// =============================================================================

type StatusID string

const (
	StatusNone   StatusID = ""
	StatusIn     StatusID = "in"
	StatusOut    StatusID = "out"
	StatusLate   StatusID = "late"
	StatusAbsent StatusID = "absent"
	StatusLeave  StatusID = "leave"
	StatusHalf   StatusID = "half"
)

// Statuses lists every settable status in display order.
var Statuses = []StatusID{StatusIn, StatusOut, StatusLate, StatusAbsent, StatusLeave, StatusHalf}

func (s StatusID) Valid() bool {
	switch s {
	case StatusIn, StatusOut, StatusLate, StatusAbsent, StatusLeave, StatusHalf:
		return true
	}
	return false
}

// NonWorked reports whether the status means no worked interval exists.
func (s StatusID) NonWorked() bool {
	return s == StatusAbsent || s == StatusLeave || s == StatusHalf
}

// ClocksIn reports whether the status records a clock-in.
func (s StatusID) ClocksIn() bool {
	return s == StatusIn || s == StatusLate
}

// DayRecord is a person's attendance for one date. Empty strings mean unset.
// InTime and OutTime are "HH:MM:SS" wall-clock strings.
type DayRecord struct {
	Status  StatusID `json:"status"`
	InTime  string   `json:"inTime"`
	OutTime string   `json:"outTime"`
	Note    string   `json:"note"`
}

// Validate checks a record read from outside the engine (restore, storage).
func (r DayRecord) Validate() error {
	if r.Status != StatusNone && !r.Status.Valid() {
		return ErrInvalidStatus
	}
	for _, t := range []string{r.InTime, r.OutTime} {
		if t == "" {
			continue
		}
		if _, ok := ToMinutes(t); !ok {
			return ErrInvalidClock
		}
	}
	return nil
}

type TimeField string

const (
	FieldInTime  TimeField = "inTime"
	FieldOutTime TimeField = "outTime"
)

func (f TimeField) Valid() bool { return f == FieldInTime || f == FieldOutTime }

// DatedRecord pairs a record with the date it belongs to.
type DatedRecord struct {
	Date   DateKey
	Record DayRecord
}

// =============================================================================
// LOG ENTRY - Change log per date (newest first)
// =============================================================================

type LogType string

const (
	LogStatus LogType = "status"
	LogEdit   LogType = "edit"
)

// UnknownPersonName is recorded when a log entry's person is not on the roster.
const UnknownPersonName = "(unknown)"

type LogPayload struct {
	StatusID StatusID  `json:"statusId,omitempty"`
	Field    TimeField `json:"field,omitempty"`
	Value    string    `json:"value,omitempty"`
}

type LogEntry struct {
	ID       LogID      `json:"id"`
	Time     string     `json:"time"` // HH:MM:SS of creation
	DateKey  DateKey    `json:"dateKey"`
	PersonID PersonID   `json:"pid"`
	Name     string     `json:"name"`
	Type     LogType    `json:"type"`
	Payload  LogPayload `json:"payload"`
}

// =============================================================================
// BUCKET - All records and logs for one date
// =============================================================================

type Bucket struct {
	Records map[PersonID]DayRecord `json:"statusById"`
	Logs    []LogEntry             `json:"logs"`
}

func newBucket() *Bucket {
	return &Bucket{Records: make(map[PersonID]DayRecord), Logs: []LogEntry{}}
}

func (b *Bucket) clone() *Bucket {
	c := &Bucket{
		Records: make(map[PersonID]DayRecord, len(b.Records)),
		Logs:    make([]LogEntry, len(b.Logs)),
	}
	for id, rec := range b.Records {
		c.Records[id] = rec
	}
	copy(c.Logs, b.Logs)
	return c
}

func (b *Bucket) removeLog(id LogID) {
	for i, l := range b.Logs {
		if l.ID == id {
			b.Logs = append(b.Logs[:i], b.Logs[i+1:]...)
			return
		}
	}
}

// =============================================================================
// UNDO ENTRY - Snapshot needed to reverse one mutation
// =============================================================================

// UndoEntry holds the record as it was before a mutation. Prev is nil when
// the record did not exist; LogID is empty when the mutation wrote no log.
type UndoEntry struct {
	DateKey  DateKey    `json:"dateKey"`
	PersonID PersonID   `json:"pid"`
	Prev     *DayRecord `json:"prev"`
	LogID    LogID      `json:"logId"`
}
