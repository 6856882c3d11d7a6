/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Field names are
  snake_case; the backup endpoints are the one exception and speak the
  camelCase backup format unchanged.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Decimal amounts are serialized as JSON strings ("37500") so no precision
  is lost in transit. Request bodies accept numbers or strings.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/timeoff"
)

// =============================================================================
// PEOPLE
// =============================================================================

type PersonDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	PayType     string          `json:"pay_type"`
	HourlyWage  decimal.Decimal `json:"hourly_wage"`
	MonthlyBase decimal.Decimal `json:"monthly_base"`
	CreatedAt   int64           `json:"created_at"`
}

type CreatePersonRequest struct {
	Name string `json:"name"`
}

type UpdatePayRequest struct {
	PayType     *string          `json:"pay_type,omitempty"`
	HourlyWage  *decimal.Decimal `json:"hourly_wage,omitempty"`
	MonthlyBase *decimal.Decimal `json:"monthly_base,omitempty"`
}

type LeaveDTO struct {
	Year        int             `json:"year"`
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	UsedFull    int             `json:"used_full"`
	UsedHalf    int             `json:"used_half"`
	UsedDays    decimal.Decimal `json:"used_days"`
	Entitlement decimal.Decimal `json:"entitlement"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// =============================================================================
// DAYS
// =============================================================================

type RecordDTO struct {
	Status  string `json:"status"`
	InTime  string `json:"in_time"`
	OutTime string `json:"out_time"`
	Note    string `json:"note"`
}

type PayrollDTO struct {
	HourlyWage  decimal.Decimal `json:"hourly_wage"`
	LateRaw     int             `json:"late_raw"`
	LateRounded int             `json:"late_rounded"`
	OT1Raw      int             `json:"ot1_raw"`
	OT1Rounded  int             `json:"ot1_rounded"`
	OT2Raw      int             `json:"ot2_raw"`
	OT2Rounded  int             `json:"ot2_rounded"`
	NightRaw    int             `json:"night_raw"`
	PayOT1      decimal.Decimal `json:"pay_ot1"`
	PayOT2      decimal.Decimal `json:"pay_ot2"`
	PayNight    decimal.Decimal `json:"pay_night"`
	PayTotal    decimal.Decimal `json:"pay_total"`

	// "H:MM" renderings for display
	LateDisplay  string `json:"late_display"`
	OT1Display   string `json:"ot1_display"`
	OT2Display   string `json:"ot2_display"`
	NightDisplay string `json:"night_display"`
}

type LogDTO struct {
	ID       string `json:"id"`
	Time     string `json:"time"`
	DateKey  string `json:"date_key"`
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	StatusID string `json:"status_id,omitempty"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
}

type DayPersonDTO struct {
	Person  PersonDTO  `json:"person"`
	Record  RecordDTO  `json:"record"`
	Payroll PayrollDTO `json:"payroll"`
}

type DayDTO struct {
	Date    string         `json:"date"`
	MinDate string         `json:"min_date"`
	People  []DayPersonDTO `json:"people"`
	Stats   map[string]int `json:"stats"`
	Logs    []LogDTO       `json:"logs"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type SetTimeRequest struct {
	Field string `json:"field"` // inTime or outTime
	Value string `json:"value"` // HH:MM, empty clears
}

type SetNoteRequest struct {
	Note string `json:"note"`
}

type MutationResponse struct {
	Record    RecordDTO `json:"record"`
	Log       *LogDTO   `json:"log,omitempty"`
	UndoDepth int       `json:"undo_depth"`
}

type UndoResponse struct {
	Undone    bool       `json:"undone"`
	DateKey   string     `json:"date_key,omitempty"`
	PersonID  string     `json:"person_id,omitempty"`
	Record    *RecordDTO `json:"record,omitempty"`
	UndoDepth int        `json:"undo_depth"`
}

// =============================================================================
// SETTINGS / SELECTION
// =============================================================================

type SettingsDTO struct {
	AnnualLeaveStart     decimal.Decimal `json:"annual_leave_start"`
	OT1Multiplier        decimal.Decimal `json:"ot1_multiplier"`
	OT2Multiplier        decimal.Decimal `json:"ot2_multiplier"`
	NightExtraMultiplier decimal.Decimal `json:"night_extra_multiplier"`
	RoundMode            string          `json:"round_mode"`
	RoundUnit            int             `json:"round_unit"`
	MonthlyStdHours      decimal.Decimal `json:"monthly_std_hours"`
	ScheduledStart       string          `json:"scheduled_start"`
	OT1Start             string          `json:"ot1_start"`
	OT1End               string          `json:"ot1_end"`
	NightStart           string          `json:"night_start"`
	NightEnd             string          `json:"night_end"`
}

type SelectionDTO struct {
	SelectedDateKey string `json:"selected_date_key"`
	MinDate         string `json:"min_date,omitempty"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toPersonDTO(p generic.Person) PersonDTO {
	return PersonDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		PayType:     string(p.PayType),
		HourlyWage:  p.HourlyWage,
		MonthlyBase: p.MonthlyBase,
		CreatedAt:   p.CreatedAt,
	}
}

func toRecordDTO(r generic.DayRecord) RecordDTO {
	return RecordDTO{
		Status:  string(r.Status),
		InTime:  generic.ShortClock(r.InTime),
		OutTime: generic.ShortClock(r.OutTime),
		Note:    r.Note,
	}
}

func toPayrollDTO(c generic.PayrollResult) PayrollDTO {
	return PayrollDTO{
		HourlyWage:   c.HourlyWage,
		LateRaw:      c.LateRaw,
		LateRounded:  c.LateRounded,
		OT1Raw:       c.OT1Raw,
		OT1Rounded:   c.OT1Rounded,
		OT2Raw:       c.OT2Raw,
		OT2Rounded:   c.OT2Rounded,
		NightRaw:     c.NightRaw,
		PayOT1:       c.PayOT1,
		PayOT2:       c.PayOT2,
		PayNight:     c.PayNight,
		PayTotal:     c.PayTotal,
		LateDisplay:  generic.FormatDuration(c.LateRounded),
		OT1Display:   generic.FormatDuration(c.OT1Rounded),
		OT2Display:   generic.FormatDuration(c.OT2Rounded),
		NightDisplay: generic.FormatDuration(c.NightRaw),
	}
}

func toLogDTO(l generic.LogEntry) LogDTO {
	return LogDTO{
		ID:       string(l.ID),
		Time:     l.Time,
		DateKey:  string(l.DateKey),
		PersonID: string(l.PersonID),
		Name:     l.Name,
		Type:     string(l.Type),
		StatusID: string(l.Payload.StatusID),
		Field:    string(l.Payload.Field),
		Value:    l.Payload.Value,
	}
}

func toLeaveDTO(u timeoff.Usage) LeaveDTO {
	return LeaveDTO{
		Year:        u.Period.Start.Year(),
		PeriodStart: string(u.Period.Start),
		PeriodEnd:   string(u.Period.End),
		UsedFull:    u.UsedFull,
		UsedHalf:    u.UsedHalf,
		UsedDays:    u.UsedDays.Value,
		Entitlement: u.Entitlement.Value,
		Remaining:   u.Remaining.Value,
	}
}

func toSettingsDTO(s generic.Settings) SettingsDTO {
	return SettingsDTO{
		AnnualLeaveStart:     s.AnnualLeaveStart,
		OT1Multiplier:        s.OT1Multiplier,
		OT2Multiplier:        s.OT2Multiplier,
		NightExtraMultiplier: s.NightExtraMultiplier,
		RoundMode:            string(s.RoundMode),
		RoundUnit:            s.RoundUnit,
		MonthlyStdHours:      s.MonthlyStdHours,
		ScheduledStart:       s.ScheduledStart,
		OT1Start:             s.OT1Start,
		OT1End:               s.OT1End,
		NightStart:           s.NightStart,
		NightEnd:             s.NightEnd,
	}
}

// statsKeyUnchecked counts people with no status yet.
const statsKeyUnchecked = "unchecked"

func toStatsDTO(s generic.DayStats) map[string]int {
	out := map[string]int{statsKeyUnchecked: 0}
	for _, st := range generic.Statuses {
		out[string(st)] = 0
	}
	for st, n := range s {
		if st == generic.StatusNone {
			out[statsKeyUnchecked] += n
			continue
		}
		out[string(st)] += n
	}
	return out
}
