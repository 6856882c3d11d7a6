/*
engine.go - Attendance store and mutation dispatcher

PURPOSE:
  The Engine owns every piece of process-wide state: the roster, the
  per-date buckets, the undo stack, the settings and the selected date.
  All writes to day records go through Execute, which pairs each mutation
  with an undo capture. There is no other write path to a record.

MUTATION FLOW (Execute):
  1. Validate the command (status / field) and the date (>= MinDate)
  2. Capture the record before the mutation (nil if it did not exist)
  3. Apply the command, creating the bucket lazily
  4. Status and time commands front-insert a LogEntry; notes do not
  5. Push UndoEntry{date, person, prev, logID}

  A rejected command changes nothing: no bucket is created as a side effect.

STATE MACHINE (SetStatusCommand):
  in / late            -> inTime = now, only if not already set
  out                  -> outTime = now (overwrites)
  absent / leave / half -> inTime and outTime cleared
  Every status is reachable from every other status.

  SetTimeCommand bypasses the state machine: it sets or clears one clock
  field and leaves the status alone.

CONCURRENCY:
  A single RWMutex serializes every mutation, undo, reset and restore, so an
  undo can never interleave with the mutation it reverses. Reads return copies.

SEE ALSO:
  - undo.go: Bounded stack
  - snapshot.go: Whole-state snapshot and restore
  - roster.go: Person management
*/
package generic

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMinDate is the earliest date that accepts mutations by default.
const DefaultMinDate DateKey = "2026-01-01"

// DefaultLogLimit caps log views.
const DefaultLogLimit = 80

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	MinDate      DateKey
	UndoCapacity int
	Settings     *Settings
	Now          func() time.Time
	NewID        func() string
}

// Engine is the attendance store plus its single mutation entry point.
type Engine struct {
	mu sync.RWMutex
	// persistMu orders Persist calls so saves land in snapshot order.
	persistMu sync.Mutex

	minDate DateKey
	now     func() time.Time
	newID   func() string

	roster   []Person
	byDate   map[DateKey]*Bucket
	undo     *UndoLog
	settings Settings
	selected DateKey
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		minDate:  opts.MinDate,
		now:      opts.Now,
		newID:    opts.NewID,
		roster:   []Person{},
		byDate:   make(map[DateKey]*Bucket),
		undo:     NewUndoLog(opts.UndoCapacity),
		settings: DefaultSettings(),
	}
	if !e.minDate.Valid() {
		e.minDate = DefaultMinDate
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if opts.Settings != nil {
		e.settings = *opts.Settings
	}
	e.selected = e.clampSelection(DateKeyOf(e.now()))
	return e
}

// =============================================================================
// COMMANDS
// =============================================================================

// Command is one mutation of a (date, person) record. An empty Date targets
// whatever date is selected when the command runs.
type Command interface {
	Target() (DateKey, PersonID)
	validate() error
	// apply returns the new record and, for logged commands, a log entry
	// with Type and Payload filled in.
	apply(rec DayRecord, clock string) (DayRecord, *LogEntry)
}

type SetStatusCommand struct {
	Date   DateKey
	Person PersonID
	Status StatusID
}

func (c SetStatusCommand) Target() (DateKey, PersonID) { return c.Date, c.Person }

func (c SetStatusCommand) validate() error {
	if !c.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	return nil
}

func (c SetStatusCommand) apply(rec DayRecord, clock string) (DayRecord, *LogEntry) {
	switch {
	case c.Status.ClocksIn():
		if rec.InTime == "" {
			rec.InTime = clock
		}
	case c.Status == StatusOut:
		rec.OutTime = clock
	case c.Status.NonWorked():
		rec.InTime = ""
		rec.OutTime = ""
	}
	rec.Status = c.Status
	return rec, &LogEntry{Type: LogStatus, Payload: LogPayload{StatusID: c.Status}}
}

// SetTimeCommand sets or clears a clock field. Value is "HH:MM"; empty or
// unparsable input clears the field.
type SetTimeCommand struct {
	Date   DateKey
	Person PersonID
	Field  TimeField
	Value  string
}

func (c SetTimeCommand) Target() (DateKey, PersonID) { return c.Date, c.Person }

func (c SetTimeCommand) validate() error {
	if !c.Field.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidField, c.Field)
	}
	return nil
}

func (c SetTimeCommand) apply(rec DayRecord, _ string) (DayRecord, *LogEntry) {
	v := NormalizeClock(c.Value)
	if c.Field == FieldInTime {
		rec.InTime = v
	} else {
		rec.OutTime = v
	}
	return rec, &LogEntry{Type: LogEdit, Payload: LogPayload{Field: c.Field, Value: ShortClock(v)}}
}

type SetNoteCommand struct {
	Date   DateKey
	Person PersonID
	Note   string
}

func (c SetNoteCommand) Target() (DateKey, PersonID) { return c.Date, c.Person }
func (c SetNoteCommand) validate() error              { return nil }

func (c SetNoteCommand) apply(rec DayRecord, _ string) (DayRecord, *LogEntry) {
	rec.Note = c.Note
	return rec, nil
}

// Outcome reports what Execute did.
type Outcome struct {
	Record DayRecord
	Log    *LogEntry
	Undo   UndoEntry
}

// Execute applies cmd atomically with its undo capture.
func (e *Engine) Execute(cmd Command) (Outcome, error) {
	if err := cmd.validate(); err != nil {
		return Outcome{}, err
	}
	date, pid := cmd.Target()

	e.mu.Lock()
	defer e.mu.Unlock()

	if date == "" {
		date = e.selected
	}
	if err := e.checkDate(date); err != nil {
		return Outcome{}, err
	}
	person, ok := e.findPerson(pid)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrPersonNotFound, pid)
	}

	b := e.ensureBucketLocked(date)
	cur, existed := b.Records[pid]
	var prev *DayRecord
	if existed {
		snapshot := cur
		prev = &snapshot
	}

	now := ClockString(e.now())
	next, log := cmd.apply(cur, now)
	b.Records[pid] = next

	entry := UndoEntry{DateKey: date, PersonID: pid, Prev: prev}
	if log != nil {
		log.ID = LogID(e.newID())
		log.Time = now
		log.DateKey = date
		log.PersonID = pid
		log.Name = person.Name
		if log.Name == "" {
			log.Name = UnknownPersonName
		}
		b.Logs = append([]LogEntry{*log}, b.Logs...)
		entry.LogID = log.ID
	}
	e.undo.Push(entry)

	return Outcome{Record: next, Log: log, Undo: entry}, nil
}

// SetStatus applies a status click to the selected date.
func (e *Engine) SetStatus(pid PersonID, status StatusID) (Outcome, error) {
	return e.Execute(SetStatusCommand{Person: pid, Status: status})
}

// SetTime edits a clock field on the selected date.
func (e *Engine) SetTime(pid PersonID, field TimeField, hhmm string) (Outcome, error) {
	return e.Execute(SetTimeCommand{Person: pid, Field: field, Value: hhmm})
}

// SetNote edits the note on the selected date.
func (e *Engine) SetNote(pid PersonID, note string) (Outcome, error) {
	return e.Execute(SetNoteCommand{Person: pid, Note: note})
}

// =============================================================================
// UNDO / RESET
// =============================================================================

// Undo reverses the newest mutation. Returns false when the stack is empty.
func (e *Engine) Undo() (UndoEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.undo.Pop()
	if !ok {
		return UndoEntry{}, false
	}
	b, exists := e.byDate[entry.DateKey]
	if !exists {
		return entry, true
	}
	if entry.Prev != nil {
		b.Records[entry.PersonID] = *entry.Prev
	} else {
		delete(b.Records, entry.PersonID)
	}
	if entry.LogID != "" {
		b.removeLog(entry.LogID)
	}
	return entry, true
}

func (e *Engine) UndoDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.undo.Len()
}

// ResetBucket clears every record and log of date and empties the undo
// stack. It cannot be undone.
func (e *Engine) ResetBucket(date DateKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDate(date); err != nil {
		return err
	}
	e.byDate[date] = newBucket()
	e.undo.Clear()
	return nil
}

// EnsureBucket creates the bucket for date if needed.
func (e *Engine) EnsureBucket(date DateKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDate(date); err != nil {
		return err
	}
	e.ensureBucketLocked(date)
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Record returns the record for (date, person), or the zero record.
func (e *Engine) Record(date DateKey, pid PersonID) (DayRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if b, ok := e.byDate[date]; ok {
		rec, ok := b.Records[pid]
		return rec, ok
	}
	return DayRecord{}, false
}

// Bucket returns a copy of the bucket for date.
func (e *Engine) Bucket(date DateKey) (Bucket, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	b, ok := e.byDate[date]
	if !ok {
		return *newBucket(), false
	}
	return *b.clone(), true
}

// Logs returns up to limit log entries of date, newest first.
// A non-positive limit uses DefaultLogLimit.
func (e *Engine) Logs(date DateKey, limit int) []LogEntry {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	b, ok := e.byDate[date]
	if !ok {
		return []LogEntry{}
	}
	n := min(limit, len(b.Logs))
	out := make([]LogEntry, n)
	copy(out, b.Logs[:n])
	return out
}

// DaySheet is a consistent read of one date for views and exports.
type DaySheet struct {
	Date     DateKey
	People   []Person
	Records  map[PersonID]DayRecord
	Logs     []LogEntry
	Settings Settings
}

// Record returns the person's record on the sheet, or the zero record.
func (d DaySheet) Record(pid PersonID) DayRecord {
	return d.Records[pid]
}

func (e *Engine) Day(date DateKey) DaySheet {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sheet := DaySheet{
		Date:     date,
		People:   e.peopleLocked(),
		Records:  map[PersonID]DayRecord{},
		Logs:     []LogEntry{},
		Settings: e.settings,
	}
	if b, ok := e.byDate[date]; ok {
		c := b.clone()
		sheet.Records = c.Records
		sheet.Logs = c.Logs
	}
	return sheet
}

// DayStats counts roster statuses on one date. People without a status are
// counted under StatusNone.
type DayStats map[StatusID]int

func (e *Engine) Stats(date DateKey) DayStats {
	sheet := e.Day(date)
	stats := DayStats{}
	for _, p := range sheet.People {
		stats[sheet.Record(p.ID).Status]++
	}
	return stats
}

// RecordsInPeriod returns a person's records whose date falls in p, in
// date order.
func (e *Engine) RecordsInPeriod(pid PersonID, p Period) []DatedRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []DatedRecord
	for date, b := range e.byDate {
		if !p.Contains(date) {
			continue
		}
		if rec, ok := b.Records[pid]; ok {
			out = append(out, DatedRecord{Date: date, Record: rec})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Calculate runs the payroll calculator for (date, person).
func (e *Engine) Calculate(date DateKey, pid PersonID) (PayrollResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.findPerson(pid)
	if !ok {
		return PayrollResult{}, fmt.Errorf("%w: %s", ErrPersonNotFound, pid)
	}
	var rec DayRecord
	if b, ok := e.byDate[date]; ok {
		rec = b.Records[pid]
	}
	return Calculate(p, rec, e.settings), nil
}

// =============================================================================
// SETTINGS / SELECTION
// =============================================================================

func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// ApplySettings merges patch into the current settings and returns the result.
func (e *Engine) ApplySettings(patch SettingsPatch) Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = e.settings.Apply(patch)
	return e.settings
}

func (e *Engine) MinDate() DateKey { return e.minDate }

// CheckDate reports whether date is a valid key on or after MinDate.
func (e *Engine) CheckDate(date DateKey) error { return e.checkDate(date) }

func (e *Engine) Selected() DateKey {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selected
}

// Select changes the selected date. Dates before MinDate are rejected.
func (e *Engine) Select(date DateKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkDate(date); err != nil {
		return err
	}
	e.selected = date
	return nil
}

// =============================================================================
// HELPERS (caller holds the lock)
// =============================================================================

func (e *Engine) checkDate(date DateKey) error {
	if _, err := ParseDateKey(string(date)); err != nil {
		return err
	}
	if date.Before(e.minDate) {
		return &DateOutOfRangeError{Date: date, MinDate: e.minDate}
	}
	return nil
}

func (e *Engine) clampSelection(date DateKey) DateKey {
	if !date.Valid() || date.Before(e.minDate) {
		return e.minDate
	}
	return date
}

func (e *Engine) ensureBucketLocked(date DateKey) *Bucket {
	b, ok := e.byDate[date]
	if !ok {
		b = newBucket()
		e.byDate[date] = b
	}
	return b
}
