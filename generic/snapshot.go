package generic

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// STATE - Whole-engine snapshot (backup format)
// =============================================================================

// State is the complete persisted form of an Engine. The JSON keys match the
// backup files users already hold, so a backup taken from any version can be
// restored.
type State struct {
	Roster          []Person           `json:"roster"`
	ByDate          map[DateKey]Bucket `json:"byDate"`
	UndoStack       []UndoEntry        `json:"undoStack"`
	Settings        Settings           `json:"settings"`
	SelectedDateKey DateKey            `json:"selectedDateKey"`
}

// Snapshot returns a deep copy of the engine state.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := State{
		Roster:          e.peopleLocked(),
		ByDate:          make(map[DateKey]Bucket, len(e.byDate)),
		UndoStack:       e.undo.Entries(),
		Settings:        e.settings,
		SelectedDateKey: e.selected,
	}
	for k, b := range e.byDate {
		st.ByDate[k] = *b.clone()
	}
	return st
}

// Restore replaces the whole engine state with st. A malformed snapshot is
// rejected with a MalformedSnapshotError and the current state is kept.
func (e *Engine) Restore(st State) error {
	st, err := normalizeState(st)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.roster = st.Roster
	e.byDate = make(map[DateKey]*Bucket, len(st.ByDate))
	for k, b := range st.ByDate {
		e.byDate[k] = b.clone()
	}
	e.undo.Replace(st.UndoStack)
	e.settings = st.Settings
	e.selected = e.clampSelection(st.SelectedDateKey)
	return nil
}

// RestoreJSON parses a backup document and restores it.
func (e *Engine) RestoreJSON(data []byte) error {
	st, err := ParseState(data)
	if err != nil {
		return err
	}
	return e.Restore(st)
}

// MarshalJSON renders the current state in backup form.
func (e *Engine) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Snapshot())
}

// ParseState decodes a backup document. Settings are merged over the
// defaults, so older backups missing newer keys still load and a settings
// value that does not parse keeps its default. Unknown keys are ignored.
func ParseState(data []byte) (State, error) {
	var wire struct {
		Roster          []Person           `json:"roster"`
		ByDate          map[DateKey]Bucket `json:"byDate"`
		UndoStack       []UndoEntry        `json:"undoStack"`
		Settings        json.RawMessage    `json:"settings"`
		SelectedDateKey DateKey            `json:"selectedDateKey"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return State{}, &MalformedSnapshotError{Reason: "decode", Err: err}
	}
	if wire.Roster == nil || wire.ByDate == nil {
		return State{}, &MalformedSnapshotError{Reason: "roster and byDate are required"}
	}

	// Settings never reject a backup: a bad value keeps its default.
	settings := DefaultSettings()
	if len(wire.Settings) > 0 {
		if patch, err := ParseSettingsPatch(wire.Settings); err == nil {
			settings = settings.Apply(patch)
		}
	}
	return State{
		Roster:          wire.Roster,
		ByDate:          wire.ByDate,
		UndoStack:       wire.UndoStack,
		Settings:        settings,
		SelectedDateKey: wire.SelectedDateKey,
	}, nil
}

// normalizeState validates st and returns a copy with empty containers filled in
// and person pay fields cleaned up.
func normalizeState(st State) (State, error) {
	out := State{
		Roster:          make([]Person, 0, len(st.Roster)),
		ByDate:          make(map[DateKey]Bucket, len(st.ByDate)),
		UndoStack:       make([]UndoEntry, 0, len(st.UndoStack)),
		Settings:        st.Settings,
		SelectedDateKey: st.SelectedDateKey,
	}

	seen := make(map[PersonID]bool, len(st.Roster))
	for i, p := range st.Roster {
		if p.ID == "" {
			return State{}, &MalformedSnapshotError{Reason: fmt.Sprintf("roster[%d]: missing id", i)}
		}
		if seen[p.ID] {
			return State{}, &MalformedSnapshotError{Reason: fmt.Sprintf("roster[%d]: duplicate id %s", i, p.ID)}
		}
		seen[p.ID] = true
		p.PayType = ParsePayType(string(p.PayType))
		p.HourlyWage = nonNegative(p.HourlyWage)
		p.MonthlyBase = nonNegative(p.MonthlyBase)
		out.Roster = append(out.Roster, p)
	}

	for k, b := range st.ByDate {
		if !k.Valid() {
			return State{}, &MalformedSnapshotError{Reason: "byDate", Err: fmt.Errorf("%w: %q", ErrInvalidDateKey, k)}
		}
		c := Bucket{Records: make(map[PersonID]DayRecord, len(b.Records)), Logs: make([]LogEntry, 0, len(b.Logs))}
		for pid, rec := range b.Records {
			if err := rec.Validate(); err != nil {
				return State{}, &MalformedSnapshotError{Reason: fmt.Sprintf("byDate[%s][%s]", k, pid), Err: err}
			}
			c.Records[pid] = rec
		}
		for _, l := range b.Logs {
			if l.Type != LogStatus && l.Type != LogEdit {
				return State{}, &MalformedSnapshotError{Reason: fmt.Sprintf("byDate[%s]: log type %q", k, l.Type)}
			}
			c.Logs = append(c.Logs, l)
		}
		out.ByDate[k] = c
	}

	for i, u := range st.UndoStack {
		if !u.DateKey.Valid() {
			return State{}, &MalformedSnapshotError{Reason: fmt.Sprintf("undoStack[%d]", i), Err: ErrInvalidDateKey}
		}
		if u.Prev != nil {
			if err := u.Prev.Validate(); err != nil {
				return State{}, &MalformedSnapshotError{Reason: fmt.Sprintf("undoStack[%d]", i), Err: err}
			}
			prev := *u.Prev
			u.Prev = &prev
		}
		out.UndoStack = append(out.UndoStack, u)
	}

	if out.SelectedDateKey != "" && !out.SelectedDateKey.Valid() {
		return State{}, &MalformedSnapshotError{Reason: "selectedDateKey", Err: ErrInvalidDateKey}
	}
	return out, nil
}
