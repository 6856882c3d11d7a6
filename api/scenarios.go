/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that replace the whole state with a
	realistic roster and a few days of attendance, so the UI, exports and
	leave figures have something to show.

AVAILABLE SCENARIOS:

	empty:          No people, default settings
	small-shop:     Three hourly staff on day shifts, one late, one on leave
	evening-crew:   Evening and overnight shifts hitting both overtime tiers
	                and the night window, tiered preset (double time tier 2)
	monthly-staff:  Salaried staff with half days and leave taken

HOW SCENARIOS WORK:
 1. Build the scenario on a scratch engine with a scripted clock
 2. Apply the scenario's settings preset, if any
 3. Take the scratch snapshot, drop its undo history, keep the current
    selection
 4. Restore it into the live engine in one step and persist

	Scenario days are the five days ending on the selected date, never
	earlier than the minimum date.

USAGE VIA API:

	GET  /api/scenarios
	POST /api/scenarios/load
	{"scenario_id": "evening-crew"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(b *scenarioBuilder)
 3. Add it to the 'loaders' map

NOTE:

	Loading a scenario replaces all data. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Restore (same replacement path)
  - factory/presets.go: Settings presets
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No people, default settings",
		Category:    "basic",
	},
	{
		ID:          "small-shop",
		Name:        "Small Shop",
		Description: "Three hourly staff on day shifts, one late arrival, one day of leave",
		Category:    "attendance",
	},
	{
		ID:          "evening-crew",
		Name:        "Evening Crew",
		Description: "Evening and overnight shifts with both overtime tiers and night pay",
		Category:    "payroll",
	},
	{
		ID:          "monthly-staff",
		Name:        "Monthly Staff",
		Description: "Salaried staff with half days and annual leave taken",
		Category:    "leave",
	},
}

var loaders = map[string]func(b *scenarioBuilder) error{
	"empty":         func(*scenarioBuilder) error { return nil },
	"small-shop":    loadSmallShopScenario,
	"evening-crew":  loadEveningCrewScenario,
	"monthly-staff": loadMonthlyStaffScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario replaces the state with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	load, ok := loaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	b := newScenarioBuilder(h.Engine.MinDate(), h.Engine.Selected(), h.SettingsFactory)
	if err := load(b); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	if err := h.Engine.Restore(b.state(h.Engine.Selected())); err != nil {
		h.handleError(w, "Failed to load scenario", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}

	h.scenarioMu.Lock()
	h.currentScenario = req.ScenarioID
	h.scenarioMu.Unlock()

	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO BUILDER
// =============================================================================

// scenarioBuilder drives a scratch engine whose clock it moves by hand, so
// status clicks land at scripted times.
type scenarioBuilder struct {
	engine   *generic.Engine
	settings *factory.SettingsFactory
	clock    time.Time
	days     []generic.DateKey
	err      error
}

func newScenarioBuilder(minDate, selected generic.DateKey, sf *factory.SettingsFactory) *scenarioBuilder {
	b := &scenarioBuilder{settings: sf}
	b.engine = generic.NewEngine(generic.Options{
		MinDate: minDate,
		Now:     func() time.Time { return b.clock },
	})

	start := selected.AddDays(-4)
	if start.Before(minDate) {
		start = minDate
	}
	for d := start; len(b.days) < 5; d = d.AddDays(1) {
		b.days = append(b.days, d)
	}
	return b
}

func (b *scenarioBuilder) preset(name string) {
	if b.err != nil {
		return
	}
	patch, err := b.settings.ParsePatch([]byte(factory.PresetJSON(name)))
	if err != nil {
		b.err = fmt.Errorf("preset %s: %w", name, err)
		return
	}
	b.engine.ApplySettings(patch)
}

func (b *scenarioBuilder) person(name string, payType generic.PayType, amount int64) generic.PersonID {
	if b.err != nil {
		return ""
	}
	p, err := b.engine.AddPerson(name)
	if err != nil {
		b.err = err
		return ""
	}
	v := decimal.NewFromInt(amount)
	u := generic.PayUpdate{PayType: &payType}
	if payType == generic.PayMonthly {
		u.MonthlyBase = &v
	} else {
		u.HourlyWage = &v
	}
	if _, err := b.engine.UpdatePay(p.ID, u); err != nil {
		b.err = err
	}
	return p.ID
}

// at moves the clock to hh:mm on date.
func (b *scenarioBuilder) at(date generic.DateKey, hhmm string) {
	m, _ := generic.ToMinutes(hhmm)
	b.clock = date.Time().Add(time.Duration(m) * time.Minute)
}

func (b *scenarioBuilder) exec(cmd generic.Command) {
	if b.err != nil {
		return
	}
	_, b.err = b.engine.Execute(cmd)
}

// shift clicks in (or late) at in and out at out. An out earlier than in
// is clicked on the next morning but stays on date's record.
func (b *scenarioBuilder) shift(pid generic.PersonID, date generic.DateKey, in, out string, late bool) {
	status := generic.StatusIn
	if late {
		status = generic.StatusLate
	}
	b.at(date, in)
	b.exec(generic.SetStatusCommand{Date: date, Person: pid, Status: status})

	a, _ := generic.ToMinutes(in)
	o, _ := generic.ToMinutes(out)
	outDay := date
	if o < a {
		outDay = date.AddDays(1)
	}
	b.at(outDay, out)
	b.exec(generic.SetStatusCommand{Date: date, Person: pid, Status: generic.StatusOut})
}

func (b *scenarioBuilder) mark(pid generic.PersonID, date generic.DateKey, status generic.StatusID) {
	b.at(date, "09:00")
	b.exec(generic.SetStatusCommand{Date: date, Person: pid, Status: status})
}

func (b *scenarioBuilder) note(pid generic.PersonID, date generic.DateKey, text string) {
	b.exec(generic.SetNoteCommand{Date: date, Person: pid, Note: text})
}

// state returns the scratch state without undo history, selecting selected.
func (b *scenarioBuilder) state(selected generic.DateKey) generic.State {
	st := b.engine.Snapshot()
	st.UndoStack = nil
	st.SelectedDateKey = selected
	return st
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadSmallShopScenario(b *scenarioBuilder) error {
	kim := b.person("Kim Minji", generic.PayHourly, 10030)
	lee := b.person("Lee Jun", generic.PayHourly, 11000)
	park := b.person("Park Sora", generic.PayHourly, 12500)

	for i, d := range b.days {
		b.shift(kim, d, "08:55", "18:00", false)
		if i == 2 {
			b.shift(lee, d, "09:20", "18:30", true)
			b.note(lee, d, "bus delayed")
		} else {
			b.shift(lee, d, "09:00", "18:00", false)
		}
		if i == 3 {
			b.mark(park, d, generic.StatusLeave)
		} else {
			b.shift(park, d, "09:00", "19:10", false)
		}
	}
	return b.err
}

func loadEveningCrewScenario(b *scenarioBuilder) error {
	b.preset(factory.PresetTiered)
	choi := b.person("Choi Hana", generic.PayHourly, 12000)
	jung := b.person("Jung Woo", generic.PayHourly, 13500)

	for i, d := range b.days {
		b.shift(choi, d, "17:30", "23:00", false)
		if i%2 == 0 {
			b.shift(jung, d, "21:00", "06:30", false)
		} else {
			b.mark(jung, d, generic.StatusAbsent)
		}
	}
	b.note(jung, b.days[0], "covering inventory")
	return b.err
}

func loadMonthlyStaffScenario(b *scenarioBuilder) error {
	han := b.person("Han Yuri", generic.PayMonthly, 2500000)
	seo := b.person("Seo Jin", generic.PayMonthly, 3135000)

	for i, d := range b.days {
		switch i {
		case 1:
			b.mark(han, d, generic.StatusHalf)
		case 4:
			b.mark(han, d, generic.StatusLeave)
		default:
			b.shift(han, d, "09:00", "18:00", false)
		}
		if i == 0 || i == 1 {
			b.mark(seo, d, generic.StatusLeave)
		} else {
			b.shift(seo, d, "08:50", "20:45", false)
		}
	}
	return b.err
}
