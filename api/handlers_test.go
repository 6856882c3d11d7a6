/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Roster endpoints and persistence after each mutation
- Status / time / note edits, undo, reset
- Error mapping (400 / 404 / 500)
- Exports, settings, selection, backup and restore
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)

type testServer struct {
	handler *Handler
	router  http.Handler
	store   *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	n := 0
	engine := generic.NewEngine(generic.Options{
		Now:   func() time.Time { return testNow },
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
	})
	mem := store.NewMemory()
	h := NewHandler(engine, mem, zap.NewNop())
	h.now = func() time.Time { return testNow }
	return &testServer{handler: h, router: NewRouter(h), store: mem}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) addPerson(t *testing.T, name string) PersonDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/people", fmt.Sprintf(`{"name": %q}`, name))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[PersonDTO](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func statusPath(date, pid string) string {
	return "/api/days/" + date + "/people/" + pid + "/status"
}

// =============================================================================
// PEOPLE
// =============================================================================

func TestCreatePerson_PersistsAndLists(t *testing.T) {
	s := newTestServer(t)

	p := s.addPerson(t, "  Kim  ")
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "Kim", p.Name)
	assert.Equal(t, "hourly", p.PayType)
	assert.Equal(t, 1, s.store.Saves())

	rec := s.do(t, http.MethodGet, "/api/people", "")
	require.Equal(t, http.StatusOK, rec.Code)
	people := decode[[]PersonDTO](t, rec)
	require.Len(t, people, 1)
	assert.Equal(t, "Kim", people[0].Name)
}

func TestCreatePerson_EmptyName(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/people", `{"name": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.store.Saves())
}

func TestCreatePerson_BadBody(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/people", `{"name": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Invalid request body", body.Error)
	assert.NotEmpty(t, body.Details)
}

func TestUpdatePay(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")

	rec := s.do(t, http.MethodPut, "/api/people/"+p.ID+"/pay",
		`{"pay_type": "monthly", "monthly_base": "2090000", "hourly_wage": -5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[PersonDTO](t, rec)
	assert.Equal(t, "monthly", got.PayType)
	assert.True(t, decimal.NewFromInt(2090000).Equal(got.MonthlyBase))
	assert.True(t, got.HourlyWage.IsZero(), "negative wage stored as zero")

	rec = s.do(t, http.MethodPut, "/api/people/ghost/pay", `{"hourly_wage": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePerson(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")
	s.do(t, http.MethodPost, statusPath("2026-03-02", p.ID), `{"status": "in"}`)

	rec := s.do(t, http.MethodDelete, "/api/people/"+p.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/undo", "")
	assert.False(t, decode[UndoResponse](t, rec).Undone, "undo entries of a deleted person are gone")

	rec = s.do(t, http.MethodDelete, "/api/people/"+p.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLeave(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")
	s.do(t, http.MethodPost, statusPath("2026-02-02", p.ID), `{"status": "leave"}`)
	s.do(t, http.MethodPost, statusPath("2026-02-03", p.ID), `{"status": "half"}`)

	rec := s.do(t, http.MethodGet, "/api/people/"+p.ID+"/leave?date=2026-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	leave := decode[LeaveDTO](t, rec)
	assert.Equal(t, 2026, leave.Year)
	assert.Equal(t, 1, leave.UsedFull)
	assert.Equal(t, 1, leave.UsedHalf)
	assert.True(t, decimal.RequireFromString("1.5").Equal(leave.UsedDays))
	assert.True(t, decimal.RequireFromString("13.5").Equal(leave.Remaining))

	// Without ?date the selected date's year is used
	rec = s.do(t, http.MethodGet, "/api/people/"+p.ID+"/leave", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-01-01", decode[LeaveDTO](t, rec).PeriodStart)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/people/ghost/leave", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/people/"+p.ID+"/leave?date=June", "").Code)
}

// =============================================================================
// DAY RECORDS
// =============================================================================

func TestSetStatus_AndDayView(t *testing.T) {
	// GIVEN: Two people, one clocks in
	// WHEN: Fetching the day
	// THEN: The record, log and stats reflect the click
	s := newTestServer(t)
	kim := s.addPerson(t, "Kim")
	s.addPerson(t, "Lee")

	rec := s.do(t, http.MethodPost, statusPath("2026-03-02", kim.ID), `{"status": "in"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	mut := decode[MutationResponse](t, rec)
	assert.Equal(t, "in", mut.Record.Status)
	assert.Equal(t, "18:00", mut.Record.InTime)
	require.NotNil(t, mut.Log)
	assert.Equal(t, "status", mut.Log.Type)
	assert.Equal(t, "Kim", mut.Log.Name)
	assert.Equal(t, 1, mut.UndoDepth)

	rec = s.do(t, http.MethodGet, "/api/days/2026-03-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[DayDTO](t, rec)
	assert.Equal(t, "2026-03-02", day.Date)
	assert.Equal(t, "2026-01-01", day.MinDate)
	require.Len(t, day.People, 2)
	assert.Equal(t, "in", day.People[0].Record.Status)
	assert.Equal(t, "", day.People[1].Record.Status)
	assert.Equal(t, 1, day.Stats["in"])
	assert.Equal(t, 1, day.Stats["unchecked"])
	assert.Equal(t, 0, day.Stats["leave"])
	require.Len(t, day.Logs, 1)
}

func TestDayView_Payroll(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")
	s.do(t, http.MethodPut, "/api/people/"+p.ID+"/pay", `{"hourly_wage": 10000}`)

	base := "/api/days/2026-03-02/people/" + p.ID
	s.do(t, http.MethodPost, base+"/status", `{"status": "out"}`)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+"/time", `{"field": "inTime", "value": "18:00"}`).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, base+"/time", `{"field": "outTime", "value": "23:00"}`).Code)

	day := decode[DayDTO](t, s.do(t, http.MethodGet, "/api/days/2026-03-02", ""))
	pay := day.People[0].Payroll
	assert.Equal(t, 150, pay.OT1Rounded)
	assert.Equal(t, 150, pay.OT2Rounded)
	assert.Equal(t, 60, pay.NightRaw)
	assert.True(t, decimal.NewFromInt(80000).Equal(pay.PayTotal), pay.PayTotal.String())
	assert.Equal(t, "2:30", pay.OT1Display)
	assert.Equal(t, "1:00", pay.NightDisplay)
}

func TestGetDay_DoesNotCreateBucket(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/days/2026-05-05", "")
	require.Equal(t, http.StatusOK, rec.Code)

	_, exists := s.handler.Engine.Bucket("2026-05-05")
	assert.False(t, exists)
}

func TestSetNote(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")

	rec := s.do(t, http.MethodPut, "/api/days/2026-03-02/people/"+p.ID+"/note", `{"note": "dentist"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	mut := decode[MutationResponse](t, rec)
	assert.Equal(t, "dentist", mut.Record.Note)
	assert.Nil(t, mut.Log)
}

func TestMutations_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")
	savesBefore := s.store.Saves()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"before min date", http.MethodPost, statusPath("2025-12-31", p.ID), `{"status": "in"}`, http.StatusBadRequest},
		{"bad date", http.MethodPost, statusPath("2026-3-2", p.ID), `{"status": "in"}`, http.StatusBadRequest},
		{"bad status", http.MethodPost, statusPath("2026-03-02", p.ID), `{"status": "nap"}`, http.StatusBadRequest},
		{"bad field", http.MethodPut, "/api/days/2026-03-02/people/" + p.ID + "/time", `{"field": "lunch", "value": "12:00"}`, http.StatusBadRequest},
		{"unknown person", http.MethodPost, statusPath("2026-03-02", "ghost"), `{"status": "in"}`, http.StatusNotFound},
		{"reset before min", http.MethodPost, "/api/days/2025-06-01/reset", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, savesBefore, s.store.Saves(), "rejected requests persist nothing")
	_, exists := s.handler.Engine.Bucket("2025-12-31")
	assert.False(t, exists)
}

// =============================================================================
// UNDO / RESET
// =============================================================================

func TestUndo(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")

	rec := s.do(t, http.MethodPost, "/api/undo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[UndoResponse](t, rec).Undone)

	s.do(t, http.MethodPost, statusPath("2026-03-02", p.ID), `{"status": "in"}`)
	s.do(t, http.MethodPost, statusPath("2026-03-02", p.ID), `{"status": "leave"}`)

	rec = s.do(t, http.MethodPost, "/api/undo", "")
	undo := decode[UndoResponse](t, rec)
	assert.True(t, undo.Undone)
	assert.Equal(t, "2026-03-02", undo.DateKey)
	require.NotNil(t, undo.Record)
	assert.Equal(t, "in", undo.Record.Status)
	assert.Equal(t, 1, undo.UndoDepth)

	undo = decode[UndoResponse](t, s.do(t, http.MethodPost, "/api/undo", ""))
	assert.True(t, undo.Undone)
	assert.Nil(t, undo.Record, "first mutation undone: no record left")
}

func TestResetDay(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")
	s.do(t, http.MethodPost, statusPath("2026-03-02", p.ID), `{"status": "in"}`)

	rec := s.do(t, http.MethodPost, "/api/days/2026-03-02/reset", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	day := decode[DayDTO](t, s.do(t, http.MethodGet, "/api/days/2026-03-02", ""))
	assert.Equal(t, "", day.People[0].Record.Status)
	assert.Empty(t, day.Logs)
	assert.Equal(t, 0, s.handler.Engine.UndoDepth())
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	p := s.addPerson(t, "Kim")
	s.do(t, http.MethodPost, statusPath("2026-03-02", p.ID), `{"status": "in"}`)

	rec := s.do(t, http.MethodGet, "/api/days/2026-03-02/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance-payroll-2026-03-02.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "date,name,status,inTime,outTime"))
	assert.True(t, strings.HasPrefix(lines[1], "2026-03-02,Kim,✅ 출근,18:00,,"))
}

func TestExportXLSX(t *testing.T) {
	s := newTestServer(t)
	s.addPerson(t, "Kim")

	rec := s.do(t, http.MethodGet, "/api/days/2026-03-02/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-payroll-2026-03-02.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestExport_BeforeMinDate(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/days/2025-12-31/export.csv", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SETTINGS / SELECTION
// =============================================================================

func TestSettings_LenientUpdate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, decode[SettingsDTO](t, rec).RoundUnit)

	rec = s.do(t, http.MethodPut, "/api/settings", `{"ot2_multiplier": "2", "round_unit": "abc", "ot1End": "21:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[SettingsDTO](t, rec)
	assert.True(t, decimal.NewFromInt(2).Equal(got.OT2Multiplier))
	assert.Equal(t, 30, got.RoundUnit, "invalid value ignored")
	assert.Equal(t, "21:00", got.OT1End)
	assert.Equal(t, 1, s.store.Saves())

	rec = s.do(t, http.MethodPut, "/api/settings", `"not an object"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSelection(t *testing.T) {
	s := newTestServer(t)

	sel := decode[SelectionDTO](t, s.do(t, http.MethodGet, "/api/selection", ""))
	assert.Equal(t, "2026-03-02", sel.SelectedDateKey)
	assert.Equal(t, "2026-01-01", sel.MinDate)

	rec := s.do(t, http.MethodPut, "/api/selection", `{"selected_date_key": "2026-04-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-04-01", decode[SelectionDTO](t, rec).SelectedDateKey)

	rec = s.do(t, http.MethodPut, "/api/selection", `{"selected_date_key": "2025-04-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, generic.DateKey("2026-04-01"), s.handler.Engine.Selected())
}

// =============================================================================
// BACKUP / RESTORE
// =============================================================================

func TestBackupRestore_RoundTrip(t *testing.T) {
	src := newTestServer(t)
	p := src.addPerson(t, "Kim")
	src.do(t, http.MethodPost, statusPath("2026-03-02", p.ID), `{"status": "in"}`)

	rec := src.do(t, http.MethodGet, "/api/backup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="attendance-backup-2026-03-02.json"`, rec.Header().Get("Content-Disposition"))
	backup := rec.Body.String()
	assert.Contains(t, backup, `"selectedDateKey"`)
	assert.Contains(t, backup, `"statusById"`)

	dst := newTestServer(t)
	rec = dst.do(t, http.MethodPost, "/api/restore", backup)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2026-03-02", decode[SelectionDTO](t, rec).SelectedDateKey)
	assert.Equal(t, 1, dst.store.Saves())

	people := decode[[]PersonDTO](t, dst.do(t, http.MethodGet, "/api/people", ""))
	require.Len(t, people, 1)
	assert.Equal(t, p.ID, people[0].ID)

	undo := decode[UndoResponse](t, dst.do(t, http.MethodPost, "/api/undo", ""))
	assert.True(t, undo.Undone, "undo history travels with the backup")
}

func TestRestore_MalformedKeepsState(t *testing.T) {
	s := newTestServer(t)
	s.addPerson(t, "Kim")

	rec := s.do(t, http.MethodPost, "/api/restore", `{"roster": [{"id": ""}], "byDate": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, s.handler.Engine.People(), 1)

	rec = s.do(t, http.MethodPost, "/api/restore", `garbage`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PERSISTENCE FAILURE
// =============================================================================

type failingStore struct{}

func (failingStore) Save(context.Context, generic.State) error {
	return errors.New("disk full")
}

func (failingStore) Load(context.Context) (*generic.State, error) { return nil, nil }

func TestPersistFailure_Returns500(t *testing.T) {
	engine := generic.NewEngine(generic.Options{Now: func() time.Time { return testNow }})
	h := NewHandler(engine, failingStore{}, zap.NewNop())
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/people", strings.NewReader(`{"name": "Kim"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk full")
}

func TestNoStore_NothingPersisted(t *testing.T) {
	engine := generic.NewEngine(generic.Options{Now: func() time.Time { return testNow }})
	router := NewRouter(NewHandler(engine, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/people", strings.NewReader(`{"name": "Kim"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
