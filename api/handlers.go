/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine. After every successful
  mutation the whole state is saved to the StateStore.

ENDPOINTS:
  People:
    GET    /api/people                     List roster
    POST   /api/people                     Add person
    PUT    /api/people/{id}/pay            Update pay fields
    DELETE /api/people/{id}                Delete person (cascades)
    GET    /api/people/{id}/leave?date=    Annual leave usage

  Days:
    GET    /api/days/{date}                          Day view
    POST   /api/days/{date}/people/{id}/status       Status click
    PUT    /api/days/{date}/people/{id}/time         Clock edit
    PUT    /api/days/{date}/people/{id}/note         Note edit
    POST   /api/days/{date}/reset                    Clear the date
    GET    /api/days/{date}/export.csv|export.xlsx   Export

  State:
    POST   /api/undo                       Undo last mutation
    GET    /api/settings, PUT /api/settings
    GET    /api/selection, PUT /api/selection
    GET    /api/backup, POST /api/restore

  Demo:
    GET    /api/scenarios, GET /api/scenarios/current
    POST   /api/scenarios/load             Replace state with demo data

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, date before minimum, malformed snapshot
  - 404: Unknown person
  - 500: Persistence failures

SECURITY NOTE:
  No authentication. The server is meant for a single trusted operator.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/timeoff"
)

// maxBodyBytes bounds request bodies; backups are the largest.
const maxBodyBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine          *generic.Engine
	Store           generic.StateStore
	SettingsFactory *factory.SettingsFactory
	Leave           *timeoff.Accountant
	Logger          *zap.Logger

	now             func() time.Time
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over engine. store may be nil, in which case
// nothing is persisted.
func NewHandler(engine *generic.Engine, store generic.StateStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Engine:          engine,
		Store:           store,
		SettingsFactory: factory.NewSettingsFactory(),
		Leave:           timeoff.NewAccountant(engine),
		Logger:          logger.Named("api"),
		now:             time.Now,
	}
}

// persist saves the state after a mutation and writes a 500 on failure.
// Returns false if the response has been written.
func (h *Handler) persist(ctx context.Context, w http.ResponseWriter) bool {
	if h.Store == nil {
		return true
	}
	if err := h.Engine.Persist(ctx, h.Store); err != nil {
		h.Logger.Error("persist state failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to persist state", err)
		return false
	}
	return true
}

// =============================================================================
// PEOPLE HANDLERS
// =============================================================================

// ListPeople returns the roster.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people := h.Engine.People()
	dtos := make([]PersonDTO, len(people))
	for i, p := range people {
		dtos[i] = toPersonDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePerson adds a person to the roster.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.Engine.AddPerson(req.Name)
	if err != nil {
		h.handleError(w, "Failed to add person", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}
	writeJSON(w, http.StatusCreated, toPersonDTO(p))
}

// UpdatePay edits a person's pay configuration.
func (h *Handler) UpdatePay(w http.ResponseWriter, r *http.Request) {
	var req UpdatePayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u := generic.PayUpdate{HourlyWage: req.HourlyWage, MonthlyBase: req.MonthlyBase}
	if req.PayType != nil {
		pt := generic.ParsePayType(*req.PayType)
		u.PayType = &pt
	}

	p, err := h.Engine.UpdatePay(generic.PersonID(chi.URLParam(r, "id")), u)
	if err != nil {
		h.handleError(w, "Failed to update pay", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(p))
}

// DeletePerson removes a person and all of their records.
func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeletePerson(generic.PersonID(chi.URLParam(r, "id"))); err != nil {
		h.handleError(w, "Failed to delete person", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLeave returns leave usage for the year of ?date= (default: selected date).
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	pid := generic.PersonID(chi.URLParam(r, "id"))
	if _, ok := h.Engine.Person(pid); !ok {
		writeError(w, http.StatusNotFound, "Person not found", nil)
		return
	}

	date := h.Engine.Selected()
	if q := r.URL.Query().Get("date"); q != "" {
		k, err := generic.ParseDateKey(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		date = k
	}

	writeJSON(w, http.StatusOK, toLeaveDTO(h.Leave.Usage(pid, date)))
}

// =============================================================================
// DAY HANDLERS
// =============================================================================

// GetDay returns every roster member's record, payroll and the day's logs.
// Reading never creates a bucket.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	sheet := h.Engine.Day(date)
	people := make([]DayPersonDTO, len(sheet.People))
	for i, p := range sheet.People {
		rec := sheet.Record(p.ID)
		people[i] = DayPersonDTO{
			Person:  toPersonDTO(p),
			Record:  toRecordDTO(rec),
			Payroll: toPayrollDTO(generic.Calculate(p, rec, sheet.Settings)),
		}
	}

	logs := h.Engine.Logs(date, generic.DefaultLogLimit)
	logDTOs := make([]LogDTO, len(logs))
	for i, l := range logs {
		logDTOs[i] = toLogDTO(l)
	}

	writeJSON(w, http.StatusOK, DayDTO{
		Date:    string(date),
		MinDate: string(h.Engine.MinDate()),
		People:  people,
		Stats:   toStatsDTO(h.Engine.Stats(date)),
		Logs:    logDTOs,
	})
}

// SetStatus applies a status click.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req SetStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.execute(w, r, generic.SetStatusCommand{
		Date:   date,
		Person: generic.PersonID(chi.URLParam(r, "id")),
		Status: generic.StatusID(req.Status),
	})
}

// SetTime edits a clock field.
func (h *Handler) SetTime(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req SetTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.execute(w, r, generic.SetTimeCommand{
		Date:   date,
		Person: generic.PersonID(chi.URLParam(r, "id")),
		Field:  generic.TimeField(req.Field),
		Value:  req.Value,
	})
}

// SetNote edits the free-text note.
func (h *Handler) SetNote(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req SetNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.execute(w, r, generic.SetNoteCommand{
		Date:   date,
		Person: generic.PersonID(chi.URLParam(r, "id")),
		Note:   req.Note,
	})
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, cmd generic.Command) {
	out, err := h.Engine.Execute(cmd)
	if err != nil {
		h.handleError(w, "Failed to update record", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}

	resp := MutationResponse{Record: toRecordDTO(out.Record), UndoDepth: h.Engine.UndoDepth()}
	if out.Log != nil {
		l := toLogDTO(*out.Log)
		resp.Log = &l
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetDay clears every record and log of the date. Not undoable.
func (h *Handler) ResetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	if err := h.Engine.ResetBucket(date); err != nil {
		h.handleError(w, "Failed to reset day", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}
	h.Logger.Info("day reset", zap.String("date", string(date)))
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV downloads the day as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv; charset=utf-8", export.CSVFilename, export.WriteCSV)
}

// ExportXLSX downloads the day as an Excel workbook.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		export.XLSXFilename, export.WriteXLSX)
}

func (h *Handler) export(
	w http.ResponseWriter,
	r *http.Request,
	contentType string,
	filename func(generic.DateKey) string,
	write func(io.Writer, generic.DaySheet) error,
) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	if err := h.Engine.CheckDate(date); err != nil {
		h.handleError(w, "Cannot export date", err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, h.Engine.Day(date)); err != nil {
		h.handleError(w, "Failed to export", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename(date)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// STATE HANDLERS
// =============================================================================

// Undo reverses the newest mutation. An empty stack is not an error.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.Engine.Undo()
	if !ok {
		writeJSON(w, http.StatusOK, UndoResponse{Undone: false})
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}

	resp := UndoResponse{
		Undone:    true,
		DateKey:   string(entry.DateKey),
		PersonID:  string(entry.PersonID),
		UndoDepth: h.Engine.UndoDepth(),
	}
	if rec, exists := h.Engine.Record(entry.DateKey, entry.PersonID); exists {
		dto := toRecordDTO(rec)
		resp.Record = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSettingsDTO(h.Engine.Settings()))
}

// UpdateSettings merges a partial settings object. Invalid values are
// ignored, not rejected.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	patch, err := h.SettingsFactory.ParsePatch(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}

	s := h.Engine.ApplySettings(patch)
	if !h.persist(r.Context(), w) {
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(s))
}

func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SelectionDTO{
		SelectedDateKey: string(h.Engine.Selected()),
		MinDate:         string(h.Engine.MinDate()),
	})
}

func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.Engine.Select(generic.DateKey(req.SelectedDateKey)); err != nil {
		h.handleError(w, "Cannot select date", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}
	h.GetSelection(w, r)
}

// Backup downloads the whole state in backup format.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	data, err := json.MarshalIndent(h.Engine.Snapshot(), "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode backup", err)
		return
	}
	name := BackupFilename(generic.DateKeyOf(h.now()))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Restore replaces the whole state with an uploaded backup.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	if err := h.Engine.RestoreJSON(body); err != nil {
		h.handleError(w, "Failed to restore backup", err)
		return
	}
	if !h.persist(r.Context(), w) {
		return
	}
	h.Logger.Info("state restored",
		zap.Int("people", len(h.Engine.People())),
		zap.String("selected", string(h.Engine.Selected())),
	)
	h.GetSelection(w, r)
}

// =============================================================================
// HELPERS
// =============================================================================

// handleError maps engine errors to status codes.
func (h *Handler) handleError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func dateParam(w http.ResponseWriter, r *http.Request) (generic.DateKey, bool) {
	k, err := generic.ParseDateKey(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return "", false
	}
	return k, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
