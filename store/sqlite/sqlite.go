/*
Package sqlite provides a SQLite-backed implementation of generic.StateStore.

PURPOSE:
  Persists the whole attendance state (roster, per-date buckets, logs, undo
  stack, settings, selection) in normalized tables so the data survives
  restarts and can be inspected with ordinary SQL.

SAVE SEMANTICS:
  Save replaces the stored state inside one transaction: every table is
  cleared and rewritten. Either the whole snapshot lands or none of it does.
  The state is small (one roster, a year or two of dates), so a full
  rewrite per mutation is cheap.

KEY TABLES:
  people:        Roster, in roster order
  day_buckets:   Dates that have a bucket (possibly empty)
  day_records:   One row per (date, person)
  log_entries:   Change log, position 0 = newest
  undo_entries:  Undo stack, position 0 = oldest
  meta:          settings JSON, selected date, saved_at

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine.LoadFrom(ctx, store)
  ...
  engine.Persist(ctx, store)

SEE ALSO:
  - generic/store.go: Interface definition
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// Store implements generic.StateStore using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

var _ generic.StateStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		pay_type TEXT NOT NULL,
		hourly_wage TEXT NOT NULL,
		monthly_base TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS day_buckets (
		date_key TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS day_records (
		date_key TEXT NOT NULL REFERENCES day_buckets(date_key) ON DELETE CASCADE,
		person_id TEXT NOT NULL,
		status TEXT NOT NULL,
		in_time TEXT NOT NULL,
		out_time TEXT NOT NULL,
		note TEXT NOT NULL,
		PRIMARY KEY (date_key, person_id)
	);

	CREATE TABLE IF NOT EXISTS log_entries (
		id TEXT NOT NULL,
		date_key TEXT NOT NULL REFERENCES day_buckets(date_key) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		time TEXT NOT NULL,
		person_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		status_id TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (date_key, position)
	);

	CREATE INDEX IF NOT EXISTS idx_log_entries_person
		ON log_entries(person_id);

	CREATE TABLE IF NOT EXISTS undo_entries (
		position INTEGER PRIMARY KEY,
		date_key TEXT NOT NULL,
		person_id TEXT NOT NULL,
		has_prev INTEGER NOT NULL,
		prev_status TEXT NOT NULL,
		prev_in_time TEXT NOT NULL,
		prev_out_time TEXT NOT NULL,
		prev_note TEXT NOT NULL,
		log_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const (
	metaSettings = "settings"
	metaSelected = "selected_date_key"
	metaSavedAt  = "saved_at"
)

var tables = []string{"undo_entries", "log_entries", "day_records", "day_buckets", "people", "meta"}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SAVE
// =============================================================================

// Save replaces the stored state with st atomically.
func (s *Store) Save(ctx context.Context, st generic.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := clearTables(ctx, sqlTx); err != nil {
		return err
	}
	if err := savePeople(ctx, sqlTx, st.Roster); err != nil {
		return err
	}
	for date, b := range st.ByDate {
		if err := saveBucket(ctx, sqlTx, date, b); err != nil {
			return err
		}
	}
	if err := saveUndo(ctx, sqlTx, st.UndoStack); err != nil {
		return err
	}
	if err := s.saveMeta(ctx, sqlTx, st); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func clearTables(ctx context.Context, db execer) error {
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func savePeople(ctx context.Context, db execer, roster []generic.Person) error {
	query := `
		INSERT INTO people (id, position, name, pay_type, hourly_wage, monthly_base, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, p := range roster {
		_, err := db.ExecContext(ctx, query,
			p.ID, i, p.Name, p.PayType,
			p.HourlyWage.String(), p.MonthlyBase.String(),
			p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save person %s: %w", p.ID, err)
		}
	}
	return nil
}

func saveBucket(ctx context.Context, db execer, date generic.DateKey, b generic.Bucket) error {
	if _, err := db.ExecContext(ctx, "INSERT INTO day_buckets (date_key) VALUES (?)", date); err != nil {
		return fmt.Errorf("failed to save bucket %s: %w", date, err)
	}

	for pid, rec := range b.Records {
		_, err := db.ExecContext(ctx, `
			INSERT INTO day_records (date_key, person_id, status, in_time, out_time, note)
			VALUES (?, ?, ?, ?, ?, ?)`,
			date, pid, rec.Status, rec.InTime, rec.OutTime, rec.Note,
		)
		if err != nil {
			return fmt.Errorf("failed to save record %s/%s: %w", date, pid, err)
		}
	}

	for i, l := range b.Logs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO log_entries (id, date_key, position, time, person_id, name, type, status_id, field, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, date, i, l.Time, l.PersonID, l.Name, l.Type,
			l.Payload.StatusID, l.Payload.Field, l.Payload.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to save log %s: %w", l.ID, err)
		}
	}
	return nil
}

func saveUndo(ctx context.Context, db execer, stack []generic.UndoEntry) error {
	query := `
		INSERT INTO undo_entries
		(position, date_key, person_id, has_prev, prev_status, prev_in_time, prev_out_time, prev_note, log_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, u := range stack {
		var prev generic.DayRecord
		hasPrev := u.Prev != nil
		if hasPrev {
			prev = *u.Prev
		}
		_, err := db.ExecContext(ctx, query,
			i, u.DateKey, u.PersonID, hasPrev,
			prev.Status, prev.InTime, prev.OutTime, prev.Note,
			u.LogID,
		)
		if err != nil {
			return fmt.Errorf("failed to save undo entry %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) saveMeta(ctx context.Context, db execer, st generic.State) error {
	settingsJSON, err := json.Marshal(st.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	values := map[string]string{
		metaSettings: string(settingsJSON),
		metaSelected: string(st.SelectedDateKey),
		metaSavedAt:  s.now().UTC().Format(time.RFC3339),
	}
	for k, v := range values {
		if _, err := db.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("failed to save meta %s: %w", k, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load returns the stored state, or nil if nothing has been saved.
func (s *Store) Load(ctx context.Context) (*generic.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := meta[metaSavedAt]; !ok {
		return nil, nil
	}

	st := generic.State{
		Settings:        generic.DefaultSettings(),
		SelectedDateKey: generic.DateKey(meta[metaSelected]),
	}
	if raw := meta[metaSettings]; raw != "" {
		patch, err := generic.ParseSettingsPatch([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode settings: %w", err)
		}
		st.Settings = st.Settings.Apply(patch)
	}

	if st.Roster, err = s.loadPeople(ctx); err != nil {
		return nil, err
	}
	if st.ByDate, err = s.loadBuckets(ctx); err != nil {
		return nil, err
	}
	if st.UndoStack, err = s.loadUndo(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}

// SavedAt returns when the state was last saved, or the zero time.
func (s *Store) SavedAt(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaSavedAt).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

func (s *Store) loadMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("failed to query meta: %w", err)
	}
	defer rows.Close()

	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *Store) loadPeople(ctx context.Context) ([]generic.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pay_type, hourly_wage, monthly_base, created_at
		FROM people ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	people := []generic.Person{}
	for rows.Next() {
		var p generic.Person
		var payType, hourly, monthly string
		if err := rows.Scan(&p.ID, &p.Name, &payType, &hourly, &monthly, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.PayType = generic.ParsePayType(payType)
		p.HourlyWage = parseDecimal(hourly)
		p.MonthlyBase = parseDecimal(monthly)
		people = append(people, p)
	}
	return people, rows.Err()
}

func (s *Store) loadBuckets(ctx context.Context) (map[generic.DateKey]generic.Bucket, error) {
	byDate := map[generic.DateKey]generic.Bucket{}

	rows, err := s.db.QueryContext(ctx, "SELECT date_key FROM day_buckets")
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	for rows.Next() {
		var k generic.DateKey
		if err := rows.Scan(&k); err != nil {
			rows.Close()
			return nil, err
		}
		byDate[k] = generic.Bucket{Records: map[generic.PersonID]generic.DayRecord{}, Logs: []generic.LogEntry{}}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT date_key, person_id, status, in_time, out_time, note FROM day_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	for rows.Next() {
		var k generic.DateKey
		var pid generic.PersonID
		var rec generic.DayRecord
		if err := rows.Scan(&k, &pid, &rec.Status, &rec.InTime, &rec.OutTime, &rec.Note); err != nil {
			rows.Close()
			return nil, err
		}
		byDate[k].Records[pid] = rec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, date_key, time, person_id, name, type, status_id, field, value
		FROM log_entries ORDER BY date_key, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l generic.LogEntry
		if err := rows.Scan(&l.ID, &l.DateKey, &l.Time, &l.PersonID, &l.Name, &l.Type,
			&l.Payload.StatusID, &l.Payload.Field, &l.Payload.Value); err != nil {
			return nil, err
		}
		b := byDate[l.DateKey]
		b.Logs = append(b.Logs, l)
		byDate[l.DateKey] = b
	}
	return byDate, rows.Err()
}

func (s *Store) loadUndo(ctx context.Context) ([]generic.UndoEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date_key, person_id, has_prev, prev_status, prev_in_time, prev_out_time, prev_note, log_id
		FROM undo_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query undo entries: %w", err)
	}
	defer rows.Close()

	stack := []generic.UndoEntry{}
	for rows.Next() {
		var u generic.UndoEntry
		var hasPrev bool
		var prev generic.DayRecord
		if err := rows.Scan(&u.DateKey, &u.PersonID, &hasPrev,
			&prev.Status, &prev.InTime, &prev.OutTime, &prev.Note, &u.LogID); err != nil {
			return nil, err
		}
		if hasPrev {
			u.Prev = &prev
		}
		stack = append(stack, u)
	}
	return stack, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clearTables(ctx, s.db)
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
