/*
scheduler.go - Periodic JSON backup scheduler

PURPOSE:
  Periodically writes the whole engine state, in backup format, to a file
  in a backup directory. The files are the same documents GET /api/backup
  returns, so any of them can be uploaded to POST /api/restore.

DESIGN:
  - Runs a background goroutine with configurable interval
  - One file per calendar day: attendance-backup-YYYY-MM-DD.json
  - A later run on the same day overwrites that day's file
  - Writes go to a temp file first and are renamed into place

CONFIGURATION:
  - Dir: Target directory (created if missing)
  - Interval: How often to write (default: 24 hours)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewBackupScheduler(engine, "/var/backups/attendance", logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Backup / Restore endpoints
  - generic/snapshot.go: State
*/
package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/attendance-engine/generic"
)

// BackupFilename returns the backup file name for a date.
func BackupFilename(date generic.DateKey) string {
	return "attendance-backup-" + date.String() + ".json"
}

// BackupScheduler writes periodic state backups.
type BackupScheduler struct {
	Engine   *generic.Engine
	Dir      string
	Interval time.Duration
	Enabled  bool
	Logger   *zap.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBackupScheduler creates a new scheduler.
func NewBackupScheduler(engine *generic.Engine, dir string, logger *zap.Logger) *BackupScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupScheduler{
		Engine:   engine,
		Dir:      dir,
		Interval: 24 * time.Hour,
		Enabled:  true,
		Logger:   logger.Named("scheduler"),
		now:      time.Now,
	}
}

// Start begins the scheduler.
func (bs *BackupScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled || bs.Dir == "" {
		bs.Logger.Info("disabled, not starting")
		return
	}
	if bs.Interval <= 0 {
		bs.Logger.Warn("non-positive interval, not starting", zap.Duration("interval", bs.Interval))
		return
	}
	if bs.ticker != nil {
		return
	}

	bs.ticker = time.NewTicker(bs.Interval)
	bs.stop = make(chan struct{})
	bs.wg.Add(1)

	go bs.run(bs.ticker, bs.stop)

	bs.Logger.Info("started", zap.Duration("interval", bs.Interval), zap.String("dir", bs.Dir))
}

// Stop stops the scheduler.
func (bs *BackupScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		bs.ticker = nil
		bs.Logger.Info("stopped")
	}
}

func (bs *BackupScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer bs.wg.Done()

	// Run immediately on start
	bs.backup()

	for {
		select {
		case <-ticker.C:
			bs.backup()
		case <-stop:
			return
		}
	}
}

func (bs *BackupScheduler) backup() {
	path, err := bs.RunNow()
	if err != nil {
		bs.Logger.Error("backup failed", zap.Error(err))
		return
	}
	bs.Logger.Info("backup written", zap.String("path", path))
}

// RunNow writes a backup immediately and returns its path.
func (bs *BackupScheduler) RunNow() (string, error) {
	if err := os.MkdirAll(bs.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	data, err := json.MarshalIndent(bs.Engine.Snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	path := filepath.Join(bs.Dir, BackupFilename(generic.DateKeyOf(bs.now())))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}
	return path, nil
}

// GetNextRunTime returns when the next scheduled backup will occur.
func (bs *BackupScheduler) GetNextRunTime() time.Time {
	return bs.now().Add(bs.Interval)
}
