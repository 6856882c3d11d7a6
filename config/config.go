// Package config loads server configuration from the environment and an
// optional .env file, and builds the zap logger from it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/attendance-engine/generic"
)

type Config struct {
	App    AppConfig
	Store  StoreConfig
	Backup BackupConfig
	Log    LogConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port         int
	MinDate      generic.DateKey
	UndoCapacity int
	SettingsFile string
}

type StoreConfig struct {
	Path string
}

// BackupConfig controls the periodic JSON backup. An empty Dir disables it.
type BackupConfig struct {
	Dir      string
	Interval time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

// Load reads .env (if present) and the environment. Missing variables take
// their defaults; malformed ones are an error.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	undoCap, err := strconv.Atoi(getEnv("UNDO_CAPACITY", strconv.Itoa(generic.DefaultUndoCapacity)))
	if err != nil {
		return nil, fmt.Errorf("invalid UNDO_CAPACITY: %w", err)
	}
	minDate, err := generic.ParseDateKey(getEnv("MIN_DATE", string(generic.DefaultMinDate)))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_DATE: %w", err)
	}

	config.App = AppConfig{
		Port:         appPort,
		MinDate:      minDate,
		UndoCapacity: undoCap,
		SettingsFile: getEnv("SETTINGS_FILE", ""),
	}

	config.Store = StoreConfig{
		Path: getEnv("DB_PATH", "attendance.db"),
	}

	interval, err := time.ParseDuration(getEnv("BACKUP_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKUP_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid BACKUP_INTERVAL: %s is not positive", interval)
	}
	config.Backup = BackupConfig{
		Dir:      getEnv("BACKUP_DIR", ""),
		Interval: interval,
	}

	config.Log = LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	return config, nil
}

// NewLogger builds a zap logger for cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
