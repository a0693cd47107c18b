package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/class-scheduler/internal/logging"
)

// Storage backends.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

const sweepDisabled = "off"

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort    int
	Storage     string
	SQLiteDSN   string
	PostgresDSN string
	// Location is the tenant zone class wall-clock times are interpreted in.
	Location   *time.Location
	APIKeyHash string
	// SweepSchedule is a five-field cron expression; empty disables the sweep.
	SweepSchedule string
	LogLevel      slog.Level
}

// Load reads configuration from the process environment, falling back to values in
// a .env file in the working directory when one exists.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
// Process environment variables always win over file entries.
func LoadFile(path string) (Config, error) {
	fileValues, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		fileValues = map[string]string{}
	}
	return parse(func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileValues[key])
	})
}

func parse(get func(string) string) (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		Storage:       StorageSQLite,
		SQLiteDSN:     "file:scheduler.db",
		Location:      time.UTC,
		SweepSchedule: "*/5 * * * *",
		LogLevel:      slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := get("SCHEDULER_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.ToLower(get("SCHEDULER_STORAGE")); storage != "" {
		switch storage {
		case StorageSQLite, StoragePostgres:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "SCHEDULER_STORAGE")
		}
	}

	if dsn := get("SCHEDULER_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.PostgresDSN = get("SCHEDULER_POSTGRES_DSN")
	if cfg.Storage == StoragePostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "SCHEDULER_POSTGRES_DSN")
	}

	if tz := get("SCHEDULER_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if hash := get("SCHEDULER_API_KEY_HASH"); hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			invalid = append(invalid, "SCHEDULER_API_KEY_HASH")
		} else {
			cfg.APIKeyHash = hash
		}
	}

	if schedule := get("SCHEDULER_SWEEP_CRON"); schedule != "" {
		switch {
		case strings.EqualFold(schedule, sweepDisabled):
			cfg.SweepSchedule = ""
		default:
			if _, err := cron.ParseStandard(schedule); err != nil {
				invalid = append(invalid, "SCHEDULER_SWEEP_CRON")
			} else {
				cfg.SweepSchedule = schedule
			}
		}
	}

	if levelValue := get("SCHEDULER_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
