package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func lookup(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := parse(lookup(nil))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 || cfg.Storage != StorageSQLite || cfg.SQLiteDSN != "file:scheduler.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("expected UTC default, got %v", cfg.Location)
	}
	if cfg.SweepSchedule != "*/5 * * * *" || cfg.LogLevel != slog.LevelInfo || cfg.APIKeyHash != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParse_Overrides(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("front-desk-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash key: %v", err)
	}

	cfg, err := parse(lookup(map[string]string{
		"SCHEDULER_HTTP_PORT":    "9090",
		"SCHEDULER_STORAGE":      "Postgres",
		"SCHEDULER_POSTGRES_DSN": "postgres://scheduler@localhost/classes",
		"SCHEDULER_TIMEZONE":     "Europe/Berlin",
		"SCHEDULER_API_KEY_HASH": string(hash),
		"SCHEDULER_SWEEP_CRON":   "off",
		"SCHEDULER_LOG_LEVEL":    "debug",
	}))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if cfg.HTTPPort != 9090 || cfg.Storage != StoragePostgres {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Location.String() != "Europe/Berlin" {
		t.Fatalf("unexpected location %v", cfg.Location)
	}
	if cfg.APIKeyHash != string(hash) || cfg.SweepSchedule != "" || cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{
			name:   "postgres without dsn",
			values: map[string]string{"SCHEDULER_STORAGE": "postgres"},
			want:   "required environment variables are not set: SCHEDULER_POSTGRES_DSN",
		},
		{
			name: "invalid values are reported together",
			values: map[string]string{
				"SCHEDULER_HTTP_PORT":  "http",
				"SCHEDULER_TIMEZONE":   "Mars/Olympus",
				"SCHEDULER_SWEEP_CRON": "every minute",
			},
			want: "invalid environment variable values: SCHEDULER_HTTP_PORT, SCHEDULER_TIMEZONE, SCHEDULER_SWEEP_CRON",
		},
		{
			name:   "unknown storage",
			values: map[string]string{"SCHEDULER_STORAGE": "mysql"},
			want:   "invalid environment variable values: SCHEDULER_STORAGE",
		},
		{
			name:   "plain text api key",
			values: map[string]string{"SCHEDULER_API_KEY_HASH": "secret"},
			want:   "invalid environment variable values: SCHEDULER_API_KEY_HASH",
		},
		{
			name:   "unknown log level",
			values: map[string]string{"SCHEDULER_LOG_LEVEL": "verbose"},
			want:   "invalid environment variable values: SCHEDULER_LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parse(lookup(tt.values))
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Error() != tt.want {
				t.Fatalf("unexpected error message: %q", err.Error())
			}
		})
	}
}

func TestLoadFile_EnvironmentWinsOverDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SCHEDULER_HTTP_PORT=7070\nSCHEDULER_SQLITE_DSN=file:from-dotenv.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write dotenv: %v", err)
	}
	t.Setenv("SCHEDULER_HTTP_PORT", "9191")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.HTTPPort != 9191 {
		t.Fatalf("expected environment port, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:from-dotenv.db" {
		t.Fatalf("expected dotenv DSN, got %q", cfg.SQLiteDSN)
	}
	if _, ok := os.LookupEnv("SCHEDULER_SQLITE_DSN"); ok && os.Getenv("SCHEDULER_SQLITE_DSN") == "file:from-dotenv.db" {
		t.Fatalf("dotenv values must not leak into the process environment")
	}
}

func TestLoadFile_MissingFileIsIgnored(t *testing.T) {
	t.Setenv("SCHEDULER_HTTP_PORT", "8181")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.HTTPPort != 8181 {
		t.Fatalf("expected port 8181, got %d", cfg.HTTPPort)
	}
}
