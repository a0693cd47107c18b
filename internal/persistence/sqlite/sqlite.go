package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
)

const (
	timestampLayout = time.RFC3339
	dateLayout      = "2006-01-02"
)

// Storage is the SQLite backed persistence.Store.
type Storage struct {
	*SeriesRepository
	*ClassRepository
	pool *ConnectionPool
}

var _ persistence.Store = (*Storage)(nil)

// Open connects to the database described by dsn. Call Migrate before use.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	return &Storage{
		SeriesRepository: NewSeriesRepository(pool),
		ClassRepository:  NewClassRepository(pool),
		pool:             pool,
	}, nil
}

// Migrate brings the schema up to date.
func (s *Storage) Migrate(ctx context.Context) error {
	return migrate(ctx, s.pool)
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connections.
func (s *Storage) Close() error {
	return s.pool.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// encodeWeekdays packs ISO weekday numbers (1..7) into a bitmask.
func encodeWeekdays(days []int) int64 {
	var mask int64
	for _, day := range days {
		if day >= 1 && day <= 7 {
			mask |= 1 << uint(day)
		}
	}
	return mask
}

// decodeWeekdays unpacks a bitmask into ascending ISO weekday numbers.
func decodeWeekdays(mask int64) []int {
	var days []int
	for day := 1; day <= 7; day++ {
		if mask&(1<<uint(day)) != 0 {
			days = append(days, day)
		}
	}
	return days
}
