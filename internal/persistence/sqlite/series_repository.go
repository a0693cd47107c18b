package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
)

const seriesColumns = `id, gym_id, title, description, class_type_id, location_id, coach_id, capacity,
	recurrence_type, recurrence_days, start_date, end_date, start_time, end_time, created_at, updated_at`

// SeriesRepository implements persistence.SeriesRepository using SQLite
type SeriesRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewSeriesRepository creates a new SQLite series repository
func NewSeriesRepository(pool *ConnectionPool) *SeriesRepository {
	return &SeriesRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateSeries stores a new recurrence definition.
func (r *SeriesRepository) CreateSeries(ctx context.Context, series persistence.Series) error {
	if series.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO series (` + seriesColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.pool.DB().ExecContext(ctx, query,
		series.ID,
		series.GymID,
		series.Title,
		nullString(series.Description),
		series.ClassTypeID,
		series.LocationID,
		nullString(series.CoachID),
		series.Capacity,
		series.RecurrenceType,
		encodeWeekdays(series.RecurrenceDays),
		series.StartDate.Format(dateLayout),
		series.EndDate.Format(dateLayout),
		series.StartTime,
		series.EndTime,
		formatTimestamp(series.CreatedAt),
		formatTimestamp(series.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetSeries retrieves a series by ID.
func (r *SeriesRepository) GetSeries(ctx context.Context, id string) (persistence.Series, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)
	series, err := scanSeries(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Series{}, persistence.ErrNotFound
		}
		return persistence.Series{}, r.mapper.MapError(err)
	}
	return series, nil
}

// ListSeries returns the series of a gym ordered by start date. An empty gymID lists all.
func (r *SeriesRepository) ListSeries(ctx context.Context, gymID string) ([]persistence.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series`
	args := []any{}
	if gymID != "" {
		query += ` WHERE gym_id = ?`
		args = append(args, gymID)
	}
	query += ` ORDER BY start_date ASC, id ASC`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var out []persistence.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		out = append(out, series)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return out, nil
}

// DeleteSeries removes a series row. Classes still referencing it are detached.
func (r *SeriesRepository) DeleteSeries(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM series WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanSeries(row rowScanner) (persistence.Series, error) {
	var (
		s                    persistence.Series
		description, coachID sql.NullString
		daysMask             int64
		startDate, endDate   string
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&s.ID,
		&s.GymID,
		&s.Title,
		&description,
		&s.ClassTypeID,
		&s.LocationID,
		&coachID,
		&s.Capacity,
		&s.RecurrenceType,
		&daysMask,
		&startDate,
		&endDate,
		&s.StartTime,
		&s.EndTime,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Series{}, err
	}

	s.Description = stringPtr(description)
	s.CoachID = stringPtr(coachID)
	s.RecurrenceDays = decodeWeekdays(daysMask)

	var err error
	if s.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return persistence.Series{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if s.EndDate, err = time.Parse(dateLayout, endDate); err != nil {
		return persistence.Series{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if s.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Series{}, err
	}
	if s.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Series{}, err
	}
	return s, nil
}
