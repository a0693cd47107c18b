package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/class-scheduler/internal/persistence"
)

const classColumns = `id, gym_id, title, description, class_type_id, location_id, coach_id, capacity,
	start_time, end_time, status, is_recurring, series_id, created_at, updated_at`

const insertClassQuery = `INSERT INTO classes (` + classColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ClassRepository implements persistence.ClassRepository using SQLite
type ClassRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewClassRepository creates a new SQLite class repository
func NewClassRepository(pool *ConnectionPool) *ClassRepository {
	return &ClassRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateClass stores one class.
func (r *ClassRepository) CreateClass(ctx context.Context, class persistence.Class) error {
	if class.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, err := r.pool.DB().ExecContext(ctx, insertClassQuery, classArgs(class)...); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// CreateClasses stores every class inside one transaction.
func (r *ClassRepository) CreateClasses(ctx context.Context, classes []persistence.Class) error {
	if len(classes) == 0 {
		return nil
	}
	for _, class := range classes {
		if class.ID == "" {
			return persistence.ErrConstraintViolation
		}
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertClassQuery)
		if err != nil {
			return r.mapper.MapError(err)
		}
		defer stmt.Close()

		for _, class := range classes {
			if _, err := stmt.ExecContext(ctx, classArgs(class)...); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetClass retrieves a class by ID.
func (r *ClassRepository) GetClass(ctx context.Context, id string) (persistence.Class, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+classColumns+` FROM classes WHERE id = ?`, id)
	class, err := scanClass(row)
	if err != nil {
		return persistence.Class{}, r.mapper.MapError(err)
	}
	return class, nil
}

// UpdateClass overwrites every mutable column of an existing class.
func (r *ClassRepository) UpdateClass(ctx context.Context, class persistence.Class) error {
	query := `UPDATE classes SET
		gym_id = ?, title = ?, description = ?, class_type_id = ?, location_id = ?, coach_id = ?,
		capacity = ?, start_time = ?, end_time = ?, status = ?, is_recurring = ?, series_id = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.pool.DB().ExecContext(ctx, query,
		class.GymID,
		class.Title,
		nullString(class.Description),
		class.ClassTypeID,
		class.LocationID,
		nullString(class.CoachID),
		class.Capacity,
		formatTimestamp(class.Start),
		formatTimestamp(class.End),
		class.Status,
		class.IsRecurring,
		nullString(class.SeriesID),
		formatTimestamp(class.UpdatedAt),
		class.ID,
	)
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

// ListClasses returns the classes matching filter ordered by start time.
func (r *ClassRepository) ListClasses(ctx context.Context, filter persistence.ClassFilter) ([]persistence.Class, error) {
	where, args := classWhere(filter)
	query := `SELECT ` + classColumns + ` FROM classes` + where + ` ORDER BY start_time ASC, id ASC`
	return r.query(ctx, query, args...)
}

// DeleteClasses removes the classes matching filter. An empty filter is rejected.
func (r *ClassRepository) DeleteClasses(ctx context.Context, filter persistence.ClassFilter) (int64, error) {
	where, args := classWhere(filter)
	if where == "" {
		return 0, fmt.Errorf("%w: refusing to delete without a filter", persistence.ErrConstraintViolation)
	}
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM classes`+where, args...)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// FindOverlapping returns non-cancelled classes on the queried resource that overlap the window.
func (r *ClassRepository) FindOverlapping(ctx context.Context, q persistence.OverlapQuery) ([]persistence.Class, error) {
	clauses := []string{"status <> ?", "start_time < ?", "end_time > ?"}
	args := []any{persistence.StatusCancelled, formatTimestamp(q.End), formatTimestamp(q.Start)}

	switch {
	case q.LocationID != "":
		clauses = append(clauses, "location_id = ?")
		args = append(args, q.LocationID)
	case q.CoachID != "":
		clauses = append(clauses, "coach_id = ?")
		args = append(args, q.CoachID)
	default:
		return nil, fmt.Errorf("%w: overlap query needs a location or coach", persistence.ErrConstraintViolation)
	}
	if q.ExcludeID != "" {
		clauses = append(clauses, "id <> ?")
		args = append(args, q.ExcludeID)
	}

	query := `SELECT ` + classColumns + ` FROM classes WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY start_time ASC, id ASC`
	return r.query(ctx, query, args...)
}

// CompleteEndedClasses marks scheduled classes that ended before reference as completed.
func (r *ClassRepository) CompleteEndedClasses(ctx context.Context, reference time.Time) (int64, error) {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE classes SET status = ?, updated_at = ? WHERE status = ? AND end_time < ?`,
		persistence.StatusCompleted,
		formatTimestamp(reference),
		persistence.StatusScheduled,
		formatTimestamp(reference),
	)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return result.RowsAffected()
}

func (r *ClassRepository) query(ctx context.Context, query string, args ...any) ([]persistence.Class, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var out []persistence.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		out = append(out, class)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return out, nil
}

func classWhere(filter persistence.ClassFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.GymID != "" {
		clauses = append(clauses, "gym_id = ?")
		args = append(args, filter.GymID)
	}
	if filter.SeriesID != "" {
		clauses = append(clauses, "series_id = ?")
		args = append(args, filter.SeriesID)
	}
	if filter.StartsFrom != nil {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, formatTimestamp(*filter.StartsFrom))
	}
	if filter.StartsBefore != nil {
		clauses = append(clauses, "start_time < ?")
		args = append(args, formatTimestamp(*filter.StartsBefore))
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func classArgs(class persistence.Class) []any {
	status := class.Status
	if status == "" {
		status = persistence.StatusScheduled
	}
	return []any{
		class.ID,
		class.GymID,
		class.Title,
		nullString(class.Description),
		class.ClassTypeID,
		class.LocationID,
		nullString(class.CoachID),
		class.Capacity,
		formatTimestamp(class.Start),
		formatTimestamp(class.End),
		status,
		class.IsRecurring,
		nullString(class.SeriesID),
		formatTimestamp(class.CreatedAt),
		formatTimestamp(class.UpdatedAt),
	}
}

func scanClass(row rowScanner) (persistence.Class, error) {
	var (
		c                              persistence.Class
		description, coachID, seriesID sql.NullString
		start, end                     string
		createdAt, updatedAt           string
	)
	if err := row.Scan(
		&c.ID,
		&c.GymID,
		&c.Title,
		&description,
		&c.ClassTypeID,
		&c.LocationID,
		&coachID,
		&c.Capacity,
		&start,
		&end,
		&c.Status,
		&c.IsRecurring,
		&seriesID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Class{}, err
	}

	c.Description = stringPtr(description)
	c.CoachID = stringPtr(coachID)
	c.SeriesID = stringPtr(seriesID)

	var err error
	if c.Start, err = parseTimestamp(start); err != nil {
		return persistence.Class{}, err
	}
	if c.End, err = parseTimestamp(end); err != nil {
		return persistence.Class{}, err
	}
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Class{}, err
	}
	if c.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Class{}, err
	}
	return c, nil
}
