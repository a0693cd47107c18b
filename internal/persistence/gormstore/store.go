// Package gormstore implements persistence.Store on top of GORM. Production
// deployments use the PostgreSQL dialector.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/class-scheduler/internal/persistence"
)

const insertBatchSize = 100

// Store is the GORM backed persistence.Store.
type Store struct {
	db *gorm.DB
}

var _ persistence.Store = (*Store)(nil)

// OpenPostgres connects to PostgreSQL using a libpq style DSN.
func OpenPostgres(dsn string) (*Store, error) {
	return Open(postgres.Open(dsn))
}

// Open connects through any GORM dialector.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate creates or updates the series and classes tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&seriesRecord{}, &classRecord{}); err != nil {
		return fmt.Errorf("gormstore: auto-migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateSeries stores a new recurrence definition.
func (s *Store) CreateSeries(ctx context.Context, series persistence.Series) error {
	if series.ID == "" {
		return persistence.ErrConstraintViolation
	}
	record := toSeriesRecord(series)
	return mapError(s.db.WithContext(ctx).Create(&record).Error)
}

// GetSeries retrieves a series by ID.
func (s *Store) GetSeries(ctx context.Context, id string) (persistence.Series, error) {
	var record seriesRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return persistence.Series{}, mapError(err)
	}
	return record.toPersistence(), nil
}

// ListSeries returns the series of a gym ordered by start date. An empty gymID lists all.
func (s *Store) ListSeries(ctx context.Context, gymID string) ([]persistence.Series, error) {
	query := s.db.WithContext(ctx).Order("start_date ASC").Order("id ASC")
	if gymID != "" {
		query = query.Where("gym_id = ?", gymID)
	}
	var records []seriesRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	out := make([]persistence.Series, 0, len(records))
	for _, r := range records {
		out = append(out, r.toPersistence())
	}
	return out, nil
}

// DeleteSeries removes a series row and detaches any class still pointing at it.
func (s *Store) DeleteSeries(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&classRecord{}).Where("series_id = ?", id).Update("series_id", nil).Error; err != nil {
			return mapError(err)
		}
		result := tx.Where("id = ?", id).Delete(&seriesRecord{})
		if result.Error != nil {
			return mapError(result.Error)
		}
		if result.RowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// CreateClass stores one class.
func (s *Store) CreateClass(ctx context.Context, class persistence.Class) error {
	if class.ID == "" {
		return persistence.ErrConstraintViolation
	}
	record := toClassRecord(class)
	return mapError(s.db.WithContext(ctx).Create(&record).Error)
}

// CreateClasses stores every class inside one transaction.
func (s *Store) CreateClasses(ctx context.Context, classes []persistence.Class) error {
	if len(classes) == 0 {
		return nil
	}
	records := make([]classRecord, 0, len(classes))
	for _, class := range classes {
		if class.ID == "" {
			return persistence.ErrConstraintViolation
		}
		records = append(records, toClassRecord(class))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return mapError(tx.CreateInBatches(&records, insertBatchSize).Error)
	})
}

// GetClass retrieves a class by ID.
func (s *Store) GetClass(ctx context.Context, id string) (persistence.Class, error) {
	var record classRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return persistence.Class{}, mapError(err)
	}
	return record.toPersistence(), nil
}

// UpdateClass overwrites every mutable column of an existing class.
func (s *Store) UpdateClass(ctx context.Context, class persistence.Class) error {
	record := toClassRecord(class)
	result := s.db.WithContext(ctx).
		Model(&classRecord{}).
		Where("id = ?", record.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&record)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListClasses returns the classes matching filter ordered by start time.
func (s *Store) ListClasses(ctx context.Context, filter persistence.ClassFilter) ([]persistence.Class, error) {
	var records []classRecord
	query := applyClassFilter(s.db.WithContext(ctx), filter).Order("start_time ASC").Order("id ASC")
	if err := query.Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	return toClasses(records), nil
}

// DeleteClasses removes the classes matching filter. An empty filter is rejected.
func (s *Store) DeleteClasses(ctx context.Context, filter persistence.ClassFilter) (int64, error) {
	if isEmptyFilter(filter) {
		return 0, fmt.Errorf("%w: refusing to delete without a filter", persistence.ErrConstraintViolation)
	}
	result := applyClassFilter(s.db.WithContext(ctx), filter).Delete(&classRecord{})
	if result.Error != nil {
		return 0, mapError(result.Error)
	}
	return result.RowsAffected, nil
}

// FindOverlapping returns non-cancelled classes on the queried resource that overlap the window.
func (s *Store) FindOverlapping(ctx context.Context, q persistence.OverlapQuery) ([]persistence.Class, error) {
	query := s.db.WithContext(ctx).
		Where("status <> ?", persistence.StatusCancelled).
		Where("start_time < ? AND end_time > ?", q.End.UTC(), q.Start.UTC())

	switch {
	case q.LocationID != "":
		query = query.Where("location_id = ?", q.LocationID)
	case q.CoachID != "":
		query = query.Where("coach_id = ?", q.CoachID)
	default:
		return nil, fmt.Errorf("%w: overlap query needs a location or coach", persistence.ErrConstraintViolation)
	}
	if q.ExcludeID != "" {
		query = query.Where("id <> ?", q.ExcludeID)
	}

	var records []classRecord
	if err := query.Order("start_time ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	return toClasses(records), nil
}

// CompleteEndedClasses marks scheduled classes that ended before reference as completed.
func (s *Store) CompleteEndedClasses(ctx context.Context, reference time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&classRecord{}).
		Where("status = ? AND end_time < ?", persistence.StatusScheduled, reference.UTC()).
		Updates(map[string]any{"status": persistence.StatusCompleted, "updated_at": reference.UTC()})
	if result.Error != nil {
		return 0, mapError(result.Error)
	}
	return result.RowsAffected, nil
}

func applyClassFilter(db *gorm.DB, filter persistence.ClassFilter) *gorm.DB {
	if filter.GymID != "" {
		db = db.Where("gym_id = ?", filter.GymID)
	}
	if filter.SeriesID != "" {
		db = db.Where("series_id = ?", filter.SeriesID)
	}
	if filter.StartsFrom != nil {
		db = db.Where("start_time >= ?", filter.StartsFrom.UTC())
	}
	if filter.StartsBefore != nil {
		db = db.Where("start_time < ?", filter.StartsBefore.UTC())
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	return db
}

func isEmptyFilter(filter persistence.ClassFilter) bool {
	return filter.GymID == "" && filter.SeriesID == "" && filter.StartsFrom == nil &&
		filter.StartsBefore == nil && len(filter.Statuses) == 0
}

func toClasses(records []classRecord) []persistence.Class {
	out := make([]persistence.Class, 0, len(records))
	for _, r := range records {
		out = append(out, r.toPersistence())
	}
	return out
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return persistence.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	default:
		return err
	}
}
