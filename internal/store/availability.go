package store

import (
	"context"
	"errors"
	"time"

	"staysync-backend/internal/domain"
	"staysync-backend/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvailabilityRepo owns AvailabilityDay rows, unique on (listing_id, date).
type AvailabilityRepo struct {
	DB *gorm.DB
}

var availabilityUpdateColumns = []string{
	"status", "price", "min_stay", "closed_on_arrival", "closed_on_departure",
	"block_ref", "block_type", "last_synced_at", "updated_at",
}

// Upsert writes one day, keeping row identity stable across syncs.
func (r *AvailabilityRepo) Upsert(ctx context.Context, day *domain.AvailabilityDay) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(availabilityUpdateColumns),
	}).Create(day).Error
	if err != nil {
		return &errs.DatabaseError{Op: "availability_upsert", Err: err}
	}
	return nil
}

// UpsertBatch writes all days in a single transaction: either every row in
// the batch commits or none does. A partial batch write is a correctness bug,
// not an acceptable degradation.
func (r *AvailabilityRepo) UpsertBatch(ctx context.Context, days []domain.AvailabilityDay) error {
	if len(days) == 0 {
		return nil
	}
	tx := r.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(availabilityUpdateColumns),
	}).Create(&days).Error; err != nil {
		tx.Rollback()
		return &errs.DatabaseError{Op: "availability_upsert_batch", Err: err}
	}
	if err := tx.Commit().Error; err != nil {
		return &errs.DatabaseError{Op: "availability_upsert_batch", Err: err}
	}
	return nil
}

// GetRange returns the days for [start, end] inclusive, date-ordered.
// Dates are YYYY-MM-DD so lexicographic comparison is chronological.
func (r *AvailabilityRepo) GetRange(ctx context.Context, listingID, start, end string) ([]domain.AvailabilityDay, error) {
	var days []domain.AvailabilityDay
	err := r.DB.WithContext(ctx).
		Where("listing_id = ? AND date >= ? AND date <= ?", listingID, start, end).
		Order("date ASC").
		Find(&days).Error
	if err != nil {
		return nil, &errs.DatabaseError{Op: "availability_get_range", Err: err}
	}
	return days, nil
}

// IsStale reports whether the listing's calendar needs a re-sync: true when
// no day rows exist or the newest last_synced_at is older than now-ttl.
// Policy: on store error it returns (true, err).
func (r *AvailabilityRepo) IsStale(ctx context.Context, listingID string, ttl time.Duration) (bool, error) {
	var day domain.AvailabilityDay
	err := r.DB.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("last_synced_at DESC").
		Select("last_synced_at").
		First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return true, &errs.DatabaseError{Op: "availability_is_stale", Err: err}
	}
	return day.LastSyncedAt.Before(time.Now().Add(-ttl)), nil
}

// DeleteOlderThan is the age-based retention sweep: it removes day rows with
// a date strictly before cutoff (YYYY-MM-DD). Independent of staleness
// reconciliation, which never touches availability rows.
func (r *AvailabilityRepo) DeleteOlderThan(ctx context.Context, cutoff string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("date < ?", cutoff).Delete(&domain.AvailabilityDay{})
	if res.Error != nil {
		return 0, &errs.DatabaseError{Op: "availability_delete_older", Err: res.Error}
	}
	return res.RowsAffected, nil
}
