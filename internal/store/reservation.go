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

// ReservationRepo owns Reservation rows, unique on reservation_id.
type ReservationRepo struct {
	DB *gorm.DB
}

var reservationUpdateColumns = []string{
	"listing_id", "check_in", "check_out", "check_in_local", "check_out_local",
	"guest_name", "guest_email", "guest_phone", "adults", "children",
	"status", "total_amount", "currency", "source", "last_synced_at", "updated_at",
}

// Upsert creates the reservation on first sync and updates it in place on
// subsequent syncs.
func (r *ReservationRepo) Upsert(ctx context.Context, res *domain.Reservation) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reservation_id"}},
		DoUpdates: clause.AssignmentColumns(reservationUpdateColumns),
	}).Create(res).Error
	if err != nil {
		return &errs.DatabaseError{Op: "reservation_upsert", Err: err}
	}
	return nil
}

// UpsertBatch writes all reservations in one transaction, all-or-nothing.
func (r *ReservationRepo) UpsertBatch(ctx context.Context, rows []domain.Reservation) error {
	if len(rows) == 0 {
		return nil
	}
	tx := r.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reservation_id"}},
		DoUpdates: clause.AssignmentColumns(reservationUpdateColumns),
	}).Create(&rows).Error; err != nil {
		tx.Rollback()
		return &errs.DatabaseError{Op: "reservation_upsert_batch", Err: err}
	}
	if err := tx.Commit().Error; err != nil {
		return &errs.DatabaseError{Op: "reservation_upsert_batch", Err: err}
	}
	return nil
}

// Get returns the reservation or (nil, nil) when none is cached.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.DB.WithContext(ctx).First(&res, "reservation_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.DatabaseError{Op: "reservation_get", Err: err}
	}
	return &res, nil
}

// ListOverlapping returns cached reservations for a listing whose localized
// stay overlaps [start, end] (YYYY-MM-DD). A stay overlaps when it begins on
// or before the window end and ends on or after the window start.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, listingID, start, end string) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.DB.WithContext(ctx).
		Where("listing_id = ? AND check_in_local <= ? AND check_out_local >= ?", listingID, end, start).
		Find(&rows).Error
	if err != nil {
		return nil, &errs.DatabaseError{Op: "reservation_list_overlapping", Err: err}
	}
	return rows, nil
}

// IsStale reports whether the listing's reservations need a re-sync.
// Policy: on store error it returns (true, err).
func (r *ReservationRepo) IsStale(ctx context.Context, listingID string, ttl time.Duration) (bool, error) {
	var res domain.Reservation
	err := r.DB.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("last_synced_at DESC").
		Select("last_synced_at").
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return true, &errs.DatabaseError{Op: "reservation_is_stale", Err: err}
	}
	return res.LastSyncedAt.Before(time.Now().Add(-ttl)), nil
}

// DeleteOlderThan removes reservations whose stay ended before cutoff.
// Retention sweep only; window reconciliation is the mechanism for upstream
// cancellations.
func (r *ReservationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("check_out < ?", cutoff).Delete(&domain.Reservation{})
	if res.Error != nil {
		return 0, &errs.DatabaseError{Op: "reservation_delete_older", Err: res.Error}
	}
	return res.RowsAffected, nil
}
