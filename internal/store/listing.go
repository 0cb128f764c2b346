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

// ListingRepo owns Listing rows. Only the sync engine writes through it;
// pricing/calendar/admin consumers read.
type ListingRepo struct {
	DB *gorm.DB
}

// Upsert replaces the listing wholesale (no partial-field merge).
func (r *ListingRepo) Upsert(ctx context.Context, listing *domain.Listing) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "listing_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "max_persons", "bedrooms", "beds", "bathrooms",
			"base_price", "currency", "check_in_time", "check_out_time",
			"timezone", "tax_rules", "terms", "active", "last_synced_at", "updated_at",
		}),
	}).Create(listing).Error
	if err != nil {
		return &errs.DatabaseError{Op: "listing_upsert", Err: err}
	}
	return nil
}

// Get returns the listing or (nil, nil) when it has never been synced.
func (r *ListingRepo) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.DB.WithContext(ctx).First(&listing, "listing_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &errs.DatabaseError{Op: "listing_get", Err: err}
	}
	return &listing, nil
}

// IsStale reports whether the listing needs a re-sync: true when no row
// exists or last_synced_at is older than now-ttl. Policy: on store error it
// returns (true, err) — callers treat unreadable as stale and may still
// decide to fetch.
func (r *ListingRepo) IsStale(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	var listing domain.Listing
	err := r.DB.WithContext(ctx).Select("last_synced_at").First(&listing, "listing_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return true, &errs.DatabaseError{Op: "listing_is_stale", Err: err}
	}
	return listing.LastSyncedAt.Before(time.Now().Add(-ttl)), nil
}
