package syncengine

import (
	"context"

	"staysync-backend/internal/domain"
	"staysync-backend/internal/pkg/errs"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Reconciler removes locally cached reservations that a fresh window sync no
// longer reports: the pull-reconciliation path for upstream cancellations,
// which arrive with no push notification. It never deletes outside the
// synced window, and only ever acts on keep-sets from the current run.
type Reconciler struct {
	DB *gorm.DB
}

// ReconcileWindow deletes reservations overlapping [start, end] whose id is
// not in keepIDs, cascading to their documents first (foreign-key safety),
// all in one transaction. Returns the number of reservations deleted.
// Availability rows are left untouched; the availability sync in the same
// orchestrator pass is what corrects day statuses.
func (r *Reconciler) ReconcileWindow(ctx context.Context, listingID, start, end string, keepIDs []string) (int64, error) {
	var cached []domain.Reservation
	err := r.DB.WithContext(ctx).
		Select("reservation_id").
		Where("listing_id = ? AND check_in_local <= ? AND check_out_local >= ?", listingID, end, start).
		Find(&cached).Error
	if err != nil {
		return 0, &errs.DatabaseError{Op: "reconcile_list", Err: err}
	}

	keep := make(map[string]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}
	var doomed []string
	for _, res := range cached {
		if _, ok := keep[res.ReservationID]; !ok {
			doomed = append(doomed, res.ReservationID)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	tx := r.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Where("reservation_id IN ?", doomed).Delete(&domain.Document{}).Error; err != nil {
		tx.Rollback()
		return 0, &errs.DatabaseError{Op: "reconcile_delete_documents", Err: err}
	}
	res := tx.Where("reservation_id IN ?", doomed).Delete(&domain.Reservation{})
	if res.Error != nil {
		tx.Rollback()
		return 0, &errs.DatabaseError{Op: "reconcile_delete_reservations", Err: res.Error}
	}
	if err := tx.Commit().Error; err != nil {
		return 0, &errs.DatabaseError{Op: "reconcile_commit", Err: err}
	}

	log.Info().Str("listing_id", listingID).Str("start", start).Str("end", end).
		Int64("deleted", res.RowsAffected).Msg("Reconciled cancelled reservations")
	return res.RowsAffected, nil
}
