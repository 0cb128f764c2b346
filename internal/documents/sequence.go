package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staysync-backend/internal/domain"
	"staysync-backend/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sharedGroup: quotes and invoices draw from one sequence group per year so
// a quote and the invoice later generated for the same reservation can carry
// matching digits behind different display prefixes.
const sharedGroup = "documents"

var kindPrefix = map[string]string{
	domain.DocumentKindQuote:   "Q-",
	domain.DocumentKindInvoice: "INV-",
}

// Sequence issues document numbers from the transactional per-year counter.
type Sequence struct {
	DB *gorm.DB

	// Now is the clock; tests override it. Defaults to time.Now.
	Now func() time.Time
}

func (s *Sequence) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NextNumber atomically increments and returns the counter for the year.
// Both kinds share the counter; increment-and-read happens inside a single
// transaction so two concurrent callers never receive the same number.
func (s *Sequence) NextNumber(ctx context.Context, kind string, year int) (int, error) {
	if _, ok := kindPrefix[kind]; !ok {
		return 0, &errs.ValidationError{Field: "document.kind", Reason: "unknown: " + kind}
	}
	return s.increment(ctx, year, true)
}

func (s *Sequence) increment(ctx context.Context, year int, allowCreate bool) (int, error) {
	var value int
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
		}
	}()

	res := tx.Model(&domain.DocumentSequence{}).
		Where("year = ? AND seq_group = ?", year, sharedGroup).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		tx.Rollback()
		return 0, &errs.DatabaseError{Op: "sequence_increment", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		if err := tx.Create(&domain.DocumentSequence{Year: year, Group: sharedGroup, Value: 1}).Error; err != nil {
			tx.Rollback()
			if allowCreate {
				// Lost the first-row race to a concurrent caller; their row
				// exists now, so a plain increment will succeed.
				return s.increment(ctx, year, false)
			}
			return 0, &errs.DatabaseError{Op: "sequence_create", Err: err}
		}
		value = 1
	} else {
		var seq domain.DocumentSequence
		if err := tx.Where("year = ? AND seq_group = ?", year, sharedGroup).First(&seq).Error; err != nil {
			tx.Rollback()
			return 0, &errs.DatabaseError{Op: "sequence_read", Err: err}
		}
		value = seq.Value
	}
	if err := tx.Commit().Error; err != nil {
		return 0, &errs.DatabaseError{Op: "sequence_commit", Err: err}
	}
	return value, nil
}

// NumberFor returns the display number for a reservation's document of the
// given kind, issuing one if needed. Idempotent: an already-issued number for
// that reservation+kind is reused, never re-issued. When the other kind was
// already numbered for the same reservation, its digits are reused so quote
// and invoice match.
func (s *Sequence) NumberFor(ctx context.Context, reservationID, kind string) (string, error) {
	prefix, ok := kindPrefix[kind]
	if !ok {
		return "", &errs.ValidationError{Field: "document.kind", Reason: "unknown: " + kind}
	}

	var existing domain.Document
	err := s.DB.WithContext(ctx).
		Where("reservation_id = ? AND kind = ?", reservationID, kind).
		First(&existing).Error
	if err == nil {
		return existing.DisplayNumber, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", &errs.DatabaseError{Op: "document_lookup", Err: err}
	}

	now := s.now()
	year := now.Year()
	number := 0

	var sibling domain.Document
	err = s.DB.WithContext(ctx).
		Where("reservation_id = ? AND kind <> ?", reservationID, kind).
		First(&sibling).Error
	switch {
	case err == nil:
		number = sibling.Number
		year = sibling.Year
	case errors.Is(err, gorm.ErrRecordNotFound):
		number, err = s.NextNumber(ctx, kind, year)
		if err != nil {
			return "", err
		}
	default:
		return "", &errs.DatabaseError{Op: "document_sibling_lookup", Err: err}
	}

	doc := domain.Document{
		ReservationID: reservationID,
		Kind:          kind,
		Number:        number,
		DisplayNumber: FormatNumber(prefix, year, number),
		Year:          year,
		IssuedAt:      now,
	}
	if err := s.DB.WithContext(ctx).Create(&doc).Error; err != nil {
		return "", &errs.DatabaseError{Op: "document_create", Err: err}
	}
	return doc.DisplayNumber, nil
}

// SetSequence is the manual correction path: it pins the year's counter to
// value so the next issued number is value+1.
func (s *Sequence) SetSequence(ctx context.Context, year, value int) error {
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "seq_group"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value}),
	}).Create(&domain.DocumentSequence{Year: year, Group: sharedGroup, Value: value}).Error
	if err != nil {
		return &errs.DatabaseError{Op: "sequence_set", Err: err}
	}
	return nil
}

// FormatNumber renders the display form: prefix, year, zero-padded digits.
func FormatNumber(prefix string, year, number int) string {
	return fmt.Sprintf("%s%d-%04d", prefix, year, number)
}
