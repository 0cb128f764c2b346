package store

import (
	"testing"
	"time"

	"staysync-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupStoreTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Listing{},
		&domain.AvailabilityDay{},
		&domain.Reservation{},
		&domain.Document{},
		&domain.DocumentSequence{},
	))
	return db
}

func testReservation(id, listingID, checkInLocal, checkOutLocal string) domain.Reservation {
	checkIn, _ := time.Parse("2006-01-02", checkInLocal)
	checkOut, _ := time.Parse("2006-01-02", checkOutLocal)
	return domain.Reservation{
		ReservationID: id,
		ListingID:     listingID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		CheckInLocal:  checkInLocal,
		CheckOutLocal: checkOutLocal,
		Status:        domain.ReservationConfirmed,
		LastSyncedAt:  time.Now(),
	}
}
