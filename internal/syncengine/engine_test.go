package syncengine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"staysync-backend/internal/domain"
	"staysync-backend/internal/store"
	"staysync-backend/internal/upstream"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeClient counts calls so tests can assert the fresh-cache short-circuit
// and the force bypass.
type fakeClient struct {
	mu sync.Mutex

	listing      *upstream.APIListing
	days         []upstream.APIDay
	reservations []upstream.APIReservation

	listingErr      error
	calendarErr     error
	reservationsErr error

	listingCalls     int
	calendarCalls    int
	reservationCalls int

	// blockCh, when set, stalls FetchListing until closed; used to hold a
	// run in flight.
	blockCh chan struct{}
}

func (f *fakeClient) FetchListing(ctx context.Context, id string) (*upstream.APIListing, error) {
	f.mu.Lock()
	f.listingCalls++
	block := f.blockCh
	err := f.listingErr
	listing := f.listing
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (f *fakeClient) FetchCalendar(ctx context.Context, id, start, end string) ([]upstream.APIDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calendarCalls++
	if f.calendarErr != nil {
		return nil, f.calendarErr
	}
	return f.days, nil
}

func (f *fakeClient) FetchReservations(ctx context.Context, listingID, start, end string) ([]upstream.APIReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservationCalls++
	if f.reservationsErr != nil {
		return nil, f.reservationsErr
	}
	return f.reservations, nil
}

// testNow pins the clock so the sync window is 2025-01-01 .. 2025-01-10
// with PastDays=2, FutureDays=7.
var testNow = time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC)

func setupEngine(t *testing.T) (*Tasks, *Reconciler, *fakeClient, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Listing{},
		&domain.AvailabilityDay{},
		&domain.Reservation{},
		&domain.Document{},
		&domain.DocumentSequence{},
	))

	client := &fakeClient{
		listing: &upstream.APIListing{
			ID:       "listing-1",
			Name:     "Casa del Sol",
			Timezone: "UTC",
			Active:   true,
		},
	}
	tasks := &Tasks{
		Client:          client,
		Listings:        &store.ListingRepo{DB: db},
		Availability:    &store.AvailabilityRepo{DB: db},
		Reservations:    &store.ReservationRepo{DB: db},
		ListingTTL:      24 * time.Hour,
		AvailabilityTTL: time.Hour,
		PastDays:        2,
		FutureDays:      7,
		Now:             func() time.Time { return testNow },
	}
	return tasks, &Reconciler{DB: db}, client, db
}

// bookedScenarioDays: 01-01..01-05 available, 06..10 booked by res-9.
func bookedScenarioDays() []upstream.APIDay {
	var days []upstream.APIDay
	for i := 1; i <= 5; i++ {
		days = append(days, upstream.APIDay{
			Date:   fmt.Sprintf("2025-01-%02d", i),
			Status: "available",
			Price:  100,
		})
	}
	for i := 6; i <= 10; i++ {
		days = append(days, upstream.APIDay{
			Date:      fmt.Sprintf("2025-01-%02d", i),
			Status:    "booked",
			Price:     100,
			BlockRef:  "res-9",
			BlockType: "reservation",
		})
	}
	return days
}

func res9() upstream.APIReservation {
	return upstream.APIReservation{
		ID:          "res-9",
		ListingID:   "listing-1",
		CheckIn:     "2025-01-06T14:00:00Z",
		CheckOut:    "2025-01-10T10:00:00Z",
		Guest:       &upstream.APIGuest{Name: "Grace", Email: "grace@example.com"},
		Adults:      2,
		Status:      "confirmed",
		TotalAmount: 400,
		Currency:    "EUR",
		Source:      "airbnb",
	}
}
