package store

import (
	"context"
	"testing"
	"time"

	"staysync-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationUpsertUpdatesInPlace(t *testing.T) {
	db := setupStoreTest(t)
	repo := &ReservationRepo{DB: db}
	ctx := context.Background()

	res := testReservation("res-1", "listing-1", "2025-07-01", "2025-07-05")
	res.GuestName = "Ada"
	require.NoError(t, repo.Upsert(ctx, &res))

	updated := testReservation("res-1", "listing-1", "2025-07-01", "2025-07-06")
	updated.GuestName = "Ada Lovelace"
	updated.Status = domain.ReservationReserved
	require.NoError(t, repo.Upsert(ctx, &updated))

	got, err := repo.Get(ctx, "res-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada Lovelace", got.GuestName)
	assert.Equal(t, "2025-07-06", got.CheckOutLocal)
	assert.Equal(t, domain.ReservationReserved, got.Status)

	var count int64
	db.Model(&domain.Reservation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReservationListOverlapping(t *testing.T) {
	db := setupStoreTest(t)
	repo := &ReservationRepo{DB: db}
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Reservation{
		testReservation("res-before", "listing-1", "2025-05-01", "2025-05-05"),
		testReservation("res-spanning-start", "listing-1", "2025-05-28", "2025-06-02"),
		testReservation("res-inside", "listing-1", "2025-06-10", "2025-06-12"),
		testReservation("res-spanning-end", "listing-1", "2025-06-29", "2025-07-03"),
		testReservation("res-after", "listing-1", "2025-07-10", "2025-07-15"),
		testReservation("res-other-listing", "listing-2", "2025-06-10", "2025-06-12"),
	}))

	rows, err := repo.ListOverlapping(ctx, "listing-1", "2025-06-01", "2025-06-30")
	require.NoError(t, err)

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ReservationID)
	}
	assert.ElementsMatch(t, []string{"res-spanning-start", "res-inside", "res-spanning-end"}, ids)
}

func TestReservationDeleteOlderThan(t *testing.T) {
	db := setupStoreTest(t)
	repo := &ReservationRepo{DB: db}
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, []domain.Reservation{
		testReservation("res-old", "listing-1", "2023-01-01", "2023-01-05"),
		testReservation("res-new", "listing-1", "2025-07-01", "2025-07-05"),
	}))

	cutoff, _ := time.Parse("2006-01-02", "2024-01-01")
	deleted, err := repo.DeleteOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err := repo.Get(ctx, "res-new")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
