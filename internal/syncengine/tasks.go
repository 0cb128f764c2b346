package syncengine

import (
	"context"
	"time"

	"staysync-backend/internal/domain"
	"staysync-backend/internal/store"
	"staysync-backend/internal/upstream"

	"github.com/rs/zerolog/log"
)

// PMSClient is the slice of the upstream client the tasks need.
type PMSClient interface {
	FetchListing(ctx context.Context, id string) (*upstream.APIListing, error)
	FetchCalendar(ctx context.Context, id, start, end string) ([]upstream.APIDay, error)
	FetchReservations(ctx context.Context, listingID, start, end string) ([]upstream.APIReservation, error)
}

// Tasks holds the three entity sync tasks for one deployment. Each task
// catches its own failures and reports them in the TaskResult so sibling
// tasks in the same run are unaffected.
type Tasks struct {
	Client       PMSClient
	Listings     *store.ListingRepo
	Availability *store.AvailabilityRepo
	Reservations *store.ReservationRepo

	ListingTTL      time.Duration
	AvailabilityTTL time.Duration
	PastDays        int
	FutureDays      int

	// Now is the clock; tests override it. Defaults to time.Now.
	Now func() time.Time
}

func (t *Tasks) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// window is today-PastDays .. today+FutureDays, UTC dates.
func (t *Tasks) window() Window {
	today := t.now().UTC()
	return Window{
		Start: today.AddDate(0, 0, -t.PastDays).Format(dateLayout),
		End:   today.AddDate(0, 0, t.FutureDays).Format(dateLayout),
	}
}

func failure(entity string, err error) TaskResult {
	log.Error().Str("entity", entity).Err(err).Msg("Sync task failed")
	return TaskResult{Entity: entity, Success: false, Error: err.Error()}
}

// SyncListing pulls one listing and replaces the local row wholesale.
func (t *Tasks) SyncListing(ctx context.Context, listingID string, mode SyncMode) TaskResult {
	const entity = "listing"
	if mode != ModeForce {
		stale, err := t.Listings.IsStale(ctx, listingID, t.ListingTTL)
		if err != nil {
			log.Warn().Str("listing_id", listingID).Err(err).Msg("Freshness check failed, treating listing as stale")
		}
		if !stale {
			return TaskResult{Entity: entity, Success: true, Skipped: true}
		}
	}

	api, err := t.Client.FetchListing(ctx, listingID)
	if err != nil {
		return failure(entity, err)
	}
	listing, err := mapListing(api, t.now())
	if err != nil {
		return failure(entity, err)
	}
	if err := t.Listings.Upsert(ctx, listing); err != nil {
		return failure(entity, err)
	}
	log.Info().Str("listing_id", listingID).Msg("Listing synced")
	return TaskResult{Entity: entity, Success: true, Count: 1}
}

// SyncAvailability pulls the calendar for the configured window and upserts
// it in one batch. The synced window is returned so the caller can run
// reconciliation against it.
func (t *Tasks) SyncAvailability(ctx context.Context, listingID string, mode SyncMode) (TaskResult, Window) {
	const entity = "availability"
	win := t.window()

	if mode != ModeForce {
		stale, err := t.Availability.IsStale(ctx, listingID, t.AvailabilityTTL)
		if err != nil {
			log.Warn().Str("listing_id", listingID).Err(err).Msg("Freshness check failed, treating availability as stale")
		}
		if !stale {
			return TaskResult{Entity: entity, Success: true, Skipped: true}, win
		}
	}

	apiDays, err := t.Client.FetchCalendar(ctx, listingID, win.Start, win.End)
	if err != nil {
		return failure(entity, err), win
	}
	now := t.now()
	days := make([]domain.AvailabilityDay, 0, len(apiDays))
	for _, d := range apiDays {
		day, err := mapDay(listingID, d, now)
		if err != nil {
			return failure(entity, err), win
		}
		days = append(days, day)
	}
	if err := t.Availability.UpsertBatch(ctx, days); err != nil {
		return failure(entity, err), win
	}
	log.Info().Str("listing_id", listingID).Int("days", len(days)).Str("start", win.Start).Str("end", win.End).Msg("Availability synced")
	return TaskResult{Entity: entity, Success: true, Count: len(days)}, win
}

// SyncReservations pulls all reservations overlapping the window and upserts
// them in one batch. The returned ids are the reservations confirmed present
// upstream in this run; only they may be used to decide reconciliation
// deletes.
func (t *Tasks) SyncReservations(ctx context.Context, listingID string, mode SyncMode) (TaskResult, Window, []string) {
	const entity = "reservations"
	win := t.window()

	if mode != ModeForce {
		stale, err := t.Reservations.IsStale(ctx, listingID, t.AvailabilityTTL)
		if err != nil {
			log.Warn().Str("listing_id", listingID).Err(err).Msg("Freshness check failed, treating reservations as stale")
		}
		if !stale {
			return TaskResult{Entity: entity, Success: true, Skipped: true}, win, nil
		}
	}

	apiRes, err := t.Client.FetchReservations(ctx, listingID, win.Start, win.End)
	if err != nil {
		return failure(entity, err), win, nil
	}

	loc := t.listingLocation(ctx, listingID)
	now := t.now()
	rows := make([]domain.Reservation, 0, len(apiRes))
	keep := make([]string, 0, len(apiRes))
	for _, r := range apiRes {
		if r.ListingID == "" {
			r.ListingID = listingID
		}
		row, err := mapReservation(r, loc, now)
		if err != nil {
			return failure(entity, err), win, nil
		}
		rows = append(rows, row)
		keep = append(keep, row.ReservationID)
	}
	if err := t.Reservations.UpsertBatch(ctx, rows); err != nil {
		return failure(entity, err), win, nil
	}
	log.Info().Str("listing_id", listingID).Int("reservations", len(rows)).Msg("Reservations synced")
	return TaskResult{Entity: entity, Success: true, Count: len(rows)}, win, keep
}

// listingLocation loads the property timezone from the cached listing,
// falling back to UTC when the listing has not been synced yet or the zone
// name is unknown.
func (t *Tasks) listingLocation(ctx context.Context, listingID string) *time.Location {
	listing, err := t.Listings.Get(ctx, listingID)
	if err != nil || listing == nil || listing.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(listing.Timezone)
	if err != nil {
		log.Warn().Str("listing_id", listingID).Str("timezone", listing.Timezone).Msg("Unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}
