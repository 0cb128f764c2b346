package syncengine

import (
	"encoding/json"
	"time"

	"staysync-backend/internal/domain"
	"staysync-backend/internal/pkg/errs"
	"staysync-backend/internal/upstream"
)

const dateLayout = "2006-01-02"

// mapListing converts the upstream listing payload into a local row.
// Pure transformation: no side effects.
func mapListing(api *upstream.APIListing, now time.Time) (*domain.Listing, error) {
	if api.ID == "" {
		return nil, &errs.ValidationError{Field: "listing.id", Reason: "is empty"}
	}
	if api.Name == "" {
		return nil, &errs.ValidationError{Field: "listing.name", Reason: "is empty"}
	}
	tz := api.Timezone
	if tz == "" {
		tz = "UTC"
	}
	rules := api.TaxRules
	if rules == nil {
		rules = []upstream.APITaxRule{}
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return nil, &errs.ValidationError{Field: "listing.tax_rules", Reason: "not serializable"}
	}
	return &domain.Listing{
		ListingID:    api.ID,
		Name:         api.Name,
		MaxPersons:   api.MaxPersons,
		Bedrooms:     api.Bedrooms,
		Beds:         api.Beds,
		Bathrooms:    api.Bathrooms,
		BasePrice:    api.BasePrice,
		Currency:     api.Currency,
		CheckInTime:  api.CheckInTime,
		CheckOutTime: api.CheckOutTime,
		Timezone:     tz,
		TaxRules:     rulesJSON,
		Terms:        api.Terms,
		Active:       api.Active,
		LastSyncedAt: now,
	}, nil
}

// mapDay converts one upstream calendar day. Unknown statuses are rejected
// rather than guessed: a day wrongly marked available is an overbooking risk.
func mapDay(listingID string, api upstream.APIDay, now time.Time) (domain.AvailabilityDay, error) {
	if _, err := time.Parse(dateLayout, api.Date); err != nil {
		return domain.AvailabilityDay{}, &errs.ValidationError{Field: "day.date", Reason: "not YYYY-MM-DD: " + api.Date}
	}
	switch api.Status {
	case domain.DayAvailable, domain.DayBlocked, domain.DayBooked:
	default:
		return domain.AvailabilityDay{}, &errs.ValidationError{Field: "day.status", Reason: "unknown: " + api.Status}
	}

	day := domain.AvailabilityDay{
		ListingID:         listingID,
		Date:              api.Date,
		Status:            api.Status,
		Price:             api.Price,
		MinStay:           api.MinStay,
		ClosedOnArrival:   api.ClosedOnArrival,
		ClosedOnDeparture: api.ClosedOnDeparture,
		LastSyncedAt:      now,
	}
	if api.BlockRef != "" {
		ref := api.BlockRef
		day.BlockRef = &ref
		bt := api.BlockType
		if bt == "" {
			bt = domain.BlockTypeReservation
		}
		day.BlockType = &bt
	}
	return day, nil
}

// mapReservation converts one upstream reservation. Localized check-in/out
// dates are derived in the property's timezone so they line up with the
// availability calendar.
func mapReservation(api upstream.APIReservation, loc *time.Location, now time.Time) (domain.Reservation, error) {
	if api.ID == "" {
		return domain.Reservation{}, &errs.ValidationError{Field: "reservation.id", Reason: "is empty"}
	}
	checkIn, err := time.Parse(time.RFC3339, api.CheckIn)
	if err != nil {
		return domain.Reservation{}, &errs.ValidationError{Field: "reservation.check_in", Reason: "not RFC3339: " + api.CheckIn}
	}
	checkOut, err := time.Parse(time.RFC3339, api.CheckOut)
	if err != nil {
		return domain.Reservation{}, &errs.ValidationError{Field: "reservation.check_out", Reason: "not RFC3339: " + api.CheckOut}
	}
	if !checkOut.After(checkIn) {
		return domain.Reservation{}, &errs.ValidationError{Field: "reservation.check_out", Reason: "not after check_in"}
	}

	res := domain.Reservation{
		ReservationID: api.ID,
		ListingID:     api.ListingID,
		CheckIn:       checkIn.UTC(),
		CheckOut:      checkOut.UTC(),
		CheckInLocal:  checkIn.In(loc).Format(dateLayout),
		CheckOutLocal: checkOut.In(loc).Format(dateLayout),
		Adults:        api.Adults,
		Children:      api.Children,
		Status:        api.Status,
		TotalAmount:   api.TotalAmount,
		Currency:      api.Currency,
		Source:        api.Source,
		LastSyncedAt:  now,
	}
	if api.Guest != nil {
		res.GuestName = api.Guest.Name
		res.GuestEmail = api.Guest.Email
		res.GuestPhone = api.Guest.Phone
	}
	return res, nil
}
