package domain

import "time"

// Availability-day statuses as reported after mapping the upstream calendar.
const (
	DayAvailable = "available"
	DayBlocked   = "blocked"
	DayBooked    = "booked"
)

// Block types for non-available days.
const (
	BlockTypeReservation = "reservation"
	BlockTypeManual      = "manual"
)

// AvailabilityDay is one calendar day for one listing. Date is YYYY-MM-DD in
// the property's local timezone. Unique on (listing_id, date); upserts keep
// row identity stable across syncs. Rows are only ever deleted by the
// age-based retention sweep, never by staleness reconciliation.
type AvailabilityDay struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ListingID         string    `gorm:"column:listing_id;not null;uniqueIndex:idx_listing_date,priority:1" json:"listing_id"`
	Date              string    `gorm:"column:date;type:varchar(10);not null;uniqueIndex:idx_listing_date,priority:2" json:"date"`
	Status            string    `gorm:"column:status;type:varchar(20);not null;default:'available'" json:"status"`
	Price             float64   `gorm:"column:price;type:decimal(18,2)" json:"price"`
	MinStay           int       `gorm:"column:min_stay" json:"min_stay"`
	ClosedOnArrival   bool      `gorm:"column:closed_on_arrival" json:"closed_on_arrival"`
	ClosedOnDeparture bool      `gorm:"column:closed_on_departure" json:"closed_on_departure"`
	BlockRef          *string   `gorm:"column:block_ref" json:"block_ref"`
	BlockType         *string   `gorm:"column:block_type;type:varchar(20)" json:"block_type"`
	LastSyncedAt      time.Time `gorm:"column:last_synced_at;not null" json:"last_synced_at"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (AvailabilityDay) TableName() string {
	return "AvailabilityDays"
}
