package domain

import "time"

// Reservation statuses that count as "kept" (still occupying their dates).
// Anything else upstream (cancelled, declined, expired) is eventually removed
// by window reconciliation since the upstream stops returning it.
const (
	ReservationConfirmed = "confirmed"
	ReservationReserved  = "reserved"
	ReservationInquiry   = "inquiry"
	ReservationCanceled  = "canceled"
	ReservationDeclined  = "declined"
)

// Reservation mirrors one upstream reservation. Created on first sync,
// updated in place afterwards, deleted by the Reconciler when a window sync
// no longer reports it (deletion cascades to generated documents).
type Reservation struct {
	ReservationID  string    `gorm:"column:reservation_id;primaryKey" json:"reservation_id"`
	ListingID      string    `gorm:"column:listing_id;not null;index" json:"listing_id"`
	CheckIn        time.Time `gorm:"column:check_in;not null" json:"check_in"`
	CheckOut       time.Time `gorm:"column:check_out;not null" json:"check_out"`
	CheckInLocal   string    `gorm:"column:check_in_local;type:varchar(10);not null" json:"check_in_local"`
	CheckOutLocal  string    `gorm:"column:check_out_local;type:varchar(10);not null" json:"check_out_local"`
	GuestName      string    `gorm:"column:guest_name" json:"guest_name"`
	GuestEmail     string    `gorm:"column:guest_email" json:"guest_email"`
	GuestPhone     string    `gorm:"column:guest_phone" json:"guest_phone"`
	Adults         int       `gorm:"column:adults" json:"adults"`
	Children       int       `gorm:"column:children" json:"children"`
	Status         string    `gorm:"column:status;type:varchar(20);not null" json:"status"`
	TotalAmount    float64   `gorm:"column:total_amount;type:decimal(18,2)" json:"total_amount"`
	Currency       string    `gorm:"column:currency;type:varchar(3)" json:"currency"`
	Source         string    `gorm:"column:source" json:"source"`
	LastSyncedAt   time.Time `gorm:"column:last_synced_at;not null" json:"last_synced_at"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Reservation) TableName() string {
	return "Reservations"
}
