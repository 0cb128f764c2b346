package domain

import (
	"time"

	"gorm.io/datatypes"
)

// TaxRule is one entry of a listing's ordered tax-rule list, stored as JSON.
// Order matters: the pricing engine applies rules in slice order.
type TaxRule struct {
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`       // "percent" | "fixed"
	Quantifier string  `json:"quantifier"` // "per_stay" | "per_night" | "per_person_per_night"
	AppliesTo  string  `json:"applies_to"` // "rent" | "total"
}

// Listing mirrors one managed property from the upstream PMS.
// Rows are replaced wholesale on each sync; no partial-field merge.
type Listing struct {
	ListingID    string         `gorm:"column:listing_id;primaryKey" json:"listing_id"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	MaxPersons   int            `gorm:"column:max_persons" json:"max_persons"`
	Bedrooms     int            `gorm:"column:bedrooms" json:"bedrooms"`
	Beds         int            `gorm:"column:beds" json:"beds"`
	Bathrooms    float64        `gorm:"column:bathrooms;type:decimal(4,1)" json:"bathrooms"`
	BasePrice    float64        `gorm:"column:base_price;type:decimal(18,2)" json:"base_price"`
	Currency     string         `gorm:"column:currency;type:varchar(3)" json:"currency"`
	CheckInTime  string         `gorm:"column:check_in_time" json:"check_in_time"`
	CheckOutTime string         `gorm:"column:check_out_time" json:"check_out_time"`
	Timezone     string         `gorm:"column:timezone;not null;default:'UTC'" json:"timezone"`
	TaxRules     datatypes.JSON `gorm:"column:tax_rules;type:json" json:"tax_rules"`
	Terms        string         `gorm:"column:terms;type:text" json:"terms"`
	Active       bool           `gorm:"column:active;not null;default:true" json:"active"`
	LastSyncedAt time.Time      `gorm:"column:last_synced_at;not null" json:"last_synced_at"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (Listing) TableName() string {
	return "Listings"
}
