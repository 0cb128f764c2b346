package domain

import "time"

// Document kinds. Both kinds draw from the same per-year number sequence so a
// quote and the invoice later generated for the same reservation carry
// matching digits behind different display prefixes.
const (
	DocumentKindQuote   = "quote"
	DocumentKindInvoice = "invoice"
)

// Document is a generated quote or invoice for a reservation. Rows are
// deleted by the Reconciler before their reservation (foreign-key safety).
type Document struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ReservationID string    `gorm:"column:reservation_id;not null;uniqueIndex:idx_reservation_kind,priority:1" json:"reservation_id"`
	Kind          string    `gorm:"column:kind;type:varchar(10);not null;uniqueIndex:idx_reservation_kind,priority:2" json:"kind"`
	Number        int       `gorm:"column:number;not null" json:"number"`
	DisplayNumber string    `gorm:"column:display_number;not null" json:"display_number"`
	Year          int       `gorm:"column:year;not null" json:"year"`
	IssuedAt      time.Time `gorm:"column:issued_at;not null" json:"issued_at"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Document) TableName() string {
	return "Documents"
}

// DocumentSequence is the per-(year, group) monotonic counter behind document
// numbering. Increment-and-read happens in one transaction.
type DocumentSequence struct {
	ID    uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Year  int    `gorm:"column:year;not null;uniqueIndex:idx_year_group,priority:1" json:"year"`
	Group string `gorm:"column:seq_group;type:varchar(20);not null;uniqueIndex:idx_year_group,priority:2" json:"group"`
	Value int    `gorm:"column:value;not null;default:0" json:"value"`
}

func (DocumentSequence) TableName() string {
	return "DocumentSequences"
}
