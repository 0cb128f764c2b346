package upstream

// Wire shapes for the upstream PMS API. These are mapped into local rows by
// the sync tasks, never passed through to consumers.

// APITaxRule is one tax rule as the PMS reports it on a listing.
type APITaxRule struct {
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`
	Quantifier string  `json:"quantifier"`
	AppliesTo  string  `json:"applies_to"`
}

// APIListing is the PMS listing payload.
type APIListing struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	MaxPersons   int          `json:"max_persons"`
	Bedrooms     int          `json:"bedrooms"`
	Beds         int          `json:"beds"`
	Bathrooms    float64      `json:"bathrooms"`
	BasePrice    float64      `json:"base_price"`
	Currency     string       `json:"currency"`
	CheckInTime  string       `json:"check_in_time"`
	CheckOutTime string       `json:"check_out_time"`
	Timezone     string       `json:"timezone"`
	TaxRules     []APITaxRule `json:"tax_rules"`
	Terms        string       `json:"terms"`
	Active       bool         `json:"active"`
}

// APIDay is one calendar day from the PMS availability endpoint.
type APIDay struct {
	Date              string  `json:"date"` // YYYY-MM-DD, property-local
	Status            string  `json:"status"`
	Price             float64 `json:"price"`
	MinStay           int     `json:"min_stay"`
	ClosedOnArrival   bool    `json:"closed_on_arrival"`
	ClosedOnDeparture bool    `json:"closed_on_departure"`
	BlockRef          string  `json:"block_ref,omitempty"`
	BlockType         string  `json:"block_type,omitempty"`
}

// APIGuest is the PMS guest payload.
type APIGuest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// APIReservation is the PMS reservation payload. Guest may be inlined or
// referenced by id only, depending on the endpoint.
type APIReservation struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	CheckIn     string    `json:"check_in"`  // RFC 3339 instant
	CheckOut    string    `json:"check_out"` // RFC 3339 instant
	Guest       *APIGuest `json:"guest,omitempty"`
	GuestID     string    `json:"guest_id,omitempty"`
	Adults      int       `json:"adults"`
	Children    int       `json:"children"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	Source      string    `json:"source"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

type reservationsResponse struct {
	Reservations []APIReservation `json:"reservations"`
}

type calendarResponse struct {
	Days []APIDay `json:"days"`
}
