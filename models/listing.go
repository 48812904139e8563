package models

// Listing represents one scraped auction vehicle, normalized from its
// search result card. Fields the page did not render are zero values;
// BuyNowPrice falls back to "N/A".
type Listing struct {
	ID            string // stable vehicle identifier parsed from the detail link
	Year          int
	Model         string
	Mileage       int
	Damage        string
	HasKeys       bool
	AirbagsIntact bool
	BuyNow        bool
	BuyNowPrice   string
	Auction       string
	Link          string

	// Secondary descriptors from the card footer
	BodyStyle     string
	DriveLineType string
	FuelType      string
	ExteriorColor string
	InteriorColor string
}

// RunSummary reports the outcome of one reconciliation run.
type RunSummary struct {
	Added         int
	Updated       int
	TotalEligible int
}
