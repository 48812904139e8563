package filter

import (
	"strings"

	"iaai-scout/config"
	"iaai-scout/models"
)

// Filter decides whether a listing is worth keeping. Every check is a
// pure function of the listing and the configured criteria.
type Filter struct {
	cfg *config.FilterConfig
}

// NewFilter creates a new Filter instance.
func NewFilter(cfg *config.FilterConfig) *Filter {
	return &Filter{
		cfg: cfg,
	}
}

// ApplyFilters returns the listings that pass every eligibility check.
func (f *Filter) ApplyFilters(listings []models.Listing) []models.Listing {
	var filtered []models.Listing

	for _, listing := range listings {
		if f.Eligible(listing) {
			filtered = append(filtered, listing)
		}
	}

	return filtered
}

// Eligible reports whether a listing passes all criteria.
func (f *Filter) Eligible(listing models.Listing) bool {
	return f.yearInRange(listing) &&
		f.underMileageCap(listing) &&
		listing.HasKeys &&
		listing.AirbagsIntact &&
		f.damageAcceptable(listing) &&
		f.colorAllowed(listing)
}

func (f *Filter) yearInRange(listing models.Listing) bool {
	return listing.Year >= f.cfg.MinYear && listing.Year <= f.cfg.MaxYear
}

// underMileageCap requires a positive mileage under the cap. Zero means
// the card's mileage text failed to parse, and an unknown mileage must
// not pass a mileage ceiling.
func (f *Filter) underMileageCap(listing models.Listing) bool {
	return listing.Mileage > 0 && listing.Mileage <= f.cfg.MaxMileage
}

// damageAcceptable rejects any excluded damage cause outright, then
// accepts only descriptions naming an allowed damage location. The
// excluded list wins when a description matches both.
func (f *Filter) damageAcceptable(listing models.Listing) bool {
	damage := strings.ToLower(listing.Damage)

	for _, term := range f.cfg.ExcludedDamage {
		if strings.Contains(damage, strings.ToLower(term)) {
			return false
		}
	}

	for _, term := range f.cfg.AllowedDamage {
		if strings.Contains(damage, strings.ToLower(term)) {
			return true
		}
	}

	return false
}

func (f *Filter) colorAllowed(listing models.Listing) bool {
	color := strings.ToLower(listing.ExteriorColor)

	for _, excluded := range f.cfg.ExcludedColors {
		if strings.Contains(color, strings.ToLower(excluded)) {
			return false
		}
	}

	return true
}
