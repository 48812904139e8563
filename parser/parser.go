package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"iaai-scout/models"

	"github.com/PuerkitoBio/goquery"
)

// vehicleIDRe matches the numeric vehicle identifier embedded in a
// detail page link, e.g. /VehicleDetails/41234567~US
var vehicleIDRe = regexp.MustCompile(`/VehicleDetails/(\d+)`)

var nonDigitRe = regexp.MustCompile(`\D`)

// ExtractVehicleID returns the stable vehicle identifier from a detail
// page link, or "" when the link does not carry one. Malformed links are
// expected noise from layout drift, so there is no error here; callers
// drop listings without an ID.
func ExtractVehicleID(link string) string {
	matches := vehicleIDRe.FindStringSubmatch(link)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// Parser extracts listing data from a rendered search results page.
type Parser struct{}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// ParseHTML extracts listings from the HTML of one search results page.
// Every card yields a Listing; fields the card did not render fall back
// to zero values so a partially broken page still produces usable rows.
func (p *Parser) ParseHTML(htmlContent string) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var listings []models.Listing
	doc.Find(".search-lot-box").Each(func(i int, s *goquery.Selection) {
		if listing := p.extractListing(s); listing != nil {
			listings = append(listings, *listing)
		}
	})

	return listings, nil
}

// extractListing normalizes a single search card into a Listing.
func (p *Parser) extractListing(s *goquery.Selection) *models.Listing {
	listing := &models.Listing{}

	// Full card text for substring checks (Keys/Airbags/Buy Now are
	// rendered as plain "Label: Value" text, not dedicated elements)
	fullText := s.Text()

	link := s.Find("a[href]").First().AttrOr("href", "")
	if link != "" && !strings.HasPrefix(link, "http") {
		link = "https://www.iaai.com" + link
	}
	listing.Link = link
	listing.ID = ExtractVehicleID(link)

	listing.Year = parseInt(s.Find(".title-year").First().Text())
	listing.Model = strings.TrimSpace(s.Find(".title-make-model").First().Text())
	listing.Mileage = parseInt(s.Find(".lot-mileage").First().Text())
	listing.Damage = strings.TrimSpace(s.Find(".lot-damage-type").First().Text())

	listing.HasKeys = strings.Contains(fullText, "Keys: Yes")
	listing.AirbagsIntact = strings.Contains(fullText, "Airbags: Intact")
	listing.BuyNow = strings.Contains(fullText, "Buy Now")

	listing.BuyNowPrice = strings.TrimSpace(s.Find(".buy-now-price").First().Text())
	if listing.BuyNowPrice == "" {
		listing.BuyNowPrice = "N/A"
	}

	listing.Auction = strings.TrimSpace(s.Find(".lot-auction").First().Text())
	listing.BodyStyle = strings.TrimSpace(s.Find(".lot-body-style").First().Text())
	listing.DriveLineType = strings.TrimSpace(s.Find(".lot-drive-line-type").First().Text())
	listing.FuelType = strings.TrimSpace(s.Find(".lot-fuel-type").First().Text())
	listing.ExteriorColor = strings.TrimSpace(s.Find(".lot-color").First().Text())
	listing.InteriorColor = strings.TrimSpace(s.Find(".lot-interior-color").First().Text())

	// Only return listing if the card carried at least a link or a model
	if listing.Link != "" || listing.Model != "" {
		return listing
	}

	return nil
}

// parseInt strips every non-digit character and parses the remainder,
// so "45,231 mi" becomes 45231. Unparseable text normalizes to 0.
func parseInt(text string) int {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}
