package scraper

import "errors"

// ErrNoResults means the search page rendered no listing cards within
// the wait timeout. Callers treat this as "no results for this query",
// not as a failed run.
var ErrNoResults = errors.New("no listings rendered within timeout")

// Scraper fetches search result pages for one query URL and returns
// their HTML, one string per page, up to maxPages.
type Scraper interface {
	Scrape(url string, maxPages int) ([]string, error)

	// Close releases the underlying browser or transport.
	Close() error
}
