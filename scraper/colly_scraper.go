package scraper

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyScraper implements the Scraper interface with plain HTTP
// fetches. Useful where no browser is available, but the search page
// must be server-rendered for it to see any cards.
type CollyScraper struct {
	collector *colly.Collector
}

// NewCollyScraper creates a new CollyScraper instance.
func NewCollyScraper() *CollyScraper {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*iaai.*",
		Parallelism: 1,
		Delay:       4 * time.Second,
	})

	return &CollyScraper{
		collector: c,
	}
}

// Close implements the Scraper interface; colly holds no resources
// beyond its HTTP client.
func (cs *CollyScraper) Close() error {
	return nil
}

// Scrape implements the Scraper interface. The collector is cloned per
// call so callbacks from earlier queries don't pile up.
func (cs *CollyScraper) Scrape(url string, maxPages int) ([]string, error) {
	var htmlPages []string
	visited := make(map[string]bool)

	c := cs.collector.Clone()

	c.OnError(func(r *colly.Response, err error) {
		log.Printf("Error fetching %s: %v\n", r.Request.URL, err)
	})

	c.OnResponse(func(r *colly.Response) {
		urlStr := r.Request.URL.String()
		if visited[urlStr] {
			return
		}
		visited[urlStr] = true
		htmlPages = append(htmlPages, string(r.Body))
		log.Printf("Fetched page %d/%d: %s\n", len(htmlPages), maxPages, urlStr)
	})

	// Follow pagination links until maxPages; duplicates are filtered
	// by the visited map
	c.OnHTML("nav[aria-label='pagination'] a, .paging a", func(e *colly.HTMLElement) {
		if len(htmlPages) >= maxPages {
			return
		}

		nextURL := e.Attr("href")
		if nextURL == "" {
			return
		}
		if strings.HasPrefix(nextURL, "/") {
			nextURL = "https://www.iaai.com" + nextURL
		}
		if visited[nextURL] {
			return
		}

		c.Visit(nextURL)
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("failed to visit URL: %w", err)
	}
	c.Wait()

	if len(htmlPages) == 0 {
		return nil, ErrNoResults
	}

	// The listing cards are JS-rendered on most IAAI deployments; warn
	// when the fetched pages carry none so the empty run is explainable
	found := false
	for _, html := range htmlPages {
		if strings.Contains(html, "search-lot-box") {
			found = true
			break
		}
	}
	if !found {
		log.Println("Warning: No listing cards in fetched HTML. IAAI may require the browser engine (search.engine: rod).")
	}

	return htmlPages, nil
}
