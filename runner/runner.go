package runner

import (
	"errors"
	"fmt"
	"log"
	"net/url"

	"iaai-scout/config"
	"iaai-scout/filter"
	"iaai-scout/models"
	"iaai-scout/parser"
	"iaai-scout/reconciler"
	"iaai-scout/scraper"
)

// Runner drives one full pass: scrape each configured query, normalize
// and filter the cards, then reconcile the accumulated batch into the
// store exactly once. It assumes exclusive ownership of the store for
// the duration of a run; concurrent runs against one spreadsheet would
// race on the key index.
type Runner struct {
	cfg *config.Config
	scr scraper.Scraper
	rec *reconciler.Reconciler

	parser *parser.Parser
	filter *filter.Filter
}

// NewRunner wires the pipeline for one deployment. The reconcile mode
// comes from config and stays fixed for the Runner's lifetime.
func NewRunner(cfg *config.Config, scr scraper.Scraper, store reconciler.Store) (*Runner, error) {
	mode, err := reconciler.ParseMode(cfg.Reconcile.Mode)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:    cfg,
		scr:    scr,
		rec:    reconciler.New(store, mode),
		parser: parser.NewParser(),
		filter: filter.NewFilter(&cfg.Filters),
	}, nil
}

// Run executes one pass over all configured queries and returns the
// aggregated summary. A query with no results is logged and skipped; a
// store failure surfaces with whatever partial counts were applied.
func (r *Runner) Run() (models.RunSummary, error) {
	var batch []models.Listing
	dropped := 0

	for _, query := range r.cfg.Search.Queries {
		searchURL := SearchURL(r.cfg.Search.BaseURL, query)

		pages, err := r.scr.Scrape(searchURL, r.cfg.Search.MaxPages)
		if errors.Is(err, scraper.ErrNoResults) {
			log.Printf("No results for %q, skipping\n", query)
			continue
		}
		if err != nil {
			return models.RunSummary{}, fmt.Errorf("scraping %q: %w", query, err)
		}

		found := 0
		for i, html := range pages {
			listings, err := r.parser.ParseHTML(html)
			if err != nil {
				log.Printf("Warning: Failed to parse page %d for %q: %v\n", i+1, query, err)
				continue
			}

			for _, listing := range listings {
				found++
				// A card without a derivable vehicle ID is layout
				// noise, not an error
				if listing.ID == "" {
					dropped++
					continue
				}
				if !r.filter.Eligible(listing) {
					continue
				}
				batch = append(batch, listing)
			}
		}

		log.Printf("Query %q: %d cards scanned, %d eligible so far\n", query, found, len(batch))
	}

	if dropped > 0 {
		log.Printf("Dropped %d cards without a vehicle ID\n", dropped)
	}

	// One index read and one reconcile per run, so a vehicle matching
	// several query keywords is merged once
	index, err := r.rec.ReadIndex()
	if err != nil {
		return models.RunSummary{}, fmt.Errorf("reading store index: %w", err)
	}

	return r.rec.Reconcile(batch, index)
}

// SearchURL builds the keyword search URL for one query.
func SearchURL(baseURL, query string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		// Fall back to the raw base; the scraper will report the
		// navigation failure with the full URL
		return baseURL + "?Keyword=" + url.QueryEscape(query)
	}

	values := parsed.Query()
	values.Set("Keyword", query)
	parsed.RawQuery = values.Encode()

	return parsed.String()
}
