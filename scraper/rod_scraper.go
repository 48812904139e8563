package scraper

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// waitResults is how long we give the search page to render at least
// one listing card before declaring the query empty.
const waitResults = 15 * time.Second

// RodScraper implements the Scraper interface using rod (headless
// browser). The search results are JS-rendered, so a plain HTTP fetch
// usually returns an empty shell; this is the default engine.
type RodScraper struct {
	browser *rod.Browser
}

// NewRodScraper launches a headless browser and connects to it.
func NewRodScraper() (*RodScraper, error) {
	userDataDir := os.Getenv("SCOUT_DATA_DIR")
	if userDataDir == "" {
		userDataDir = "/tmp/iaai-scout-data"
	}
	if err := os.MkdirAll(userDataDir, 0755); err != nil {
		log.Printf("Warning: Failed to create browser data directory %s: %v\n", userDataDir, err)
		userDataDir = ""
	}

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false).
		UserDataDir(userDataDir).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("mute-audio")

	// Prefer a system Chrome/Chromium over downloading one
	chromePaths := []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &RodScraper{
		browser: browser,
	}, nil
}

// Close closes the browser.
func (rs *RodScraper) Close() error {
	if rs.browser != nil {
		return rs.browser.Close()
	}
	return nil
}

// Scrape implements the Scraper interface.
func (rs *RodScraper) Scrape(url string, maxPages int) ([]string, error) {
	page := rs.browser.MustPage()
	defer page.Close()

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	page.WaitLoad()

	// Wait for the first listing card; an empty search never renders one
	if _, err := page.Timeout(waitResults).Element(".search-lot-box"); err != nil {
		return nil, ErrNoResults
	}
	page.Timeout(10 * time.Second).MustWaitStable()

	var htmlPages []string
	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}
	htmlPages = append(htmlPages, html)
	log.Printf("Scraped page %d/%d\n", len(htmlPages), maxPages)

	for len(htmlPages) < maxPages {
		nextButton, err := page.Timeout(5 * time.Second).Element("a[aria-label='Next'], button[aria-label='Next'], .btn-next")
		if err != nil {
			log.Printf("No more pages found after page %d\n", len(htmlPages))
			break
		}

		visible, _ := nextButton.Visible()
		if !visible {
			break
		}

		if err := nextButton.Click("left", 1); err != nil {
			log.Printf("Failed to click next button: %v\n", err)
			break
		}

		page.WaitLoad()
		time.Sleep(2 * time.Second)
		page.Timeout(10 * time.Second).MustWaitStable()

		html, err := page.HTML()
		if err != nil {
			log.Printf("Failed to get HTML for page %d: %v\n", len(htmlPages)+1, err)
			break
		}
		htmlPages = append(htmlPages, html)
		log.Printf("Scraped page %d/%d\n", len(htmlPages), maxPages)
	}

	return htmlPages, nil
}
