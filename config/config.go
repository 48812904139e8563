package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything one run needs: the search queries, the
// eligibility thresholds, the spreadsheet connection and the reconcile mode.
type Config struct {
	Search struct {
		BaseURL  string   `yaml:"base_url"`
		Queries  []string `yaml:"queries"`
		MaxPages int      `yaml:"max_pages"`
		Engine   string   `yaml:"engine"` // "rod" (headless browser) or "colly"
	} `yaml:"search"`

	Filters FilterConfig `yaml:"filters"`

	Sheets struct {
		SpreadsheetURL  string `yaml:"spreadsheet_url"`
		CredentialsPath string `yaml:"credentials_path"`
	} `yaml:"sheets"`

	Reconcile struct {
		Mode string `yaml:"mode"` // "upsert" (ID-keyed) or "append" (link-keyed)
	} `yaml:"reconcile"`

	Telegram struct {
		AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
	} `yaml:"telegram"`
}

// FilterConfig represents the eligibility criteria for a listing.
type FilterConfig struct {
	MinYear        int      `yaml:"min_year"`
	MaxYear        int      `yaml:"max_year"`
	MaxMileage     int      `yaml:"max_mileage"`
	AllowedDamage  []string `yaml:"allowed_damage"`
	ExcludedDamage []string `yaml:"excluded_damage"`
	ExcludedColors []string `yaml:"excluded_colors"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// GetDefaultConfig returns the configuration the service ships with.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Search.BaseURL = "https://www.iaai.com/Search"
	cfg.Search.Queries = []string{
		"Mazda CX-30",
		"Kia Seltos",
		"Toyota C-HR",
		"Kia Sportage",
		"Mazda CX-5",
		"Nissan Rogue",
		"Hyundai Creta",
		"Hyundai ix25",
		"Toyota Venza",
		"Kia Forte",
	}
	cfg.Search.MaxPages = 3
	cfg.Search.Engine = "rod"

	cfg.Filters.MinYear = 2021
	cfg.Filters.MaxYear = 2023
	cfg.Filters.MaxMileage = 60000
	cfg.Filters.AllowedDamage = []string{"front end", "rear end", "side"}
	cfg.Filters.ExcludedDamage = []string{
		"hail",
		"rollover",
		"biohazard",
		"chemical",
		"burn",
		"flood",
		"water",
		"drowning",
		"fire",
	}
	cfg.Filters.ExcludedColors = []string{"white"}

	cfg.Reconcile.Mode = "upsert"

	return cfg
}
