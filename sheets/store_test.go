package sheets

import (
	"testing"

	"iaai-scout/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			"edit URL",
			"https://docs.google.com/spreadsheets/d/1nxeatmU5hC-M_ZSqywbyareer0DOvnn2uz5FZzhVxUs/edit",
			"1nxeatmU5hC-M_ZSqywbyareer0DOvnn2uz5FZzhVxUs",
		},
		{
			"sharing URL",
			"https://docs.google.com/spreadsheets/d/1FoGJ6ZzDIfFv3ZZ6_qWSn8hzEk4tlUEAT7ClQKYRmFo/edit?usp=sharing",
			"1FoGJ6ZzDIfFv3ZZ6_qWSn8hzEk4tlUEAT7ClQKYRmFo",
		},
		{
			"bare ID after /d/",
			"https://docs.google.com/spreadsheets/d/abc123",
			"abc123",
		},
		{"not a sheets URL", "https://example.com/whatever", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSpreadsheetID(tt.url)
			if got != tt.expected {
				t.Errorf("ExtractSpreadsheetID(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestParseAppendedRow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"full row range", "Sheet1!A12:P12", 12},
		{"single cell", "Sheet1!A2", 2},
		{"large row", "Sheet1!A10345:P10345", 10345},
		{"missing sheet part", "A12:P12", 0},
		{"no digits", "Sheet1!A:P", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAppendedRow(tt.input)
			if got != tt.expected {
				t.Errorf("parseAppendedRow(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRowValues(t *testing.T) {
	listing := models.Listing{
		ID:            "41234567",
		Year:          2022,
		Model:         "MAZDA CX-30",
		Mileage:       45231,
		Damage:        "Front End",
		HasKeys:       true,
		AirbagsIntact: false,
		BuyNow:        true,
		BuyNowPrice:   "$18,500",
		Auction:       "Dallas (TX)",
		Link:          "https://www.iaai.com/VehicleDetails/41234567",
		BodyStyle:     "SUV",
		DriveLineType: "AWD",
		FuelType:      "Gasoline",
		ExteriorColor: "Gray",
		InteriorColor: "Black",
	}

	row := rowValues(listing)
	if len(row) != len(header) {
		t.Fatalf("rowValues() has %d columns, header has %d", len(row), len(header))
	}

	if row[0] != "41234567" {
		t.Errorf("ID column = %v", row[0])
	}
	if row[5] != "Yes" {
		t.Errorf("Keys column = %v, want \"Yes\"", row[5])
	}
	if row[6] != "No" {
		t.Errorf("Airbags column = %v, want \"No\"", row[6])
	}
	if row[10] != listing.Link {
		t.Errorf("Link column = %v", row[10])
	}
	if row[15] != "Black" {
		t.Errorf("Interior Color column = %v", row[15])
	}
}
