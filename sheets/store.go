package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"iaai-scout/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const sheetName = "Sheet1"

// Column layout A..P. ID is the reconcile key in upsert mode, Link in
// append mode.
var header = []interface{}{
	"ID", "Year", "Model", "Mileage", "Damage", "Keys", "Airbags",
	"Buy Now", "Buy Now Price", "Auction", "Link", "Body Style",
	"Drive Line Type", "Fuel Type", "Exterior Color", "Interior Color",
}

// Store is the persisted listing table backed by one Google Sheets tab.
type Store struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewStore creates a Google Sheets backed store. Credentials come from
// the given file path, or from the GOOGLE_SHEETS_CREDENTIALS environment
// variable when the path is empty.
func NewStore(spreadsheetID string, credentialsPath string) (*Store, error) {
	ctx := context.Background()

	var credsJSON []byte
	var err error

	if credentialsPath != "" {
		credsJSON, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Store{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// EnsureHeader writes the header row if the sheet is empty.
func (s *Store) EnsureHeader() error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheetName+"!A1:P1").Do()
	if err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{header},
	}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, sheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	log.Println("Wrote header row to empty sheet")
	return nil
}

// ReadIDIndex reads the ID column and returns a vehicle ID to sheet row
// mapping. Rows are 1-based; data starts at row 2 under the header.
func (s *Store) ReadIDIndex() (map[string]int, error) {
	return s.readKeyColumn("A")
}

// ReadLinkIndex reads the Link column and returns a link to sheet row
// mapping, for append-only deployments keyed by detail link.
func (s *Store) ReadLinkIndex() (map[string]int, error) {
	return s.readKeyColumn("K")
}

func (s *Store) readKeyColumn(column string) (map[string]int, error) {
	range_ := fmt.Sprintf("%s!%s2:%s", sheetName, column, column)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, range_).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read existing keys: %w", err)
	}

	index := make(map[string]int)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		key := strings.TrimSpace(fmt.Sprintf("%v", row[0]))
		if key != "" {
			index[key] = i + 2
		}
	}

	return index, nil
}

// Append adds a new row after the existing data and returns the sheet
// row it landed on.
func (s *Store) Append(listing models.Listing) (int, error) {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{rowValues(listing)},
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, sheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to append row: %w", err)
	}

	row := parseAppendedRow(resp.Updates.UpdatedRange)
	if row == 0 {
		return 0, fmt.Errorf("could not determine appended row from range %q", resp.Updates.UpdatedRange)
	}

	return row, nil
}

// Update overwrites all fields of an existing row with the listing's
// current values.
func (s *Store) Update(row int, listing models.Listing) error {
	range_ := fmt.Sprintf("%s!A%d:P%d", sheetName, row, row)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{rowValues(listing)},
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, range_, valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to update row %d: %w", row, err)
	}

	return nil
}

// rowValues projects a listing onto the sheet's column layout.
func rowValues(listing models.Listing) []interface{} {
	return []interface{}{
		listing.ID,
		listing.Year,
		listing.Model,
		listing.Mileage,
		listing.Damage,
		yesNo(listing.HasKeys),
		yesNo(listing.AirbagsIntact),
		yesNo(listing.BuyNow),
		listing.BuyNowPrice,
		listing.Auction,
		listing.Link,
		listing.BodyStyle,
		listing.DriveLineType,
		listing.FuelType,
		listing.ExteriorColor,
		listing.InteriorColor,
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// parseAppendedRow extracts the row number from an updated range like
// "Sheet1!A12:P12". Returns 0 when the range is not in that shape.
func parseAppendedRow(updatedRange string) int {
	parts := strings.Split(updatedRange, "!")
	if len(parts) < 2 {
		return 0
	}
	cell := strings.Split(parts[1], ":")[0]
	digits := strings.TrimLeft(cell, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return row
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets
// URL such as https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit.
func ExtractSpreadsheetID(url string) string {
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
