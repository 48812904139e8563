package reconciler

import (
	"errors"
	"testing"

	"iaai-scout/models"
)

// fakeStore keeps rows in memory, numbered like sheet rows (data starts
// at row 2 under the header).
type fakeStore struct {
	rows    map[int]models.Listing
	nextRow int

	failAfterWrites int // -1 means never fail
	writes          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:            make(map[int]models.Listing),
		nextRow:         2,
		failAfterWrites: -1,
	}
}

func (f *fakeStore) ReadIDIndex() (map[string]int, error) {
	index := make(map[string]int)
	for row, l := range f.rows {
		index[l.ID] = row
	}
	return index, nil
}

func (f *fakeStore) ReadLinkIndex() (map[string]int, error) {
	index := make(map[string]int)
	for row, l := range f.rows {
		index[l.Link] = row
	}
	return index, nil
}

func (f *fakeStore) Append(listing models.Listing) (int, error) {
	if f.failAfterWrites >= 0 && f.writes >= f.failAfterWrites {
		return 0, errors.New("append failed")
	}
	f.writes++
	row := f.nextRow
	f.nextRow++
	f.rows[row] = listing
	return row, nil
}

func (f *fakeStore) Update(row int, listing models.Listing) error {
	if f.failAfterWrites >= 0 && f.writes >= f.failAfterWrites {
		return errors.New("update failed")
	}
	f.writes++
	if _, ok := f.rows[row]; !ok {
		return errors.New("update of nonexistent row")
	}
	f.rows[row] = listing
	return nil
}

func listing(id string, mileage int) models.Listing {
	return models.Listing{
		ID:      id,
		Year:    2022,
		Model:   "MAZDA CX-30",
		Mileage: mileage,
		Link:    "https://www.iaai.com/VehicleDetails/" + id,
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"upsert", ModeUpsert, false},
		{"append", ModeAppendOnly, false},
		{"", "", true},
		{"merge", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestReconcileInsertsNewListings(t *testing.T) {
	store := newFakeStore()
	rec := New(store, ModeUpsert)

	batch := []models.Listing{listing("100", 40000), listing("200", 45000)}
	index, _ := rec.ReadIndex()

	summary, err := rec.Reconcile(batch, index)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Added != 2 || summary.Updated != 0 || summary.TotalEligible != 2 {
		t.Errorf("summary = %+v, want {Added:2 Updated:0 TotalEligible:2}", summary)
	}
	if len(store.rows) != 2 {
		t.Errorf("store has %d rows, want 2", len(store.rows))
	}
}

func TestReconcileIdempotent(t *testing.T) {
	store := newFakeStore()
	rec := New(store, ModeUpsert)

	batch := []models.Listing{listing("100", 40000), listing("200", 45000)}

	index, _ := rec.ReadIndex()
	if _, err := rec.Reconcile(batch, index); err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}

	// Second pass with a freshly read index and the same batch must not
	// duplicate any row
	index, _ = rec.ReadIndex()
	summary, err := rec.Reconcile(batch, index)
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if summary.Added != 0 {
		t.Errorf("second pass Added = %d, want 0", summary.Added)
	}
	if summary.Updated != 2 {
		t.Errorf("second pass Updated = %d, want 2", summary.Updated)
	}
	if len(store.rows) != 2 {
		t.Errorf("store has %d rows after second pass, want 2", len(store.rows))
	}
}

func TestReconcileUpdatesChangedFields(t *testing.T) {
	store := newFakeStore()
	rec := New(store, ModeUpsert)

	index, _ := rec.ReadIndex()
	if _, err := rec.Reconcile([]models.Listing{listing("100", 40000)}, index); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// Mileage drifted between runs; the update is a full-row overwrite
	index, _ = rec.ReadIndex()
	summary, err := rec.Reconcile([]models.Listing{listing("100", 42000)}, index)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}
	if got := store.rows[2].Mileage; got != 42000 {
		t.Errorf("stored mileage = %d, want 42000", got)
	}
}

func TestReconcileDuplicateInBatch(t *testing.T) {
	store := newFakeStore()
	rec := New(store, ModeUpsert)

	// The same vehicle encountered under two query keywords; the later
	// occurrence wins
	batch := []models.Listing{listing("100", 40000), listing("100", 41000)}
	index, _ := rec.ReadIndex()

	summary, err := rec.Reconcile(batch, index)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Added != 1 || summary.Updated != 1 {
		t.Errorf("summary = %+v, want Added:1 Updated:1", summary)
	}
	if len(store.rows) != 1 {
		t.Fatalf("store has %d rows, want 1", len(store.rows))
	}
	if got := store.rows[2].Mileage; got != 41000 {
		t.Errorf("stored mileage = %d, want 41000 (second occurrence)", got)
	}
}

func TestReconcileAppendOnlySkipsSeenLinks(t *testing.T) {
	store := newFakeStore()
	seen := listing("100", 40000)
	store.rows[2] = seen
	store.nextRow = 3

	rec := New(store, ModeAppendOnly)
	index, _ := rec.ReadIndex()

	// Seen listing carries drifted mileage; append-only mode must not
	// touch the stored row
	drifted := listing("100", 99)
	fresh := listing("200", 45000)

	summary, err := rec.Reconcile([]models.Listing{drifted, fresh}, index)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Added != 1 || summary.Updated != 0 {
		t.Errorf("summary = %+v, want Added:1 Updated:0", summary)
	}
	if got := store.rows[2].Mileage; got != 40000 {
		t.Errorf("stored mileage = %d, want untouched 40000", got)
	}
	if len(store.rows) != 2 {
		t.Errorf("store has %d rows, want 2", len(store.rows))
	}
}

func TestReconcileAppendOnlyDeduplicatesWithinBatch(t *testing.T) {
	store := newFakeStore()
	rec := New(store, ModeAppendOnly)

	dup := listing("100", 40000)
	index, _ := rec.ReadIndex()

	summary, err := rec.Reconcile([]models.Listing{dup, dup}, index)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Added != 1 {
		t.Errorf("Added = %d, want 1", summary.Added)
	}
	if len(store.rows) != 1 {
		t.Errorf("store has %d rows, want 1", len(store.rows))
	}
}

func TestReconcilePartialFailure(t *testing.T) {
	store := newFakeStore()
	store.failAfterWrites = 1

	rec := New(store, ModeUpsert)
	batch := []models.Listing{listing("100", 40000), listing("200", 45000), listing("300", 50000)}
	index, _ := rec.ReadIndex()

	summary, err := rec.Reconcile(batch, index)
	if err == nil {
		t.Fatal("Reconcile() error = nil, want failure")
	}
	// The first row stands; the summary counts only applied writes
	if summary.Added != 1 {
		t.Errorf("Added = %d, want 1", summary.Added)
	}
	if summary.TotalEligible != 3 {
		t.Errorf("TotalEligible = %d, want 3", summary.TotalEligible)
	}
	if len(store.rows) != 1 {
		t.Errorf("store has %d rows, want 1", len(store.rows))
	}
}
