package reconciler

import (
	"fmt"
	"log"

	"iaai-scout/models"
)

// Store is the keyed row table the eligible batch merges into. Append
// returns the row the new record landed on so in-batch duplicates can be
// routed to the update path.
type Store interface {
	ReadIDIndex() (map[string]int, error)
	ReadLinkIndex() (map[string]int, error)
	Append(listing models.Listing) (int, error)
	Update(row int, listing models.Listing) error
}

// Mode selects the reconciliation semantics for a deployment. A store
// must always be driven with the same mode; mixing them would duplicate
// rows.
type Mode string

const (
	// ModeUpsert keys rows by vehicle ID: update the row when the ID is
	// known, append otherwise.
	ModeUpsert Mode = "upsert"

	// ModeAppendOnly keys rows by detail link: skip listings whose link
	// is already stored, append the rest. No update path.
	ModeAppendOnly Mode = "append"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUpsert, ModeAppendOnly:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown reconcile mode %q (want %q or %q)", s, ModeUpsert, ModeAppendOnly)
}

// Reconciler merges an eligible batch into the store without producing
// duplicate rows. It owns the Listing-to-row translation but not the
// store itself.
type Reconciler struct {
	store Store
	mode  Mode
}

// New creates a Reconciler driving the store in the given mode.
func New(store Store, mode Mode) *Reconciler {
	return &Reconciler{
		store: store,
		mode:  mode,
	}
}

// ReadIndex reads the key-to-row index for this Reconciler's mode. The
// index must be read at the start of a run and not shared across
// concurrent runs; a stale index would append rows that already exist.
func (r *Reconciler) ReadIndex() (map[string]int, error) {
	if r.mode == ModeAppendOnly {
		return r.store.ReadLinkIndex()
	}
	return r.store.ReadIDIndex()
}

// Reconcile applies the batch to the store in encounter order. Every
// listing must carry a non-empty ID. Writes are independent operations:
// a failed write does not roll back earlier rows, and the summary
// returned alongside the error counts only the rows that were applied.
func (r *Reconciler) Reconcile(batch []models.Listing, index map[string]int) (models.RunSummary, error) {
	summary := models.RunSummary{TotalEligible: len(batch)}

	for _, listing := range batch {
		key := listing.ID
		if r.mode == ModeAppendOnly {
			key = listing.Link
		}

		row, seen := index[key]
		switch {
		case seen && r.mode == ModeAppendOnly:
			// Link already stored, nothing to refresh in this mode
			continue
		case seen:
			if err := r.store.Update(row, listing); err != nil {
				return summary, fmt.Errorf("updating row %d for vehicle %s: %w", row, listing.ID, err)
			}
			summary.Updated++
		default:
			newRow, err := r.store.Append(listing)
			if err != nil {
				return summary, fmt.Errorf("appending vehicle %s: %w", listing.ID, err)
			}
			// Later occurrences of this key in the batch now update
			// the row we just wrote instead of appending again
			index[key] = newRow
			summary.Added++
		}
	}

	log.Printf("Reconciled batch: %d added, %d updated of %d eligible\n",
		summary.Added, summary.Updated, summary.TotalEligible)

	return summary, nil
}
