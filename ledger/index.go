package ledger

import (
	"iter"
	"slices"
	"strings"
	"time"
)

// DefaultActiveWindow is how many days ahead an event still counts as active.
const DefaultActiveWindow = 15

// Reference is the lightweight index entry for an event.
type Reference struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	ExpenseTypes []string `json:"expenseTypes"`
	Date         string   `json:"date"`
}

// Index is a user's list of events, in creation order.
type Index struct {
	Events []Reference `json:"events"`
}

func (e Event) Reference() Reference {
	return Reference{
		ID:           e.ID,
		Name:         e.Name,
		ExpenseTypes: slices.Clone(e.ExpenseTypes),
		Date:         e.Date,
	}
}

func (ix *Index) Add(ref Reference) {
	ix.Events = append(ix.Events, ref)
}

func (ix Index) Find(id int64) (Reference, bool) {
	i := slices.IndexFunc(ix.Events, func(r Reference) bool { return r.ID == id })
	if i < 0 {
		return Reference{}, false
	}
	return ix.Events[i], true
}

// Remove drops the first entry with the given id.
func (ix *Index) Remove(id int64) (Reference, bool) {
	i := slices.IndexFunc(ix.Events, func(r Reference) bool { return r.ID == id })
	if i < 0 {
		return Reference{}, false
	}
	ref := ix.Events[i]
	ix.Events = slices.Delete(ix.Events, i, i+1)
	return ref, true
}

// DaysUntil returns the number of calendar days from today to a YYYY-MM-DD
// date. today is reduced to its calendar day in its own location.
func DaysUntil(date string, today time.Time) (int, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return 0, ErrInvalidDate
	}
	y, m, dd := today.Date()
	start := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	return int(d.Sub(start).Hours() / 24), nil
}

// Active yields, in index order, the references dated from today through
// window days ahead. Entries with unreadable dates are skipped.
func Active(refs []Reference, today time.Time, window int) iter.Seq[Reference] {
	return func(yield func(Reference) bool) {
		for _, ref := range refs {
			days, err := DaysUntil(ref.Date, today)
			if err != nil || days < 0 || days > window {
				continue
			}
			if !yield(ref) {
				return
			}
		}
	}
}
