package planner

import (
	"sort"

	"mealplanner"
)

// advisoryThreshold hides ledger totals that are only rounding noise.
const advisoryThreshold = 0.1

// Ledger is the running total of each fresh ingredient used by dinners planned so far.
type Ledger map[string]float64

type LedgerEntry struct {
	Name   string
	Amount float64
}

// Advisory lists the entries worth mentioning to the assistant, sorted by name.
func (l Ledger) Advisory() []LedgerEntry {
	var entries []LedgerEntry
	for name, amount := range l {
		if amount > advisoryThreshold {
			entries = append(entries, LedgerEntry{Name: name, Amount: amount})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Updates computes the new totals for the fresh ingredients of one day. Only touched keys are
// returned: previous total plus everything the day uses.
func (l Ledger) Updates(ingredients []mealplanner.Ingredient) map[string]float64 {
	updates := map[string]float64{}
	for _, ing := range ingredients {
		if !ing.IsFresh {
			continue
		}
		if _, seen := updates[ing.Name]; !seen {
			updates[ing.Name] = l[ing.Name]
		}
		updates[ing.Name] += ing.Quantity
	}
	return updates
}
