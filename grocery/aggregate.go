// Package grocery consolidates the ingredients of selected recipes into a
// shopping checklist.
//
// The consolidated list is a pure projection of its inputs and is rebuilt on
// every call. The only state that outlives a call is the set of checked
// ingredient-line ids, which the caller owns and passes in.
package grocery

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// IngredientRef is one ingredient line attached to a recipe.
type IngredientRef struct {
	OriginID string `json:"originId"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Unit     string `json:"unit"`
}

// Recipe is the aggregator's view of a recipe.
type Recipe struct {
	ID          string          `json:"id"`
	Ingredients []IngredientRef `json:"ingredients"`
}

// Quantity is a single (amount, unit) contribution. Amounts are never summed.
type Quantity struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// Entry is one consolidated, display-ready ingredient row.
type Entry struct {
	NormalizedKey string     `json:"normalizedKey"`
	DisplayName   string     `json:"displayName"`
	Quantities    []Quantity `json:"quantities"`
	OriginIDs     []string   `json:"originIds"`
	Checked       bool       `json:"checked"`
}

// NormalizeKey returns the grouping key for an ingredient name.
func NormalizeKey(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// Aggregate merges the ingredients of every recipe whose id is in selected.
//
// Entries are grouped by NormalizeKey and keep their quantities in encounter
// order. The result lists unchecked entries before fully checked ones, each
// partition ordered case-insensitively by display name.
func Aggregate(recipes []Recipe, selected IDSet, checked IDSet) []Entry {
	entries, _ := aggregate(recipes, selected, checked, nil)
	return entries
}

type group struct {
	entry   Entry
	seen    map[string]bool
	sortKey string
	order   int
}

func aggregate(recipes []Recipe, selected, checked IDSet, visit func(recipeID string, ref IngredientRef)) ([]Entry, int) {
	groups := make(map[string]*group)
	var keys []string
	participating := 0

	for _, r := range recipes {
		if !selected.Has(r.ID) {
			continue
		}
		for _, ref := range r.Ingredients {
			participating++
			if visit != nil {
				visit(r.ID, ref)
			}

			key := NormalizeKey(ref.Name)
			g, ok := groups[key]
			if !ok {
				g = &group{
					entry: Entry{
						NormalizedKey: key,
						DisplayName:   ref.Name,
					},
					seen:  make(map[string]bool),
					order: len(keys),
				}
				groups[key] = g
				keys = append(keys, key)
			}
			g.entry.Quantities = append(g.entry.Quantities, Quantity{Amount: ref.Amount, Unit: ref.Unit})
			if !g.seen[ref.OriginID] {
				g.seen[ref.OriginID] = true
				g.entry.OriginIDs = append(g.entry.OriginIDs, ref.OriginID)
			}
		}
	}

	folder := cases.Fold()
	ordered := make([]*group, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		g.entry.Checked = checked.HasAll(g.entry.OriginIDs)
		g.sortKey = folder.String(g.entry.DisplayName)
		ordered = append(ordered, g)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.entry.Checked != b.entry.Checked {
			return !a.entry.Checked
		}
		if a.sortKey != b.sortKey {
			return a.sortKey < b.sortKey
		}
		return a.order < b.order
	})

	result := make([]Entry, len(ordered))
	for i, g := range ordered {
		result[i] = g.entry
	}
	return result, participating
}
