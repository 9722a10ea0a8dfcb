package planner

import "mealplanner"

// AggregateDay sums one day's ingredients by name and formats the totals. When a name repeats,
// the last entry's unit and category are kept.
func AggregateDay(ingredients []mealplanner.Ingredient) map[string]mealplanner.IngredientInfo {
	type total struct {
		qty      float64
		unit     string
		category mealplanner.Category
	}

	totals := map[string]*total{}
	for _, ing := range ingredients {
		t, ok := totals[ing.Name]
		if !ok {
			t = &total{}
			totals[ing.Name] = t
		}
		t.qty += ing.Quantity
		t.unit = ing.Unit
		t.category = ing.Category
	}

	out := make(map[string]mealplanner.IngredientInfo, len(totals))
	for name, t := range totals {
		out[name] = mealplanner.IngredientInfo{
			Quantity: FormatQuantity(t.qty, t.unit),
			Category: t.category,
		}
	}
	return out
}
