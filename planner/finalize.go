package planner

import (
	"maps"

	"mealplanner"
)

// Finalize exports the public result of a finished run. The transcript and the fresh ledger
// stay internal.
func Finalize(s State) mealplanner.Plan {
	plan := mealplanner.Plan{
		MealOutput:   make(map[string]mealplanner.MealRecord, len(s.MealOutput)),
		ShoppingList: make(map[string]mealplanner.IngredientInfo, len(s.ShoppingList)),
	}
	maps.Copy(plan.MealOutput, s.MealOutput)
	maps.Copy(plan.ShoppingList, s.ShoppingList)
	return plan
}
