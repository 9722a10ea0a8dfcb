package planner

import "mealplanner"

// Observer receives progress events from a run. Calls happen on the run's goroutine.
type Observer interface {
	DayStarted(day string, index, total int)
	DayCompleted(day string, index, total int, meal mealplanner.MealRecord)
	RunCompleted(plan mealplanner.Plan)
}

type nopObserver struct{}

func (nopObserver) DayStarted(string, int, int) {}
func (nopObserver) DayCompleted(string, int, int, mealplanner.MealRecord) {}
func (nopObserver) RunCompleted(mealplanner.Plan) {}
