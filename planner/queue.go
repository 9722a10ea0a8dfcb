package planner

import "mealplanner"

// BuildDayQueue returns the days that want a dinner, in Monday to Sunday order.
// Days missing from the input are skipped.
func BuildDayQueue(mealInput map[string]mealplanner.DayInput) []string {
	queue := make([]string, 0, len(mealplanner.Days))
	for _, day := range mealplanner.Days {
		if mealInput[day].WantsDinner {
			queue = append(queue, day)
		}
	}
	return queue
}
