package planner

import (
	"maps"
	"strings"

	"mealplanner"
)

// State is the run-wide record every stage reads and patches. It is owned by a single run.
type State struct {
	MealInput       map[string]mealplanner.DayInput
	DaysToProcess   []string
	CurrentDayIndex int
	Transcript      []mealplanner.Turn
	MealOutput      map[string]mealplanner.MealRecord
	ShoppingList    map[string]mealplanner.IngredientInfo
	FreshInventory  map[string]float64
}

// NewState builds the initial state for a run: normalized input, a fixed day queue and empty
// accumulators.
func NewState(mealInput map[string]mealplanner.DayInput) State {
	input := normalizeMealInput(mealInput)
	return State{
		MealInput:      input,
		DaysToProcess:  BuildDayQueue(input),
		MealOutput:     map[string]mealplanner.MealRecord{},
		ShoppingList:   map[string]mealplanner.IngredientInfo{},
		FreshInventory: map[string]float64{},
	}
}

// CurrentDay returns the day being planned, or false once the queue is exhausted.
func (s State) CurrentDay() (string, bool) {
	if s.CurrentDayIndex < 0 || s.CurrentDayIndex >= len(s.DaysToProcess) {
		return "", false
	}
	return s.DaysToProcess[s.CurrentDayIndex], true
}

// Patch is a partial update produced by one stage. Nil fields leave state untouched.
type Patch struct {
	CurrentDayIndex *int
	Transcript      []mealplanner.Turn
	// ResetTranscript replaces the transcript with Transcript instead of appending to it.
	ResetTranscript bool
	MealOutput      map[string]mealplanner.MealRecord
	ShoppingList    map[string]mealplanner.IngredientInfo
	FreshInventory  map[string]float64
}

// Field names a State field that has a reducer.
type Field string

const (
	FieldCurrentDayIndex Field = "current_day_index"
	FieldTranscript      Field = "transcript"
	FieldMealOutput      Field = "meal_output"
	FieldShoppingList    Field = "shopping_list"
	FieldFreshInventory  Field = "fresh_inventory"
)

// Reducer folds one field of a patch into the state and returns the new state.
type Reducer func(s State, p Patch) State

// Reducers is the per-field merge table used by Apply, in application order.
// meal_input and days_to_process have no reducer: they are fixed once the run starts.
var Reducers = []struct {
	Field  Field
	Reduce Reducer
}{
	{FieldCurrentDayIndex, reduceDayIndex},
	{FieldTranscript, reduceTranscript},
	{FieldMealOutput, func(s State, p Patch) State {
		s.MealOutput = MergeMap(s.MealOutput, p.MealOutput)
		return s
	}},
	{FieldShoppingList, func(s State, p Patch) State {
		s.ShoppingList = MergeMap(s.ShoppingList, p.ShoppingList)
		return s
	}},
	{FieldFreshInventory, func(s State, p Patch) State {
		s.FreshInventory = MergeMap(s.FreshInventory, p.FreshInventory)
		return s
	}},
}

// Apply merges a patch into the state through the reducer table.
func Apply(s State, p Patch) State {
	for _, r := range Reducers {
		s = r.Reduce(s, p)
	}
	return s
}

// MergeMap is a right-biased union: keys in update overwrite prev, all other keys persist.
// Neither argument is modified.
func MergeMap[K comparable, V any](prev, update map[K]V) map[K]V {
	if update == nil {
		return prev
	}
	out := make(map[K]V, len(prev)+len(update))
	maps.Copy(out, prev)
	maps.Copy(out, update)
	return out
}

// reduceDayIndex only moves forward.
func reduceDayIndex(s State, p Patch) State {
	if p.CurrentDayIndex != nil && *p.CurrentDayIndex > s.CurrentDayIndex {
		s.CurrentDayIndex = *p.CurrentDayIndex
	}
	return s
}

func reduceTranscript(s State, p Patch) State {
	if p.ResetTranscript {
		s.Transcript = append([]mealplanner.Turn(nil), p.Transcript...)
		return s
	}
	if len(p.Transcript) == 0 {
		return s
	}
	out := make([]mealplanner.Turn, 0, len(s.Transcript)+len(p.Transcript))
	out = append(out, s.Transcript...)
	s.Transcript = append(out, p.Transcript...)
	return s
}

// normalizeMealInput lower-cases day keys so "Monday" and "monday" mean the same day.
func normalizeMealInput(in map[string]mealplanner.DayInput) map[string]mealplanner.DayInput {
	out := make(map[string]mealplanner.DayInput, len(in))
	for day, cfg := range in {
		out[strings.ToLower(strings.TrimSpace(day))] = cfg
	}
	return out
}
