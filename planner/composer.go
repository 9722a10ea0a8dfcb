package planner

import (
	"fmt"
	"strings"

	"mealplanner"
)

// Request is what the composer decided for one day.
type Request struct {
	Day              string
	Servings         int
	TimeLimitMinutes int
	Advisory         []LedgerEntry
	PlannedMeals     []string
}

// Composer builds the opening turns of a day's conversation.
type Composer struct {
	DefaultTimeLimit int
}

// Compose builds the system and human turns for the current day. It reads the ledger and the
// meals planned so far; it never changes state.
func (c Composer) Compose(s State) ([]mealplanner.Turn, Request) {
	day, _ := s.CurrentDay()
	input := s.MealInput[day]

	req := Request{
		Day:              day,
		Servings:         input.Servings(),
		TimeLimitMinutes: input.TimeLimitMinutes,
		Advisory:         Ledger(s.FreshInventory).Advisory(),
		PlannedMeals:     plannedMeals(s),
	}
	if req.TimeLimitMinutes <= 0 {
		req.TimeLimitMinutes = c.DefaultTimeLimit
	}

	return []mealplanner.Turn{
		mealplanner.SystemTurn(systemPrompt(req)),
		mealplanner.HumanTurn(humanPrompt(req)),
	}, req
}

// plannedMeals returns the names already chosen, in queue order.
func plannedMeals(s State) []string {
	var names []string
	for _, day := range s.DaysToProcess {
		if meal, ok := s.MealOutput[day]; ok && meal.Name != "" {
			names = append(names, meal.Name)
		}
	}
	return names
}

func systemPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are a helpful meal planning assistant. Your task is to find and suggest a dinner recipe.\n\n")
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "- The recipe must take %d minutes or less total (prep + cooking time)\n", req.TimeLimitMinutes)
	fmt.Fprintf(&b, "- The recipe should serve %d person(s)\n", req.Servings)
	b.WriteString("- Choose recipes with commonly available ingredients\n")
	b.WriteString("- Prefer simple, home-cooked meals")

	if len(req.Advisory) > 0 {
		b.WriteString("\n\nIMPORTANT - Dinners planned earlier this week already use these fresh ingredients, ")
		b.WriteString("so part of each package will be left over and should be used up to avoid waste. ")
		b.WriteString("STRONGLY prefer recipes that use these ingredients:\n")
		for i, e := range req.Advisory {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- %s: %.2f", e.Name, e.Amount)
		}
	}

	if len(req.PlannedMeals) > 0 {
		b.WriteString("\n\nThese dinners are already planned for this week. Choose a different recipe:\n")
		for i, name := range req.PlannedMeals {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "- %s", name)
		}
	}

	b.WriteString("\n\nUse the recipe_search tool to find a recipe, then provide complete details including:\n")
	b.WriteString("- Recipe name\n")
	b.WriteString("- Full ingredient list with quantities\n")
	b.WriteString("- Step-by-step cooking instructions")
	return b.String()
}

func humanPrompt(req Request) string {
	return fmt.Sprintf("Find a dinner recipe for %s that takes %d minutes or less.\n"+
		"Search for a recipe and provide the complete details.", displayDay(req.Day), req.TimeLimitMinutes)
}

// displayDay capitalizes a canonical day name.
func displayDay(day string) string {
	if day == "" {
		return day
	}
	return strings.ToUpper(day[:1]) + day[1:]
}
