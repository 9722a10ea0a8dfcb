package slack

import (
	"fmt"
	"sort"
	"strings"

	"mealplanner"
)

// FormatPlan renders a plan as Slack mrkdwn: dinners in week order, then the shopping list
// grouped by category.
func FormatPlan(plan mealplanner.Plan) string {
	var b strings.Builder

	b.WriteString("*Dinners this week*\n")
	if len(plan.MealOutput) == 0 {
		b.WriteString("_No dinners requested._\n")
	}
	for _, day := range mealplanner.Days {
		meal, ok := plan.MealOutput[day]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "• *%s*: %s", strings.ToUpper(day[:1])+day[1:], meal.Name)
		if meal.TimeEstimateMinutes > 0 {
			fmt.Fprintf(&b, " (%d min)", meal.TimeEstimateMinutes)
		}
		b.WriteString("\n")
	}

	if len(plan.ShoppingList) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	byCategory := map[mealplanner.Category][]string{}
	for name, info := range plan.ShoppingList {
		byCategory[info.Category] = append(byCategory[info.Category], fmt.Sprintf("%s: %s", name, info.Quantity))
	}

	b.WriteString("\n*Shopping list*\n")
	categories := append([]mealplanner.Category(nil), mealplanner.Categories...)
	for c := range byCategory {
		if !c.Valid() {
			categories = append(categories, c)
		}
	}
	for _, c := range categories {
		items := byCategory[c]
		if len(items) == 0 {
			continue
		}
		sort.Strings(items)
		label := string(c)
		if label == "" {
			label = "other"
		}
		fmt.Fprintf(&b, "_%s_\n", label)
		for _, item := range items {
			fmt.Fprintf(&b, "• %s\n", item)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
