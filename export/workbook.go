// Package export writes a plan as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"mealplanner"
)

const (
	MealsSheet    = "Meals"
	ShoppingSheet = "Shopping List"
)

var (
	mealsHeader    = []any{"Day", "Dinner", "Minutes", "Equipment", "Ingredients", "Instructions", "Image"}
	shoppingHeader = []any{"Category", "Item", "Quantity"}
)

// WriteWorkbook writes one row per planned dinner in week order and one row per shopping item
// grouped by category.
func WriteWorkbook(w io.Writer, plan mealplanner.Plan) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MealsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ShoppingSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", ShoppingSheet, err)
	}

	if err := writeRows(f, MealsSheet, mealsHeader, mealRows(plan)); err != nil {
		return err
	}
	if err := writeRows(f, ShoppingSheet, shoppingHeader, shoppingRows(plan)); err != nil {
		return err
	}

	if err := f.SetColWidth(MealsSheet, "B", "B", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(MealsSheet, "E", "F", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(ShoppingSheet, "B", "B", 28); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func mealRows(plan mealplanner.Plan) [][]any {
	var rows [][]any
	for _, day := range mealplanner.Days {
		meal, ok := plan.MealOutput[day]
		if !ok {
			continue
		}

		names := make([]string, 0, len(meal.Ingredients))
		for name := range meal.Ingredients {
			names = append(names, name)
		}
		sort.Strings(names)
		ingredients := make([]string, 0, len(names))
		for _, name := range names {
			ingredients = append(ingredients, fmt.Sprintf("%s: %s", name, meal.Ingredients[name].Quantity))
		}

		equipment := make([]string, 0, len(meal.Equipment))
		for _, e := range meal.Equipment {
			equipment = append(equipment, string(e))
		}

		steps := make([]string, 0, len(meal.Instructions))
		for i, s := range meal.Instructions {
			steps = append(steps, fmt.Sprintf("%d. %s", i+1, s))
		}

		rows = append(rows, []any{
			strings.ToUpper(day[:1]) + day[1:],
			meal.Name,
			meal.TimeEstimateMinutes,
			strings.Join(equipment, ", "),
			strings.Join(ingredients, "\n"),
			strings.Join(steps, "\n"),
			meal.ImageURL,
		})
	}
	return rows
}

func shoppingRows(plan mealplanner.Plan) [][]any {
	order := map[mealplanner.Category]int{}
	for i, c := range mealplanner.Categories {
		order[c] = i
	}
	rank := func(c mealplanner.Category) int {
		if i, ok := order[c]; ok {
			return i
		}
		return len(order)
	}

	names := make([]string, 0, len(plan.ShoppingList))
	for name := range plan.ShoppingList {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := plan.ShoppingList[names[i]].Category, plan.ShoppingList[names[j]].Category
		if rank(ci) != rank(cj) {
			return rank(ci) < rank(cj)
		}
		if ci != cj {
			return ci < cj
		}
		return names[i] < names[j]
	})

	rows := make([][]any, 0, len(names))
	for _, name := range names {
		info := plan.ShoppingList[name]
		rows = append(rows, []any{string(info.Category), name, info.Quantity})
	}
	return rows
}
