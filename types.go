package mealplanner

import (
	"context"
	"encoding/json"
	"net/http"

	"mealplanner/tools"
)

// Days lists the canonical day names in week order.
var Days = []string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

// Assistant is the language-capable service that either answers with text or asks for tools.
type Assistant interface {
	Respond(ctx context.Context, transcript []Turn, tools []tools.Tool) (Reply, error)
}

// Extractor turns free recipe text into a structured recipe.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (ParsedRecipe, error)
}

// ImageFinder looks up an image for a recipe. An empty URL with a nil error means no image.
type ImageFinder interface {
	FindImage(ctx context.Context, recipeName string) (string, error)
}

// RelevanceJudge decides whether an image description matches a recipe.
type RelevanceJudge interface {
	IsRelevant(ctx context.Context, description string, recipeName string) (bool, error)
}

// DayInput is the per-day request configuration.
type DayInput struct {
	WantsDinner      bool `json:"wants_dinner"`
	HasLeftovers     bool `json:"has_leftovers"`
	TimeLimitMinutes int  `json:"time_limit_minutes"`
}

// UnmarshalJSON also accepts the older dinner/dinner_leftovers/dinner_time_limit field names.
func (d *DayInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		WantsDinner      *bool `json:"wants_dinner"`
		HasLeftovers     *bool `json:"has_leftovers"`
		TimeLimitMinutes *int  `json:"time_limit_minutes"`
		Dinner           *bool `json:"dinner"`
		DinnerLeftovers  *bool `json:"dinner_leftovers"`
		DinnerTimeLimit  *int  `json:"dinner_time_limit"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*d = DayInput{}
	switch {
	case raw.WantsDinner != nil:
		d.WantsDinner = *raw.WantsDinner
	case raw.Dinner != nil:
		d.WantsDinner = *raw.Dinner
	}
	switch {
	case raw.HasLeftovers != nil:
		d.HasLeftovers = *raw.HasLeftovers
	case raw.DinnerLeftovers != nil:
		d.HasLeftovers = *raw.DinnerLeftovers
	}
	switch {
	case raw.TimeLimitMinutes != nil:
		d.TimeLimitMinutes = *raw.TimeLimitMinutes
	case raw.DinnerTimeLimit != nil:
		d.TimeLimitMinutes = *raw.DinnerTimeLimit
	}
	return nil
}

// Servings is 2 when the dinner should leave leftovers, otherwise 1.
func (d DayInput) Servings() int {
	if d.HasLeftovers {
		return 2
	}
	return 1
}

// WeekRequest is the top-level run input.
type WeekRequest struct {
	MealInput map[string]DayInput `json:"meal_input"`
}

type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryProtein   Category = "protein"
	CategoryDairy     Category = "dairy"
	CategoryGrains    Category = "grains"
	CategoryPantry    Category = "pantry"
	CategoryAromatics Category = "aromatics"
)

// Categories lists the valid ingredient categories.
var Categories = []Category{
	CategoryProduce,
	CategoryProtein,
	CategoryDairy,
	CategoryGrains,
	CategoryPantry,
	CategoryAromatics,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Equipment string

const (
	EquipmentStovetop  Equipment = "stovetop"
	EquipmentOven      Equipment = "oven"
	EquipmentAirFryer  Equipment = "air_fryer"
	EquipmentMicrowave Equipment = "microwave"
	EquipmentNoCook    Equipment = "no_cook"
)

// EquipmentKinds lists the valid equipment values.
var EquipmentKinds = []Equipment{
	EquipmentStovetop,
	EquipmentOven,
	EquipmentAirFryer,
	EquipmentMicrowave,
	EquipmentNoCook,
}

func (e Equipment) Valid() bool {
	for _, v := range EquipmentKinds {
		if e == v {
			return true
		}
	}
	return false
}

// Ingredient is a single extracted ingredient before formatting.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	IsFresh  bool     `json:"is_fresh"`
	Category Category `json:"category"`
}

// ParsedRecipe is what a structured extraction returns.
type ParsedRecipe struct {
	Name                string       `json:"name"`
	Ingredients         []Ingredient `json:"ingredients"`
	Instructions        []string     `json:"instructions"`
	TimeEstimateMinutes int          `json:"time_estimate"`
	Equipment           []Equipment  `json:"equipment"`
}

// ExtractionRequest carries the recipe text and the instructions the extractor must follow.
type ExtractionRequest struct {
	RecipeText   string
	Servings     int
	Instructions string
}

// IngredientInfo is a formatted quantity plus its category. The shopping list uses the same shape.
type IngredientInfo struct {
	Quantity string   `json:"quantity"`
	Category Category `json:"category"`
}

// MealRecord is the structured dinner stored for one day.
type MealRecord struct {
	Name                string                    `json:"name"`
	Ingredients         map[string]IngredientInfo `json:"ingredients"`
	Instructions        []string                  `json:"instructions"`
	TimeEstimateMinutes int                       `json:"time_estimate"`
	Equipment           []Equipment               `json:"equipment"`
	ImageURL            string                    `json:"image_url,omitempty"`
}

// Plan is the published result of a run.
type Plan struct {
	MealOutput   map[string]MealRecord     `json:"meal_output"`
	ShoppingList map[string]IngredientInfo `json:"shopping_list"`
}

// Planner runs a full week.
type Planner interface {
	Run(ctx context.Context, mealInput map[string]DayInput) (Plan, error)
}
