package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"mealplanner"
)

var (
	// ErrNoAssistantOutput means the transcript held no assistant text to extract from.
	ErrNoAssistantOutput = errors.New("no assistant output")
	// ErrExtraction means structured extraction failed or returned an invalid recipe.
	ErrExtraction = errors.New("recipe extraction failed")
)

// Outcome is the normalized result for one day.
type Outcome struct {
	Meal mealplanner.MealRecord
	// Retained holds the canonical, non-staple ingredients behind Meal.Ingredients.
	Retained []mealplanner.Ingredient
	// Fallback is nil for an extracted meal, otherwise wraps ErrNoAssistantOutput or ErrExtraction.
	Fallback error
}

// Normalizer turns a day's transcript into a meal record.
type Normalizer struct {
	extractor   mealplanner.Extractor
	images      mealplanner.ImageFinder
	staples     StapleSet
	callTimeout time.Duration
}

// NewNormalizer creates a normalizer. images may be nil to skip image lookup.
func NewNormalizer(extractor mealplanner.Extractor, images mealplanner.ImageFinder, staples []string, callTimeout time.Duration) *Normalizer {
	return &Normalizer{
		extractor:   extractor,
		images:      images,
		staples:     NewStapleSet(staples),
		callTimeout: callTimeout,
	}
}

// Normalize extracts the day's meal from the latest assistant text. Failures degrade to a
// placeholder meal; the only error returned is cancellation of ctx.
func (n *Normalizer) Normalize(ctx context.Context, req Request, transcript []mealplanner.Turn) (Outcome, error) {
	text, ok := latestAssistantText(transcript)
	if !ok {
		slog.Warn("NORMALIZER: No assistant output, using placeholder meal", "day", req.Day)
		return noOutputFallback(req), nil
	}

	parsed, err := n.extract(ctx, text, req.Servings)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		slog.Error("NORMALIZER: Recipe extraction failed, using placeholder meal", "day", req.Day, "error", err)
		return extractionFallback(req, err), nil
	}

	retained := make([]mealplanner.Ingredient, 0, len(parsed.Ingredients))
	for _, ing := range parsed.Ingredients {
		if n.staples.Contains(ing.Name) {
			slog.Debug("NORMALIZER: Dropping staple", "day", req.Day, "ingredient", ing.Name)
			continue
		}
		retained = append(retained, ing)
	}

	timeEstimate := parsed.TimeEstimateMinutes
	if timeEstimate <= 0 {
		timeEstimate = req.TimeLimitMinutes
	}

	meal := mealplanner.MealRecord{
		Name:                parsed.Name,
		Ingredients:         AggregateDay(retained),
		Instructions:        parsed.Instructions,
		TimeEstimateMinutes: timeEstimate,
		Equipment:           parsed.Equipment,
	}
	meal.ImageURL = n.findImage(ctx, req.Day, meal.Name)

	return Outcome{Meal: meal, Retained: retained}, nil
}

func (n *Normalizer) extract(ctx context.Context, text string, servings int) (mealplanner.ParsedRecipe, error) {
	if n.extractor == nil {
		return mealplanner.ParsedRecipe{}, fmt.Errorf("%w: no extractor configured", ErrExtraction)
	}

	callCtx, cancel := withCallTimeout(ctx, n.callTimeout)
	defer cancel()

	parsed, err := n.extractor.Extract(callCtx, mealplanner.ExtractionRequest{
		RecipeText:   text,
		Servings:     servings,
		Instructions: ExtractionInstructions(servings),
	})
	if err != nil {
		return mealplanner.ParsedRecipe{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	parsed, err = canonicalizeRecipe(parsed)
	if err != nil {
		return mealplanner.ParsedRecipe{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return parsed, nil
}

// findImage never fails the meal: any error means no image.
func (n *Normalizer) findImage(ctx context.Context, day, recipe string) string {
	if n.images == nil || recipe == "" {
		return ""
	}

	callCtx, cancel := withCallTimeout(ctx, n.callTimeout)
	defer cancel()

	url, err := n.images.FindImage(callCtx, recipe)
	if err != nil {
		slog.Warn("NORMALIZER: Image lookup failed", "day", day, "recipe", recipe, "error", err)
		return ""
	}
	return url
}

// canonicalizeRecipe normalizes names and enums and rejects recipes that do not fit the schema.
func canonicalizeRecipe(r mealplanner.ParsedRecipe) (mealplanner.ParsedRecipe, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return r, errors.New("recipe has no name")
	}
	if r.TimeEstimateMinutes < 0 {
		return r, fmt.Errorf("negative time estimate %d", r.TimeEstimateMinutes)
	}

	ingredients := make([]mealplanner.Ingredient, 0, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Name = CanonicalName(ing.Name)
		if ing.Name == "" {
			return r, fmt.Errorf("ingredient %d has no name", i)
		}
		if math.IsNaN(ing.Quantity) || math.IsInf(ing.Quantity, 0) || ing.Quantity < 0 {
			return r, fmt.Errorf("ingredient %q has invalid quantity %v", ing.Name, ing.Quantity)
		}
		ing.Unit = strings.TrimSpace(ing.Unit)
		ing.Category = mealplanner.Category(strings.ToLower(strings.TrimSpace(string(ing.Category))))
		if !ing.Category.Valid() {
			return r, fmt.Errorf("ingredient %q has unknown category %q", ing.Name, ing.Category)
		}
		ingredients = append(ingredients, ing)
	}
	r.Ingredients = ingredients

	equipment := make([]mealplanner.Equipment, 0, len(r.Equipment))
	for _, e := range r.Equipment {
		e = mealplanner.Equipment(CanonicalName(string(e)))
		if !e.Valid() {
			return r, fmt.Errorf("unknown equipment %q", e)
		}
		equipment = append(equipment, e)
	}
	r.Equipment = equipment

	instructions := make([]string, 0, len(r.Instructions))
	for _, step := range r.Instructions {
		if step = strings.TrimSpace(step); step != "" {
			instructions = append(instructions, step)
		}
	}
	r.Instructions = instructions

	return r, nil
}

// latestAssistantText returns the newest assistant turn with text; later turns supersede earlier ones.
func latestAssistantText(transcript []mealplanner.Turn) (string, bool) {
	for i := len(transcript) - 1; i >= 0; i-- {
		t := transcript[i]
		if t.Role == mealplanner.RoleAssistant && strings.TrimSpace(t.Content) != "" {
			return t.Content, true
		}
	}
	return "", false
}

func noOutputFallback(req Request) Outcome {
	retained := []mealplanner.Ingredient{
		{Name: "chicken_breast", Quantity: 1, Unit: "lb", Category: mealplanner.CategoryProtein},
		{Name: "mixed_vegetables", Quantity: 2, Unit: "cup", Category: mealplanner.CategoryProduce},
	}
	return Outcome{
		Meal: mealplanner.MealRecord{
			Name:                "Simple dinner for " + displayDay(req.Day),
			Ingredients:         AggregateDay(retained),
			Instructions:        []string{"Season and cook chicken", "Serve with vegetables"},
			TimeEstimateMinutes: req.TimeLimitMinutes,
			Equipment:           []mealplanner.Equipment{mealplanner.EquipmentStovetop},
		},
		Retained: retained,
		Fallback: ErrNoAssistantOutput,
	}
}

func extractionFallback(req Request, err error) Outcome {
	return Outcome{
		Meal: mealplanner.MealRecord{
			Name:                "Dinner for " + displayDay(req.Day),
			Ingredients:         map[string]mealplanner.IngredientInfo{},
			Instructions:        []string{"See recipe details above"},
			TimeEstimateMinutes: req.TimeLimitMinutes,
			Equipment:           []mealplanner.Equipment{},
		},
		Fallback: err,
	}
}

// ExtractionInstructions tells the extractor how to structure a recipe for the given servings.
func ExtractionInstructions(servings int) string {
	return fmt.Sprintf(`Parse the following recipe information into a structured format.
Scale all ingredient quantities for %d serving(s).

Extract:
1. Recipe name
2. All ingredients with precise quantities and PROPER UNITS
3. Step-by-step instructions
4. Mark each ingredient as fresh (spoils within a week) or not
5. Assign each ingredient one category: produce, protein, dairy, grains, pantry, aromatics
6. Total time estimate in minutes
7. Equipment needed, from: stovetop, oven, air_fryer, microwave, no_cook

CRITICAL - Unit formatting rules:
- Meats/proteins: use weight (lb or oz). Example: "0.5 lb chicken_breast", "4 oz salmon"
- Garlic: use "clove" not whole heads. Example: "2 clove garlic"
- Onions/peppers/tomatoes: use "medium" or "large" or weight. Example: "1 medium onion"
- Liquids: use volume (cup, tbsp, tsp). Example: "0.25 cup soy_sauce"
- Cheese: use weight or volume. Example: "0.25 cup parmesan" or "2 oz cheddar"
- Herbs: use "tbsp" for chopped or "sprig" for whole. Example: "2 tbsp cilantro"
- Pasta/rice/grains: use weight or volume. Example: "4 oz pasta" or "0.5 cup rice"

For ingredient names, use lowercase with underscores (e.g., 'ground_beef', 'bell_pepper', 'garlic').
Common fresh items: meat, poultry, fish, vegetables, fruits, dairy, eggs, fresh herbs.
Non-fresh: canned goods, pasta, rice, dried spices, condiments.`, servings)
}
