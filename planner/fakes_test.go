package planner

import (
	"context"
	"errors"
	"strings"
	"sync"

	"mealplanner"
	"mealplanner/tools"
	"mealplanner/tools/search"
)

// assistantFunc adapts a function to mealplanner.Assistant and records every transcript it sees.
type assistantFunc struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, transcript []mealplanner.Turn) (mealplanner.Reply, error)
	seen  [][]mealplanner.Turn
	calls int
}

func (a *assistantFunc) Respond(ctx context.Context, transcript []mealplanner.Turn, _ []tools.Tool) (mealplanner.Reply, error) {
	a.mu.Lock()
	a.calls++
	a.seen = append(a.seen, append([]mealplanner.Turn(nil), transcript...))
	a.mu.Unlock()
	return a.fn(ctx, transcript)
}

// searchThenAnswer asks for recipe_search once per day, then answers with recipes[day].
func searchThenAnswer(recipes map[string]string) *assistantFunc {
	return &assistantFunc{fn: func(_ context.Context, transcript []mealplanner.Turn) (mealplanner.Reply, error) {
		last := transcript[len(transcript)-1]
		if last.Role == mealplanner.RoleHuman {
			return mealplanner.ToolRequest{
				Text:  "Let me search.",
				Calls: []tools.Call{{Name: tools.RecipeSearchToolName, Input: map[string]any{"query": "dinner"}, ToolUseID: "call-1"}},
			}, nil
		}
		day := dayFromTranscript(transcript)
		return mealplanner.FinalText{Text: recipes[day]}, nil
	}}
}

// dayFromTranscript finds the day named in the human turn.
func dayFromTranscript(transcript []mealplanner.Turn) string {
	for _, t := range transcript {
		if t.Role != mealplanner.RoleHuman {
			continue
		}
		for _, day := range mealplanner.Days {
			if strings.Contains(t.Content, displayDay(day)) {
				return day
			}
		}
	}
	return ""
}

type fakeSearcher struct {
	err error
}

func (f fakeSearcher) Search(ctx context.Context, query string, limit int) ([]search.Snippet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []search.Snippet{{Name: "Quick Dinner", URL: "https://example.com/quick", Text: "Ready fast"}}, nil
}

func newRegistry(searcher search.Searcher) *tools.Registry {
	r, err := tools.NewRegistry(searcher, 5)
	if err != nil {
		panic(err)
	}
	return r
}

// extractorFunc adapts a function to mealplanner.Extractor.
type extractorFunc struct {
	fn       func(req mealplanner.ExtractionRequest) (mealplanner.ParsedRecipe, error)
	requests []mealplanner.ExtractionRequest
}

func (e *extractorFunc) Extract(ctx context.Context, req mealplanner.ExtractionRequest) (mealplanner.ParsedRecipe, error) {
	e.requests = append(e.requests, req)
	return e.fn(req)
}

// recipesByText returns the recipe whose key appears in the extracted text.
func recipesByText(recipes map[string]mealplanner.ParsedRecipe) *extractorFunc {
	return &extractorFunc{fn: func(req mealplanner.ExtractionRequest) (mealplanner.ParsedRecipe, error) {
		for key, r := range recipes {
			if strings.Contains(req.RecipeText, key) {
				return r, nil
			}
		}
		return mealplanner.ParsedRecipe{}, errors.New("unrecognized recipe text")
	}}
}

func failingExtractor() *extractorFunc {
	return &extractorFunc{fn: func(mealplanner.ExtractionRequest) (mealplanner.ParsedRecipe, error) {
		return mealplanner.ParsedRecipe{}, errors.New("model refused")
	}}
}

type fakeImages struct {
	url string
	err error
}

func (f fakeImages) FindImage(ctx context.Context, recipeName string) (string, error) {
	return f.url, f.err
}

// recordingObserver keeps every event in order.
type recordingObserver struct {
	events  []string
	indexes []int
	plans   []mealplanner.Plan
}

func (o *recordingObserver) DayStarted(day string, index, total int) {
	o.events = append(o.events, "start:"+day)
}

func (o *recordingObserver) DayCompleted(day string, index, total int, meal mealplanner.MealRecord) {
	o.events = append(o.events, "done:"+day)
	o.indexes = append(o.indexes, index)
}

func (o *recordingObserver) RunCompleted(plan mealplanner.Plan) {
	o.events = append(o.events, "run")
	o.plans = append(o.plans, plan)
}
