package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner"
	"mealplanner/planner"
)

type fakeRunner struct {
	plan  mealplanner.Plan
	err   error
	input map[string]mealplanner.DayInput
}

func (f *fakeRunner) RunWithObserver(ctx context.Context, mealInput map[string]mealplanner.DayInput, obs planner.Observer) (mealplanner.Plan, error) {
	f.input = mealInput
	if f.err != nil {
		return mealplanner.Plan{}, f.err
	}
	if obs != nil {
		day := 0
		for _, d := range mealplanner.Days {
			meal, ok := f.plan.MealOutput[d]
			if !ok {
				continue
			}
			obs.DayStarted(d, day, len(f.plan.MealOutput))
			obs.DayCompleted(d, day, len(f.plan.MealOutput), meal)
			day++
		}
		obs.RunCompleted(f.plan)
	}
	return f.plan, nil
}

// closeNotifyingRecorder lets gin's Stream run against a recorder.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *closeNotifyingRecorder {
	return &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

var tacoPlan = mealplanner.Plan{
	MealOutput: map[string]mealplanner.MealRecord{
		"monday": {Name: "Fish Tacos", Ingredients: map[string]mealplanner.IngredientInfo{}, TimeEstimateMinutes: 20},
	},
	ShoppingList: map[string]mealplanner.IngredientInfo{"cod": {Quantity: "0.5 lb", Category: mealplanner.CategoryProtein}},
}

func TestCreatePlan(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		runner     *fakeRunner
		wantStatus int
		wantBody   string
	}{
		{
			name:       "plans the week",
			body:       `{"meal_input":{"monday":{"wants_dinner":true,"time_limit_minutes":30}}}`,
			runner:     &fakeRunner{plan: tacoPlan},
			wantStatus: http.StatusOK,
			wantBody:   "Fish Tacos",
		},
		{
			name:       "malformed body",
			body:       `{"meal_input":`,
			runner:     &fakeRunner{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "run aborted",
			body:       `{"meal_input":{}}`,
			runner:     &fakeRunner{err: errors.New("context canceled")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "context canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.runner, mealplanner.ServerConfig{GinMode: "test"})
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestCreatePlan_DecodesInput(t *testing.T) {
	runner := &fakeRunner{plan: tacoPlan}
	s := New(runner, mealplanner.ServerConfig{GinMode: "test"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/plans", strings.NewReader(`{"meal_input":{"Monday":{"dinner":true,"dinner_leftovers":true,"dinner_time_limit":45}}}`))

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mealplanner.DayInput{WantsDinner: true, HasLeftovers: true, TimeLimitMinutes: 45}, runner.input["Monday"])

	var plan mealplanner.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "0.5 lb", plan.ShoppingList["cod"].Quantity)
}

func TestStreamPlan(t *testing.T) {
	s := New(&fakeRunner{plan: tacoPlan}, mealplanner.ServerConfig{GinMode: "test"})
	rec := newStreamRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/plans/stream", strings.NewReader(`{"meal_input":{"monday":{"wants_dinner":true}}}`))

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	started := strings.Index(body, "event:day_started")
	completed := strings.Index(body, "event:day_completed")
	done := strings.Index(body, "event:done")
	require.True(t, started >= 0 && completed > started && done > completed, body)
	assert.Contains(t, body, "Fish Tacos")
}

func TestStreamPlan_Error(t *testing.T) {
	s := New(&fakeRunner{err: errors.New("boom")}, mealplanner.ServerConfig{GinMode: "test"})
	rec := newStreamRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/plans/stream", strings.NewReader(`{"meal_input":{}}`))

	s.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "event:error")
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestHealthz(t *testing.T) {
	s := New(&fakeRunner{}, mealplanner.ServerConfig{GinMode: "test"})
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
