package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mealplanner"
)

type stage int

const (
	stageInit stage = iota
	stageRequest
	stageToolLoop
	stageParse
	stageAdvance
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageInit:
		return "INIT"
	case stageRequest:
		return "REQUEST"
	case stageToolLoop:
		return "TOOL_LOOP"
	case stageParse:
		return "PARSE"
	case stageAdvance:
		return "ADVANCE"
	case stageDone:
		return "DONE"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Options tune a Driver. Zero values fall back to defaults.
type Options struct {
	MaxToolIterations int
	DefaultTimeLimit  int
	CallTimeout       time.Duration
	// Staples replaces DefaultStaples when non-nil.
	Staples []string
	Logger  mealplanner.CoordinationLogger
}

// Driver runs the week: one day at a time, each through request, tool loop and parse.
type Driver struct {
	composer   Composer
	loop       *ToolLoop
	normalizer *Normalizer
	tracer     trace.Tracer
	metrics    driverMetrics
}

type driverMetrics struct {
	runs          metric.Int64Counter
	daysPlanned   metric.Int64Counter
	fallbackMeals metric.Int64Counter
	toolCalls     metric.Int64Counter
	loopOutcomes  metric.Int64Counter
	dayDuration   metric.Float64Histogram
}

// NewDriver wires a driver from its collaborators. images may be nil.
func NewDriver(assistant mealplanner.Assistant, toolProvider mealplanner.ToolProvider, extractor mealplanner.Extractor, images mealplanner.ImageFinder, opts Options) (*Driver, error) {
	if assistant == nil {
		return nil, errors.New("planner: an assistant is required")
	}
	if toolProvider == nil {
		return nil, errors.New("planner: a tool provider is required")
	}
	if extractor == nil {
		return nil, errors.New("planner: an extractor is required")
	}

	if opts.DefaultTimeLimit <= 0 {
		opts.DefaultTimeLimit = 60
	}
	staples := opts.Staples
	if staples == nil {
		staples = DefaultStaples
	}

	meter := otel.Meter(mealplanner.MeterNamePlanner)
	var m driverMetrics
	m.runs, _ = meter.Int64Counter("planner_runs_total",
		metric.WithDescription("Total number of week planning runs started"))
	m.daysPlanned, _ = meter.Int64Counter("planner_days_planned_total",
		metric.WithDescription("Total number of days planned"))
	m.fallbackMeals, _ = meter.Int64Counter("planner_fallback_meals_total",
		metric.WithDescription("Total number of placeholder meals produced"))
	m.toolCalls, _ = meter.Int64Counter("planner_tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	m.loopOutcomes, _ = meter.Int64Counter("planner_tool_loops_total",
		metric.WithDescription("Total number of tool loops by outcome"))
	m.dayDuration, _ = meter.Float64Histogram("planner_day_duration_seconds",
		metric.WithDescription("Time taken to plan a single day in seconds"))

	return &Driver{
		composer:   Composer{DefaultTimeLimit: opts.DefaultTimeLimit},
		loop:       NewToolLoop(assistant, toolProvider, opts.MaxToolIterations, opts.CallTimeout, opts.Logger),
		normalizer: NewNormalizer(extractor, images, staples, opts.CallTimeout),
		tracer:     otel.Tracer(mealplanner.TracerNamePlanner),
		metrics:    m,
	}, nil
}

// Run plans the week and returns the published plan.
func (d *Driver) Run(ctx context.Context, mealInput map[string]mealplanner.DayInput) (mealplanner.Plan, error) {
	return d.RunWithObserver(ctx, mealInput, nil)
}

// RunWithObserver is Run with progress events delivered to obs.
func (d *Driver) RunWithObserver(ctx context.Context, mealInput map[string]mealplanner.DayInput, obs Observer) (mealplanner.Plan, error) {
	state, err := d.Execute(ctx, mealInput, obs)
	if err != nil {
		return mealplanner.Plan{}, err
	}
	return Finalize(state), nil
}

// Execute drives the state machine to DONE and returns the terminal state.
func (d *Driver) Execute(ctx context.Context, mealInput map[string]mealplanner.DayInput, obs Observer) (State, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	r := &run{
		driver:   d,
		id:       uuid.NewString(),
		input:    mealInput,
		observer: obs,
		stage:    stageInit,
	}

	ctx, span := d.tracer.Start(ctx, "Driver.Run", trace.WithAttributes(attribute.String("run.id", r.id)))
	defer span.End()
	d.metrics.runs.Add(ctx, 1)

	for r.stage != stageDone {
		next, err := r.step(ctx)
		if err != nil {
			r.endDay(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("PLANNER: Run aborted", "run_id", r.id, "stage", r.stage.String(), "error", err)
			return r.state, err
		}
		r.stage = next
	}

	span.SetAttributes(attribute.Int("days.planned", len(r.state.MealOutput)))
	obs.RunCompleted(Finalize(r.state))
	slog.Info("PLANNER: Run completed", "run_id", r.id, "days", len(r.state.MealOutput), "shopping_items", len(r.state.ShoppingList))
	return r.state, nil
}

// run is the mutable bookkeeping of one Execute call.
type run struct {
	driver   *Driver
	id       string
	input    map[string]mealplanner.DayInput
	observer Observer

	stage   stage
	state   State
	request Request
	loop    LoopResult

	daySpan  trace.Span
	dayStart time.Time
}

// step performs the work of the current stage and returns the next one.
func (r *run) step(ctx context.Context) (stage, error) {
	if err := ctx.Err(); err != nil {
		return r.stage, err
	}

	switch r.stage {
	case stageInit:
		r.state = NewState(r.input)
		slog.Info("PLANNER: Starting run", "run_id", r.id, "days", r.state.DaysToProcess)
		return r.loopCondition(), nil

	case stageRequest:
		day, ok := r.state.CurrentDay()
		if !ok {
			return stageDone, nil
		}
		r.startDay(ctx, day)

		turns, req := r.driver.composer.Compose(r.state)
		r.request = req
		r.state = Apply(r.state, Patch{Transcript: turns, ResetTranscript: true})
		slog.Info("PLANNER: Requesting dinner", "run_id", r.id, "day", day,
			"servings", req.Servings, "time_limit", req.TimeLimitMinutes,
			"advisory_items", len(req.Advisory), "planned_meals", len(req.PlannedMeals))
		return stageToolLoop, nil

	case stageToolLoop:
		res, err := r.driver.loop.Resolve(r.dayContext(ctx), r.id, r.request.Day, r.state.Transcript)
		if err != nil {
			return r.stage, err
		}
		r.loop = res
		r.state = Apply(r.state, Patch{Transcript: res.Turns})

		m := r.driver.metrics
		m.toolCalls.Add(ctx, int64(res.ToolCalls))
		m.loopOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", res.Outcome.String())))
		if r.daySpan != nil {
			r.daySpan.SetAttributes(
				attribute.String("tool_loop.outcome", res.Outcome.String()),
				attribute.Int("tool_loop.iterations", res.Iterations),
				attribute.Int("tool_loop.tool_calls", res.ToolCalls),
			)
		}
		return stageParse, nil

	case stageParse:
		out, err := r.driver.normalizer.Normalize(r.dayContext(ctx), r.request, r.state.Transcript)
		if err != nil {
			return r.stage, err
		}
		if out.Fallback != nil {
			kind := "extraction"
			if errors.Is(out.Fallback, ErrNoAssistantOutput) {
				kind = "no_assistant_output"
			}
			r.driver.metrics.fallbackMeals.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
		}

		day := r.request.Day
		r.state = Apply(r.state, Patch{
			MealOutput:      map[string]mealplanner.MealRecord{day: out.Meal},
			ShoppingList:    AggregateDay(out.Retained),
			FreshInventory:  Ledger(r.state.FreshInventory).Updates(out.Retained),
			ResetTranscript: true,
		})
		slog.Info("PLANNER: Dinner planned", "run_id", r.id, "day", day, "meal", out.Meal.Name,
			"ingredients", len(out.Meal.Ingredients), "fallback", out.Fallback != nil)
		return stageAdvance, nil

	case stageAdvance:
		day := r.request.Day
		index := r.state.CurrentDayIndex
		meal := r.state.MealOutput[day]

		next := index + 1
		r.state = Apply(r.state, Patch{CurrentDayIndex: &next})

		r.driver.metrics.daysPlanned.Add(ctx, 1)
		r.endDay(nil)
		r.observer.DayCompleted(day, index, len(r.state.DaysToProcess), meal)
		return r.loopCondition(), nil

	default:
		return stageDone, nil
	}
}

func (r *run) loopCondition() stage {
	if r.state.CurrentDayIndex < len(r.state.DaysToProcess) {
		return stageRequest
	}
	return stageDone
}

func (r *run) startDay(ctx context.Context, day string) {
	_, r.daySpan = r.driver.tracer.Start(ctx, "Driver.Day", trace.WithAttributes(
		attribute.String("run.id", r.id),
		attribute.String("day", day),
	))
	r.dayStart = time.Now()
	r.observer.DayStarted(day, r.state.CurrentDayIndex, len(r.state.DaysToProcess))
}

// dayContext parents external calls under the current day's span.
func (r *run) dayContext(ctx context.Context) context.Context {
	if r.daySpan == nil {
		return ctx
	}
	return trace.ContextWithSpan(ctx, r.daySpan)
}

func (r *run) endDay(err error) {
	if r.daySpan == nil {
		return
	}
	if err != nil {
		r.daySpan.RecordError(err)
		r.daySpan.SetStatus(codes.Error, err.Error())
	}
	r.driver.metrics.dayDuration.Record(context.Background(), time.Since(r.dayStart).Seconds(),
		metric.WithAttributes(attribute.String("day", r.request.Day)))
	r.daySpan.End()
	r.daySpan = nil
}
