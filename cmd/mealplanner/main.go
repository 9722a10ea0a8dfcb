package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"mealplanner"
	"mealplanner/bootstrap"
	"mealplanner/export"
	"mealplanner/planner"
	"mealplanner/slack"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("SETUP: No .env file loaded", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("RESULT: %s", err)
	}
}

func run(ctx context.Context) error {
	otelShutdown, err := mealplanner.InitOtel(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("SETUP: Failed to close planner resources", "error", err)
		}
	}()

	requestObj, planObj, err := app.Artifacts()
	if err != nil {
		return err
	}

	raw, err := requestObj.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load week request: %w", err)
	}
	var req mealplanner.WeekRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("failed to decode week request: %w", err)
	}

	state, err := app.Driver.Execute(ctx, req.MealInput, progressLogger{})
	if err != nil {
		return err
	}
	if cfg.Planner.DebugDump {
		mealplanner.Dump(os.Stderr, "final state", state)
	}
	plan := planner.Finalize(state)

	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := planObj.Save(ctx, out); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	slog.Info("RESULT: Plan saved", "dinners", len(plan.MealOutput), "shopping_items", len(plan.ShoppingList))

	if path := cfg.Storage.WorkbookPath; path != "" {
		var buf bytes.Buffer
		if err := export.WriteWorkbook(&buf, plan); err != nil {
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		slog.Info("RESULT: Workbook written", "path", path)
	}

	if cfg.Slack.WebhookURL != "" {
		if err := slack.NewClient(cfg.Slack.WebhookURL, http.DefaultClient).PostPlan(ctx, cfg.Slack.Channel, plan); err != nil {
			slog.Error("RESULT: Failed to post plan to Slack", "error", err)
		}
	}

	return nil
}

type progressLogger struct{}

func (progressLogger) DayStarted(day string, index, total int) {
	slog.Info("PROGRESS: Planning day", "day", day, "index", index+1, "total", total)
}

func (progressLogger) DayCompleted(day string, index, total int, meal mealplanner.MealRecord) {
	slog.Info("PROGRESS: Day planned", "day", day, "meal", meal.Name, "index", index+1, "total", total)
}

func (progressLogger) RunCompleted(plan mealplanner.Plan) {}
