package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"

	"mealplanner"
	"mealplanner/bootstrap"
)

func main() {
	fn := func(ctx context.Context, req mealplanner.WeekRequest) (mealplanner.Plan, error) {
		otelShutdown, err := mealplanner.InitOtel(ctx)
		if err != nil {
			return mealplanner.Plan{}, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			return mealplanner.Plan{}, err
		}
		// CloudWatch collects stdout
		if cfg.Planner.CoordinationLog == "file" {
			cfg.Planner.CoordinationLog = "stdout"
		}

		app, err := bootstrap.Build(ctx, cfg)
		if err != nil {
			slog.Error("SETUP: Failed to build planner", "error", err)
			return mealplanner.Plan{}, err
		}
		defer app.Close()

		plan, err := app.Driver.Run(ctx, req.MealInput)
		if err != nil {
			slog.Error("RESULT: Error planning week", "error", err)
			return mealplanner.Plan{}, err
		}

		if cfg.Storage.UseS3() {
			_, planObj, err := app.Artifacts()
			if err != nil {
				return mealplanner.Plan{}, err
			}
			data, err := json.Marshal(plan)
			if err != nil {
				return mealplanner.Plan{}, err
			}
			if err := planObj.Save(ctx, data); err != nil {
				return mealplanner.Plan{}, fmt.Errorf("failed to save plan: %w", err)
			}
		}

		return plan, nil
	}

	lambda.Start(fn)
}
