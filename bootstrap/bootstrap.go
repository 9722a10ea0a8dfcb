// Package bootstrap assembles a planner and its artifacts from environment configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mealplanner"
	"mealplanner/assistant/bedrock"
	"mealplanner/assistant/ollama"
	"mealplanner/gemini"
	"mealplanner/imagesearch"
	"mealplanner/planner"
	"mealplanner/storage"
	"mealplanner/tools"
	"mealplanner/tools/search"
)

// Config groups every environment-driven setting.
type Config struct {
	Model   mealplanner.ModelConfig
	Planner mealplanner.PlannerConfig
	Search  mealplanner.SearchConfig
	Image   mealplanner.ImageConfig
	Gemini  mealplanner.GeminiConfig
	Storage mealplanner.StorageConfig
	Server  mealplanner.ServerConfig
	Slack   mealplanner.SlackConfig
}

func LoadConfig() (Config, error) {
	var cfg Config
	targets := []any{&cfg.Model, &cfg.Planner, &cfg.Search, &cfg.Image, &cfg.Gemini, &cfg.Storage, &cfg.Server, &cfg.Slack}
	for _, t := range targets {
		if err := mealplanner.DecodeEnv(t); err != nil {
			return Config{}, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	return cfg, nil
}

// App is a ready-to-run planner plus the resources it holds.
type App struct {
	Config Config
	Driver *planner.Driver

	awsConfig func() (aws.Config, error)
	gemini    *gemini.Client
	closers   []func() error
}

// Build wires the assistant, extractor, search tool, image finder and coordination logger
// selected by cfg. Close releases what Build opened.
func Build(ctx context.Context, cfg Config) (*App, error) {
	app := &App{Config: cfg, awsConfig: lazyAWSConfig(ctx)}

	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	assistant, err := app.newAssistant()
	if err != nil {
		return nil, err
	}

	extractor, err := app.newExtractor(ctx)
	if err != nil {
		return nil, err
	}

	searcher, err := NewSearcher(cfg.Search, http.DefaultClient)
	if err != nil {
		return nil, err
	}
	registry, err := tools.NewRegistry(searcher, cfg.Search.MaxResults)
	if err != nil {
		return nil, err
	}

	images, err := app.newImageFinder(ctx)
	if err != nil {
		return nil, err
	}

	staples, err := LoadStaples(cfg.Planner.StaplesFile)
	if err != nil {
		return nil, err
	}

	logger, flush, err := NewCoordinationLogger(cfg.Planner.CoordinationLog, cfg.Model.ModelID)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, flush)

	driver, err := planner.NewDriver(assistant, registry, extractor, images, planner.Options{
		MaxToolIterations: cfg.Planner.MaxToolIterations,
		DefaultTimeLimit:  cfg.Planner.DefaultTimeLimit,
		CallTimeout:       cfg.Planner.CallTimeout,
		Staples:           staples,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}
	app.Driver = driver

	slog.Info("SETUP: Planner ready",
		"assistant", cfg.Model.Provider,
		"model", cfg.Model.ModelID,
		"extraction", cfg.Planner.ExtractionProvider,
		"search", cfg.Search.Provider,
		"images", images != nil,
		"staples", len(staples),
	)
	ok = true
	return app, nil
}

// Close flushes the coordination log and closes provider clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Artifacts returns the week request and plan objects, in S3 when configured, else on disk.
func (a *App) Artifacts() (request, plan storage.Object, err error) {
	sc := a.Config.Storage
	if !sc.UseS3() {
		return storage.NewFileObject(sc.RequestPath), storage.NewFileObject(sc.OutputPath), nil
	}

	awsCfg, err := a.awsConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return storage.NewS3Object(client, sc.S3Bucket, sc.RequestKey, "application/json"),
		storage.NewS3Object(client, sc.S3Bucket, sc.OutputKey, "application/json"),
		nil
}

func (a *App) newAssistant() (mealplanner.Assistant, error) {
	mc := a.Config.Model
	switch mc.Provider {
	case "bedrock":
		brc, err := a.bedrockClient()
		if err != nil {
			return nil, err
		}
		return bedrock.NewAssistant(brc, bedrock.LLMOptions{
			ModelID:     mc.ModelID,
			MaxTokens:   mc.MaxTokens,
			Temperature: mc.Temperature,
			TopP:        mc.TopP,
		}), nil
	case "ollama":
		return ollama.NewAssistant(ollama.AssistantOpts{
			BaseEndpoint: a.Config.Planner.BaseOllamaEndpoint,
			ModelID:      mc.ModelID,
			HTTPClient:   http.DefaultClient,
		})
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", mc.Provider)
	}
}

func (a *App) newExtractor(ctx context.Context) (mealplanner.Extractor, error) {
	switch a.Config.Planner.ExtractionProvider {
	case "bedrock":
		brc, err := a.bedrockClient()
		if err != nil {
			return nil, err
		}
		opts := bedrock.LLMOptions{MaxTokens: a.Config.Model.MaxTokens}
		if a.Config.Model.Provider == "bedrock" {
			opts.ModelID = a.Config.Model.ModelID
		}
		return bedrock.NewExtractor(brc, opts), nil
	case "gemini":
		client, err := a.geminiClient(ctx)
		if err != nil {
			return nil, err
		}
		return client.Extractor(), nil
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", a.Config.Planner.ExtractionProvider)
	}
}

// newImageFinder returns nil when no Unsplash key is configured. Results are validated by
// Gemini when a key for it is present.
func (a *App) newImageFinder(ctx context.Context) (mealplanner.ImageFinder, error) {
	ic := a.Config.Image
	if ic.UnsplashAccessKey == "" {
		return nil, nil
	}
	if !ic.Validate || a.Config.Gemini.APIKey == "" {
		return imagesearch.NewUnsplash(ic.UnsplashAccessKey, "", http.DefaultClient, nil), nil
	}
	client, err := a.geminiClient(ctx)
	if err != nil {
		return nil, err
	}
	return imagesearch.NewUnsplash(ic.UnsplashAccessKey, "", http.DefaultClient, client.Judge()), nil
}

func (a *App) bedrockClient() (*bedrockruntime.Client, error) {
	awsCfg, err := a.awsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// geminiClient opens one Gemini client and shares it between the extractor and the judge.
func (a *App) geminiClient(ctx context.Context) (*gemini.Client, error) {
	if a.gemini != nil {
		return a.gemini, nil
	}
	client, err := gemini.NewClient(ctx, a.Config.Gemini)
	if err != nil {
		return nil, err
	}
	a.gemini = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

func lazyAWSConfig(ctx context.Context) func() (aws.Config, error) {
	return sync.OnceValues(func() (aws.Config, error) {
		return config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	})
}

// NewSearcher selects the recipe search backend.
func NewSearcher(cfg mealplanner.SearchConfig, httpClient mealplanner.HTTPClient) (search.Searcher, error) {
	switch cfg.Provider {
	case "", "duckduckgo":
		return search.NewDuckDuckGo("", httpClient), nil
	case "tavily":
		return search.NewTavily(cfg.TavilyAPIKey, "", httpClient)
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// LoadStaples returns the default staples, merged with the override file when path is set.
func LoadStaples(path string) ([]string, error) {
	if path == "" {
		return planner.DefaultStaples, nil
	}
	f, err := mealplanner.LoadStaplesFile(path)
	if err != nil {
		return nil, err
	}
	return f.Merge(planner.DefaultStaples), nil
}

// NewCoordinationLogger maps a PLANNER_COORDINATION_LOG mode to a logger and its flush func.
// "file" writes one JSON document per run under ./logs.
func NewCoordinationLogger(mode, modelID string) (mealplanner.CoordinationLogger, func() error, error) {
	noop := func() error { return nil }
	switch mode {
	case "", "none":
		return mealplanner.NewNoOpCoordinationLogger(), noop, nil
	case "stdout":
		return mealplanner.NewStdoutCoordinationLogger(), noop, nil
	case "file":
		logFilePath := mealplanner.NewCoordinationLogFilePath(modelID)
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger := mealplanner.NewFileCoordinationLogger(logFile)
		return logger, func() error { return errors.Join(logger.Flush(), logFile.Close()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown coordination log mode %q", mode)
	}
}
