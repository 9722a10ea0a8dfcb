package mealplanner

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/pelletier/go-toml/v2"
)

type ModelConfig struct {
	Provider    string  `env:"ASSISTANT_PROVIDER,default=bedrock"`
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2048"`
	Temperature float32 `env:"TEMPERATURE,default=0.7"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type PlannerConfig struct {
	MaxToolIterations  int           `env:"MAX_TOOL_ITERATIONS,default=6"`
	DefaultTimeLimit   int           `env:"PLANNER_DEFAULT_TIME_LIMIT,default=60"`
	CallTimeout        time.Duration `env:"PLANNER_CALL_TIMEOUT,default=90s"`
	StaplesFile        string        `env:"PLANNER_STAPLES_FILE"`
	ExtractionProvider string        `env:"EXTRACTION_PROVIDER,default=bedrock"`
	BaseOllamaEndpoint string        `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	CoordinationLog    string        `env:"PLANNER_COORDINATION_LOG,default=none"`
	DebugDump          bool          `env:"PLANNER_DEBUG_DUMP,default=false"`
}

type SearchConfig struct {
	Provider     string `env:"SEARCH_PROVIDER,default=duckduckgo"`
	TavilyAPIKey string `env:"TAVILY_API_KEY"`
	MaxResults   int    `env:"SEARCH_MAX_RESULTS,default=5"`
}

type ImageConfig struct {
	UnsplashAccessKey string `env:"UNSPLASH_ACCESS_KEY"`
	Validate          bool   `env:"IMAGE_VALIDATE,default=true"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL,default=gemini-1.5-flash"`
}

type StorageConfig struct {
	RequestPath  string `env:"PLANNER_REQUEST_PATH,default=artifacts/week.json"`
	OutputPath   string `env:"PLANNER_OUTPUT_PATH,default=artifacts/plan.json"`
	WorkbookPath string `env:"PLANNER_WORKBOOK_PATH"`
	S3Bucket     string `env:"ARTIFACTS_S3_BUCKET"`
	RequestKey   string `env:"ARTIFACTS_REQUEST_S3_KEY"`
	OutputKey    string `env:"ARTIFACTS_PLAN_S3_KEY"`
}

// UseS3 reports whether artifacts live in S3 rather than on local disk.
func (c StorageConfig) UseS3() bool {
	return c.S3Bucket != "" && c.RequestKey != "" && c.OutputKey != ""
}

type ServerConfig struct {
	Addr    string `env:"SERVER_ADDR,default=:8080"`
	GinMode string `env:"GIN_MODE,default=release"`
}

type SlackConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#dinner"`
}

// DecodeEnv fills target from the environment. A struct whose fields are all optional and
// unset is not an error.
func DecodeEnv(target any) error {
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return err
	}
	return nil
}

// StaplesFile is the optional TOML override for the staple ingredient list:
//
//	replace = false
//	staples = ["fish sauce", "sesame oil"]
type StaplesFile struct {
	Replace bool     `toml:"replace"`
	Staples []string `toml:"staples"`
}

// LoadStaplesFile reads a staples override file.
func LoadStaplesFile(path string) (StaplesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StaplesFile{}, fmt.Errorf("read staples file: %w", err)
	}
	var f StaplesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return StaplesFile{}, fmt.Errorf("parse staples file %s: %w", path, err)
	}
	return f, nil
}

// Merge applies the override to a default staple list.
func (f StaplesFile) Merge(defaults []string) []string {
	if f.Replace {
		return append([]string(nil), f.Staples...)
	}
	out := make([]string, 0, len(defaults)+len(f.Staples))
	out = append(out, defaults...)
	return append(out, f.Staples...)
}
