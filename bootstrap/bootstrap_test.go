package bootstrap

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner"
	"mealplanner/planner"
	"mealplanner/storage"
	"mealplanner/tools/search"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MODEL_ID", "llama3.2")
	t.Setenv("ASSISTANT_PROVIDER", "ollama")
	t.Setenv("SEARCH_PROVIDER", "tavily")
	t.Setenv("PLANNER_CALL_TIMEOUT", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "llama3.2", cfg.Model.ModelID)
	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, 6, cfg.Planner.MaxToolIterations)
	assert.Equal(t, 60, cfg.Planner.DefaultTimeLimit)
	assert.Equal(t, "30s", cfg.Planner.CallTimeout.String())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Storage.UseS3())
}

func TestNewSearcher(t *testing.T) {
	tests := []struct {
		name    string
		cfg     mealplanner.SearchConfig
		want    any
		wantErr bool
	}{
		{name: "default", cfg: mealplanner.SearchConfig{}, want: &search.DuckDuckGo{}},
		{name: "duckduckgo", cfg: mealplanner.SearchConfig{Provider: "duckduckgo"}, want: &search.DuckDuckGo{}},
		{name: "tavily", cfg: mealplanner.SearchConfig{Provider: "tavily", TavilyAPIKey: "tvly-x"}, want: &search.Tavily{}},
		{name: "tavily without key", cfg: mealplanner.SearchConfig{Provider: "tavily"}, wantErr: true},
		{name: "unknown", cfg: mealplanner.SearchConfig{Provider: "bing"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSearcher(tt.cfg, http.DefaultClient)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestLoadStaples(t *testing.T) {
	got, err := LoadStaples("")
	require.NoError(t, err)
	assert.Equal(t, planner.DefaultStaples, got)

	dir := t.TempDir()
	extend := filepath.Join(dir, "extend.toml")
	require.NoError(t, os.WriteFile(extend, []byte(`staples = ["fish sauce"]`), 0o644))
	got, err = LoadStaples(extend)
	require.NoError(t, err)
	assert.Len(t, got, len(planner.DefaultStaples)+1)
	assert.Contains(t, got, "fish sauce")

	replace := filepath.Join(dir, "replace.toml")
	require.NoError(t, os.WriteFile(replace, []byte("replace = true\nstaples = [\"salt\"]\n"), 0o644))
	got, err = LoadStaples(replace)
	require.NoError(t, err)
	assert.Equal(t, []string{"salt"}, got)

	_, err = LoadStaples(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestNewCoordinationLogger(t *testing.T) {
	tests := []struct {
		mode    string
		want    any
		wantErr bool
	}{
		{mode: "", want: &mealplanner.NoOpCoordinationLogger{}},
		{mode: "none", want: &mealplanner.NoOpCoordinationLogger{}},
		{mode: "stdout", want: &mealplanner.StdoutCoordinationLogger{}},
		{mode: "syslog", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			logger, flush, err := NewCoordinationLogger(tt.mode, "model")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, logger)
			assert.NoError(t, flush())
		})
	}
}

func TestBuild_UnknownProviders(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "assistant",
			cfg:  Config{Model: mealplanner.ModelConfig{Provider: "openai", ModelID: "x"}},
		},
		{
			name: "extraction",
			cfg: Config{
				Model:   mealplanner.ModelConfig{Provider: "ollama", ModelID: "llama3.2"},
				Planner: mealplanner.PlannerConfig{ExtractionProvider: "regex", BaseOllamaEndpoint: "http://localhost:11434"},
			},
		},
		{
			name: "gemini extraction without key",
			cfg: Config{
				Model:   mealplanner.ModelConfig{Provider: "ollama", ModelID: "llama3.2"},
				Planner: mealplanner.PlannerConfig{ExtractionProvider: "gemini"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := Build(context.Background(), tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, app)
		})
	}
}

func TestApp_ArtifactsOnDisk(t *testing.T) {
	dir := t.TempDir()
	app := &App{Config: Config{Storage: mealplanner.StorageConfig{
		RequestPath: filepath.Join(dir, "week.json"),
		OutputPath:  filepath.Join(dir, "out", "plan.json"),
	}}}

	req, plan, err := app.Artifacts()
	require.NoError(t, err)
	assert.IsType(t, &storage.FileObject{}, req)

	require.NoError(t, plan.Save(context.Background(), []byte(`{}`)))
	data, err := os.ReadFile(filepath.Join(dir, "out", "plan.json"))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}
