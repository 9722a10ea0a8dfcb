package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner"
	"mealplanner/tools"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	request  wireRequest
	url      string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.url = req.URL.String()
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &m.request)
	}
	return m.response, m.err
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

type searchTool struct{}

func (searchTool) Name() string        { return "recipe_search" }
func (searchTool) Title() string       { return "Search Recipes" }
func (searchTool) Description() string { return "Search for recipes online." }
func (searchTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{"query": {Type: "string"}},
		Required:   []string{"query"},
	}
}
func (searchTool) OutputSchema() *jsonschema.Schema { return &jsonschema.Schema{Type: "object"} }
func (searchTool) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	return nil, nil
}

func TestNewAssistant(t *testing.T) {
	tests := []struct {
		name    string
		opts    AssistantOpts
		wantErr bool
	}{
		{
			name: "valid",
			opts: AssistantOpts{BaseEndpoint: "http://localhost:11434/", ModelID: "llama3.2", HTTPClient: &mockHTTPClient{}},
		},
		{
			name:    "missing model",
			opts:    AssistantOpts{BaseEndpoint: "http://localhost:11434", HTTPClient: &mockHTTPClient{}},
			wantErr: true,
		},
		{
			name:    "missing http client",
			opts:    AssistantOpts{BaseEndpoint: "http://localhost:11434", ModelID: "llama3.2"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAssistant(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:11434/api/chat", a.endpoint)
			assert.Equal(t, 16384, a.options.NumCtx)
		})
	}
}

func TestAssistant_Respond(t *testing.T) {
	transcript := []mealplanner.Turn{
		mealplanner.SystemTurn("You are a meal planner."),
		mealplanner.HumanTurn("Find a dinner recipe for Monday."),
	}

	tests := []struct {
		name          string
		response      *http.Response
		err           error
		check         func(t *testing.T, reply mealplanner.Reply)
		expectedError string
	}{
		{
			name:     "final text",
			response: createMockResponse(http.StatusOK, `{"message":{"role":"assistant","content":"Pasta Primavera"},"done_reason":"stop"}`),
			check: func(t *testing.T, reply mealplanner.Reply) {
				assert.Equal(t, mealplanner.FinalText{Text: "Pasta Primavera"}, reply)
			},
		},
		{
			name: "tool calls get generated ids",
			response: createMockResponse(http.StatusOK, `{"message":{"role":"assistant","content":"","tool_calls":[
				{"function":{"name":"recipe_search","arguments":{"query":"quick pasta"}}},
				{"function":{"name":"recipe_search"}}]}}`),
			check: func(t *testing.T, reply mealplanner.Reply) {
				req, ok := reply.(mealplanner.ToolRequest)
				require.True(t, ok)
				require.Len(t, req.Calls, 2)
				assert.Equal(t, "recipe_search", req.Calls[0].Name)
				assert.Equal(t, map[string]any{"query": "quick pasta"}, req.Calls[0].Input)
				assert.NotEmpty(t, req.Calls[0].ToolUseID)
				assert.NotEqual(t, req.Calls[0].ToolUseID, req.Calls[1].ToolUseID)
				assert.NotNil(t, req.Calls[1].Input)
			},
		},
		{
			name:          "server error",
			response:      createMockResponse(http.StatusInternalServerError, "model not loaded\n"),
			expectedError: "model not loaded",
		},
		{
			name:          "bad json",
			response:      createMockResponse(http.StatusOK, "not json"),
			expectedError: "decode ollama response",
		},
		{
			name:          "transport error",
			err:           errors.New("connection refused"),
			expectedError: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockHTTPClient{response: tt.response, err: tt.err}
			a, err := NewAssistant(AssistantOpts{BaseEndpoint: "http://ollama:11434", ModelID: "llama3.2", HTTPClient: client})
			require.NoError(t, err)

			reply, err := a.Respond(context.Background(), transcript, []tools.Tool{searchTool{}})
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			tt.check(t, reply)

			assert.Equal(t, "http://ollama:11434/api/chat", client.url)
			assert.Equal(t, "llama3.2", client.request.Model)
			assert.False(t, client.request.Stream)
			require.Len(t, client.request.Tools, 1)
			assert.Equal(t, "function", client.request.Tools[0].Type)
			assert.Equal(t, "recipe_search", client.request.Tools[0].Function.Name)
			assert.Equal(t, "object", client.request.Tools[0].Function.Parameters["type"])
		})
	}
}

func TestBuildMessages(t *testing.T) {
	call := tools.Call{Name: "recipe_search", Input: map[string]any{"query": "soup"}, ToolUseID: "id-1"}
	transcript := []mealplanner.Turn{
		mealplanner.SystemTurn("sys"),
		mealplanner.HumanTurn("hello"),
		mealplanner.AssistantTurn("", []tools.Call{call}),
		mealplanner.ToolResultTurn(call, `{"results":[]}`),
		{Role: mealplanner.RoleToolResult, Content: "orphan"},
		{Role: "narrator", Content: "odd"},
	}

	got := buildMessages(transcript)

	require.Len(t, got, 5)
	assert.Equal(t, Message{Role: "system", Content: "sys"}, got[0])
	assert.Equal(t, Message{Role: "user", Content: "hello"}, got[1])
	assert.Equal(t, "assistant", got[2].Role)
	require.Len(t, got[2].ToolCalls, 1)
	assert.Equal(t, "recipe_search", got[2].ToolCalls[0].Function.Name)
	assert.Equal(t, Message{Role: "tool", Name: "recipe_search", Content: `{"results":[]}`}, got[3])
	assert.Equal(t, Message{Role: "user", Content: "odd"}, got[4])
}
