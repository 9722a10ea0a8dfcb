// Package ollama implements the assistant on a local Ollama server's chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"mealplanner"
	"mealplanner/tools"
)

type Assistant struct {
	endpoint   string
	model      string
	httpClient mealplanner.HTTPClient
	options    options
}

type AssistantOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   mealplanner.HTTPClient
}

func NewAssistant(opts AssistantOpts) (*Assistant, error) {
	if opts.ModelID == "" {
		return nil, errors.New("model id is required")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is required")
	}

	return &Assistant{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   0.2,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384,
		},
	}, nil
}

// Respond sends the transcript to /api/chat without streaming. Ollama does not id its tool
// calls, so each call gets a generated id to pair it with its result.
func (a *Assistant) Respond(ctx context.Context, transcript []mealplanner.Turn, available []tools.Tool) (mealplanner.Reply, error) {
	slog.Info("LLM_CLIENT: Invoked", "turns_len", len(transcript), "tools_len", len(available))

	wireTools, err := buildTools(available)
	if err != nil {
		return nil, err
	}

	reqBytes, err := json.Marshal(wireRequest{
		Model:    a.model,
		Messages: buildMessages(transcript),
		Tools:    wireTools,
		Stream:   false,
		Options:  a.options,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama chat: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	if len(wr.Message.ToolCalls) > 0 {
		calls := make([]tools.Call, 0, len(wr.Message.ToolCalls))
		for _, tc := range wr.Message.ToolCalls {
			input := tc.Function.Arguments
			if input == nil {
				input = map[string]any{}
			}
			calls = append(calls, tools.Call{
				Name:      tc.Function.Name,
				Input:     input,
				ToolUseID: uuid.NewString(),
			})
		}
		slog.Info("LLM_CLIENT: Extracted tool calls", "calls_len", len(calls))
		return mealplanner.ToolRequest{Text: wr.Message.Content, Calls: calls}, nil
	}

	slog.Info("LLM_CLIENT: Extracted final text", "text_len", len(wr.Message.Content), "done_reason", wr.DoneReason)
	return mealplanner.FinalText{Text: wr.Message.Content}, nil
}

// buildMessages converts the transcript into Ollama chat messages.
// Tool results without a tool name are dropped since Ollama pairs results by name.
func buildMessages(transcript []mealplanner.Turn) []Message {
	messages := make([]Message, 0, len(transcript))

	for _, turn := range transcript {
		switch turn.Role {
		case mealplanner.RoleSystem:
			messages = append(messages, Message{Role: "system", Content: turn.Content})

		case mealplanner.RoleHuman:
			messages = append(messages, Message{Role: "user", Content: turn.Content})

		case mealplanner.RoleAssistant:
			msg := Message{Role: "assistant", Content: turn.Content}
			for _, call := range turn.ToolCalls {
				var tc ToolCall
				tc.Function.Name = call.Name
				tc.Function.Arguments = call.Input
				msg.ToolCalls = append(msg.ToolCalls, tc)
			}
			messages = append(messages, msg)

		case mealplanner.RoleToolResult:
			if strings.TrimSpace(turn.ToolName) == "" {
				slog.Warn("LLM_CLIENT: Dropping tool result without name")
				continue
			}
			messages = append(messages, Message{Role: "tool", Name: turn.ToolName, Content: turn.Content})

		default:
			slog.Warn("LLM_CLIENT: Unknown role, coercing to user", "role", turn.Role)
			messages = append(messages, Message{Role: "user", Content: turn.Content})
		}
	}

	return messages
}

func buildTools(available []tools.Tool) ([]Tool, error) {
	var out []Tool
	for _, t := range available {
		raw, err := json.Marshal(t.InputSchema())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool schema for %s: %w", t.Name(), err)
		}
		var params map[string]any
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool schema for %s: %w", t.Name(), err)
		}
		out = append(out, Tool{
			Type: "function",
			Function: ToolSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return out, nil
}
