// Package bedrock implements the assistant and the recipe extractor on the Bedrock Converse API.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"mealplanner"
	"mealplanner/tools"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// Recipes with full ingredient lists and steps need more room than a tool call.
	defaultMaxTokens = 2048

	defaultTemperature = 0.7

	defaultTopP = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

func (o LLMOptions) withDefaults() LLMOptions {
	if o.ModelID == "" {
		o.ModelID = defaultModelID
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Temperature == 0 {
		o.Temperature = defaultTemperature
	}
	if o.TopP == 0 {
		o.TopP = defaultTopP
	}
	return o
}

func (o LLMOptions) inferenceConfig() *types.InferenceConfiguration {
	return &types.InferenceConfiguration{
		MaxTokens:   aws.Int32(o.MaxTokens),
		Temperature: aws.Float32(o.Temperature),
		TopP:        aws.Float32(o.TopP),
	}
}

// Assistant answers dinner requests through Converse with native tool use.
type Assistant struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

func NewAssistant(brc bedrockRuntimeClient, opts LLMOptions) *Assistant {
	return &Assistant{
		brc:  brc,
		opts: opts.withDefaults(),
	}
}

func (a *Assistant) Respond(ctx context.Context, transcript []mealplanner.Turn, available []tools.Tool) (mealplanner.Reply, error) {
	slog.Info("LLM_CLIENT: Invoked", "turns_len", len(transcript), "tools_len", len(available))

	sys, msgs, err := buildMessages(transcript)
	if err != nil {
		return nil, err
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(a.opts.ModelID),
		System:          sys,
		Messages:        msgs,
		InferenceConfig: a.opts.inferenceConfig(),
	}

	if len(available) > 0 {
		var specs []types.Tool
		for _, t := range available {
			spec, err := buildToolSpec(t.Name(), t.Description(), t.InputSchema())
			if err != nil {
				slog.Error("LLM_CLIENT: Failed to build tool spec", "error", err)
				continue
			}
			specs = append(specs, &types.ToolMemberToolSpec{Value: spec})
		}
		in.ToolConfig = &types.ToolConfiguration{Tools: specs, ToolChoice: &types.ToolChoiceMemberAuto{}}
	}

	out, err := a.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock Converse failed", "error", err, "model", a.opts.ModelID)
		return nil, err
	}
	logUsage(out)

	text := textFromOutput(out)
	calls, err := toolCallsFromOutput(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tool calls: %w", err)
	}

	switch out.StopReason {
	case "tool_use":
		if len(calls) == 0 {
			return nil, errors.New("model stopped for tool use without tool calls")
		}
		slog.Info("LLM_CLIENT: Extracted tool calls", "calls_len", len(calls))
		return mealplanner.ToolRequest{Text: text, Calls: calls}, nil

	case "end_turn", "stop_sequence":
		slog.Info("LLM_CLIENT: Extracted final text", "text_len", len(text))
		return mealplanner.FinalText{Text: text}, nil

	case "max_tokens":
		// A truncated recipe is still worth extracting
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit; consider increasing MaxTokens", "text_len", len(text))
		if text == "" {
			return nil, errors.New("model hit MaxTokens limit before producing text")
		}
		return mealplanner.FinalText{Text: text}, nil

	case "guardrail_intervened", "content_filtered":
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return nil, errors.New("model response blocked by Bedrock safety filters")

	default:
		if len(calls) > 0 {
			return mealplanner.ToolRequest{Text: text, Calls: calls}, nil
		}
		return mealplanner.FinalText{Text: text}, nil
	}
}

// buildMessages maps a transcript onto Converse system blocks and alternating messages.
// Consecutive tool results travel together in one user message.
func buildMessages(transcript []mealplanner.Turn) ([]types.SystemContentBlock, []types.Message, error) {
	var sys []types.SystemContentBlock
	var msgs []types.Message

	appendBlock := func(role types.ConversationRole, block types.ContentBlock) {
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, block)
			return
		}
		msgs = append(msgs, types.Message{Role: role, Content: []types.ContentBlock{block}})
	}

	for _, turn := range transcript {
		switch turn.Role {
		case mealplanner.RoleSystem:
			sys = append(sys, &types.SystemContentBlockMemberText{Value: turn.Content})

		case mealplanner.RoleHuman:
			appendBlock(types.ConversationRoleUser, &types.ContentBlockMemberText{Value: turn.Content})

		case mealplanner.RoleAssistant:
			if strings.TrimSpace(turn.Content) != "" {
				appendBlock(types.ConversationRoleAssistant, &types.ContentBlockMemberText{Value: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				input := call.Input
				if input == nil {
					input = map[string]any{}
				}
				appendBlock(types.ConversationRoleAssistant, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String(call.ToolUseID),
					Name:      aws.String(call.Name),
					Input:     document.NewLazyDocument(input),
				}})
			}

		case mealplanner.RoleToolResult:
			appendBlock(types.ConversationRoleUser, &types.ContentBlockMemberToolResult{Value: toolResultBlock(turn)})

		default:
			return nil, nil, fmt.Errorf("unknown transcript role %q", turn.Role)
		}
	}

	return sys, msgs, nil
}

// toolResultBlock sends JSON object payloads as documents and anything else as text.
func toolResultBlock(turn mealplanner.Turn) types.ToolResultBlock {
	block := types.ToolResultBlock{
		ToolUseId: aws.String(turn.ToolCallID),
		Status:    types.ToolResultStatusSuccess,
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(turn.Content), &payload); err != nil {
		block.Content = []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: turn.Content}}
		return block
	}
	if _, failed := payload["error"]; failed {
		block.Status = types.ToolResultStatusError
	}
	block.Content = []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberJson{Value: document.NewLazyDocument(payload)}}
	return block
}

func logUsage(out *bedrockruntime.ConverseOutput) {
	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}
	slog.Info("LLM_CLIENT: Bedrock Converse succeeded", attrs...)
}
