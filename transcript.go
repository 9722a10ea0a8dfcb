package mealplanner

import "mealplanner/tools"

type Role string

const (
	RoleSystem     Role = "system"
	RoleHuman      Role = "human"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Turn is one entry of a conversation transcript. Role selects which fields are meaningful:
// ToolCalls only on assistant turns, ToolName and ToolCallID only on tool_result turns.
type Turn struct {
	Role       Role         `json:"role"`
	Content    string       `json:"content,omitempty"`
	ToolCalls  []tools.Call `json:"tool_calls,omitempty"`
	ToolName   string       `json:"tool_name,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

func HumanTurn(content string) Turn {
	return Turn{Role: RoleHuman, Content: content}
}

func AssistantTurn(content string, calls []tools.Call) Turn {
	return Turn{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

func ToolResultTurn(call tools.Call, content string) Turn {
	return Turn{Role: RoleToolResult, Content: content, ToolName: call.Name, ToolCallID: call.ToolUseID}
}

// Reply is the assistant's answer: either FinalText or ToolRequest.
type Reply interface {
	isReply()
	// Turn converts the reply into the assistant turn appended to the transcript.
	Turn() Turn
}

// FinalText is a reply with no tool calls.
type FinalText struct {
	Text string
}

func (FinalText) isReply() {}

func (r FinalText) Turn() Turn { return AssistantTurn(r.Text, nil) }

// ToolRequest is a reply asking for one or more tool calls, optionally with some text.
type ToolRequest struct {
	Text  string
	Calls []tools.Call
}

func (ToolRequest) isReply() {}

func (r ToolRequest) Turn() Turn { return AssistantTurn(r.Text, r.Calls) }
