package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mealplanner"
	"mealplanner/tools"
)

// LoopOutcome says how a tool loop ended.
type LoopOutcome int

const (
	// LoopCompleted means the assistant gave a reply without tool calls.
	LoopCompleted LoopOutcome = iota
	// LoopExhausted means the iteration budget ran out while the assistant still wanted tools.
	LoopExhausted
	// LoopFailed means the assistant call itself failed.
	LoopFailed
)

func (o LoopOutcome) String() string {
	switch o {
	case LoopCompleted:
		return "completed"
	case LoopExhausted:
		return "exhausted"
	case LoopFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoopOutcome(%d)", int(o))
	}
}

// LoopResult carries the turns a loop appended and how it ended.
type LoopResult struct {
	Turns      []mealplanner.Turn
	Outcome    LoopOutcome
	Iterations int
	ToolCalls  int
	// Err is the assistant error when Outcome is LoopFailed.
	Err error
}

// NeedsTools reports whether the most recent turn is an assistant turn asking for tools.
func NeedsTools(transcript []mealplanner.Turn) bool {
	if len(transcript) == 0 {
		return false
	}
	last := transcript[len(transcript)-1]
	return last.Role == mealplanner.RoleAssistant && len(last.ToolCalls) > 0
}

// ToolLoop drives request, tool execution and continuation until the assistant stops asking
// for tools or the iteration budget is spent.
type ToolLoop struct {
	assistant     mealplanner.Assistant
	toolProvider  mealplanner.ToolProvider
	maxIterations int
	callTimeout   time.Duration
	logger        mealplanner.CoordinationLogger
}

func NewToolLoop(assistant mealplanner.Assistant, toolProvider mealplanner.ToolProvider, maxIterations int, callTimeout time.Duration, logger mealplanner.CoordinationLogger) *ToolLoop {
	if maxIterations <= 0 {
		maxIterations = 6
	}
	if logger == nil {
		logger = mealplanner.NewNoOpCoordinationLogger()
	}
	return &ToolLoop{
		assistant:     assistant,
		toolProvider:  toolProvider,
		maxIterations: maxIterations,
		callTimeout:   callTimeout,
		logger:        logger,
	}
}

// Resolve invokes the assistant with the transcript and keeps satisfying tool calls until it
// answers. Each iteration is one assistant call. The only error returned is cancellation of ctx.
func (l *ToolLoop) Resolve(ctx context.Context, runID, day string, transcript []mealplanner.Turn) (LoopResult, error) {
	var res LoopResult
	conversation := append([]mealplanner.Turn(nil), transcript...)
	available := l.toolProvider.GetTools()

	for {
		if res.Iterations == l.maxIterations {
			slog.Warn("TOOL_LOOP: Iteration budget exhausted", "day", day, "iterations", res.Iterations)
			res.Outcome = LoopExhausted
			return res, nil
		}
		res.Iterations++

		iterLog := mealplanner.IterationLog{RunID: runID, Day: day, Iteration: res.Iterations, Timestamp: time.Now()}

		reply, err := l.respond(ctx, conversation, available)
		if err != nil {
			iterLog.Error = err.Error()
			l.logIteration(iterLog)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			slog.Error("TOOL_LOOP: Assistant call failed", "day", day, "iteration", res.Iterations, "error", err)
			res.Outcome = LoopFailed
			res.Err = err
			return res, nil
		}
		iterLog.Reply = reply

		turn := reply.Turn()
		conversation = append(conversation, turn)
		res.Turns = append(res.Turns, turn)

		if !NeedsTools(conversation) {
			slog.Info("TOOL_LOOP: Assistant answered", "day", day, "iteration", res.Iterations, "content_length", len(turn.Content))
			l.logIteration(iterLog)
			res.Outcome = LoopCompleted
			return res, nil
		}

		results, callLogs := l.runTools(ctx, day, turn.ToolCalls)
		conversation = append(conversation, results...)
		res.Turns = append(res.Turns, results...)
		res.ToolCalls += len(turn.ToolCalls)

		iterLog.ToolCalls = callLogs
		l.logIteration(iterLog)

		if err := ctx.Err(); err != nil {
			return res, err
		}
	}
}

func (l *ToolLoop) respond(ctx context.Context, transcript []mealplanner.Turn, available []tools.Tool) (mealplanner.Reply, error) {
	ctx, cancel := withCallTimeout(ctx, l.callTimeout)
	defer cancel()

	reply, err := l.assistant.Respond(ctx, transcript, available)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, errors.New("assistant returned no reply")
	}
	return reply, nil
}

// runTools executes calls in order. A failing tool yields an error payload for the assistant
// instead of stopping the day.
func (l *ToolLoop) runTools(ctx context.Context, day string, calls []tools.Call) ([]mealplanner.Turn, []mealplanner.ToolCallLog) {
	turns := make([]mealplanner.Turn, 0, len(calls))
	logs := make([]mealplanner.ToolCallLog, 0, len(calls))

	for _, call := range calls {
		slog.Info("TOOL_LOOP: Handling tool call", "day", day, "name", call.Name)
		tlog := mealplanner.ToolCallLog{Name: call.Name, Input: call.Input}

		output, err := l.runTool(ctx, call)
		if err != nil {
			slog.Warn("TOOL_LOOP: Tool call failed", "day", day, "name", call.Name, "error", err)
			tlog.Error = err.Error()
			output = map[string]any{"error": err.Error()}
		} else {
			tlog.Output = output
		}
		logs = append(logs, tlog)

		content, merr := json.Marshal(output)
		if merr != nil {
			content, _ = json.Marshal(map[string]any{"error": fmt.Sprintf("encode tool output: %v", merr)})
		}
		turns = append(turns, mealplanner.ToolResultTurn(call, string(content)))
	}
	return turns, logs
}

func (l *ToolLoop) runTool(ctx context.Context, call tools.Call) (map[string]any, error) {
	tool, err := l.toolProvider.GetTool(call.Name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withCallTimeout(ctx, l.callTimeout)
	defer cancel()

	output, err := tool.Run(ctx, call.Input)
	if err != nil {
		return nil, fmt.Errorf("tool %q failed: %w", call.Name, err)
	}
	return output, nil
}

func (l *ToolLoop) logIteration(iter mealplanner.IterationLog) {
	if err := l.logger.LogIteration(iter); err != nil {
		slog.Error("Failed to log coordination iteration", "error", err, "day", iter.Day, "iteration", iter.Iteration)
	}
}

func withCallTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
