package response

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nevamind-ai/memu-go/llm"
	"github.com/nevamind-ai/memu-go/recall"
)

// ToolCallRecord is one dispatched tool call, kept for the report returned
// once the loop's iteration budget is spent (spec §4.9.2 step 3).
type ToolCallRecord struct {
	Name    string
	Input   map[string]interface{}
	Output  string
	IsError bool
}

// ToolLoopResult is the outcome of RunToolLoop.
type ToolLoopResult struct {
	FinalText  string
	ToolCalls  []ToolCallRecord
	Iterations int
}

const toolLoopSystemPrompt = "You are a specialized question answering assistant. Use the available tools to answer user questions about stored memory."

// RunToolLoop presents question and the four stable tool schemas to the
// model, dispatching any requested tool calls and reprompting until the
// model stops calling tools or maxIterations turns are spent (spec
// §4.9.2). maxIterations defaults to 3 if zero or negative.
func (a *Agent) RunToolLoop(ctx context.Context, question string, maxIterations int) (*ToolLoopResult, error) {
	const op = "response.Agent.RunToolLoop"

	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	messages := []llm.Message{{Role: "user", Text: question}}
	var calls []ToolCallRecord
	var lastText string

	for i := 0; i < maxIterations; i++ {
		resp, err := a.LLM.Complete(ctx, llm.Request{
			SystemPrompt: toolLoopSystemPrompt,
			Messages:     messages,
			Tools:        ToolSchemas(),
			MaxTokens:    2000,
		})
		if err != nil {
			return nil, wrapLLMErr(op, err)
		}
		lastText = resp.Text

		if len(resp.ToolCalls) == 0 {
			return &ToolLoopResult{FinalText: lastText, ToolCalls: calls, Iterations: i + 1}, nil
		}

		messages = append(messages, llm.Message{Role: "assistant", Text: resp.Text, ToolCalls: resp.ToolCalls})

		var results []llm.ToolResult
		for _, call := range resp.ToolCalls {
			output, isErr := a.dispatchTool(ctx, call)
			calls = append(calls, ToolCallRecord{Name: call.Name, Input: call.Input, Output: output, IsError: isErr})
			results = append(results, llm.ToolResult{ToolCallID: call.ID, Content: output, IsError: isErr})
		}
		messages = append(messages, llm.Message{Role: "user", ToolResults: results})
	}

	return &ToolLoopResult{FinalText: lastText, ToolCalls: calls, Iterations: maxIterations}, nil
}

func (a *Agent) dispatchTool(ctx context.Context, call llm.ToolCall) (output string, isError bool) {
	switch call.Name {
	case toolAnswerQuestion:
		return a.handleAnswerQuestion(ctx, call.Input)
	case toolGetUserProfile:
		return a.handleGetUserProfile(ctx, call.Input)
	case toolSearchUserEvents:
		return a.handleSearchUserEvents(ctx, call.Input)
	case toolListUsers:
		return a.handleListUsers(ctx, call.Input)
	default:
		return marshalToolResult(map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("unknown tool: %s", call.Name),
		})
	}
}

func (a *Agent) handleAnswerQuestion(ctx context.Context, input map[string]interface{}) (string, bool) {
	question, _ := input["question"].(string)
	users := stringSliceArg(input["users"])
	maxIterations := intArg(input["max_iterations"], defaultMaxIterations)

	result, err := a.Answer(ctx, question, users, maxIterations)
	if err != nil {
		return marshalToolResult(map[string]interface{}{"success": false, "error": err.Error()})
	}
	return marshalToolResult(map[string]interface{}{
		"success":         true,
		"answer":          result.Text,
		"iterations_used": result.IterationsUsed,
	})
}

func (a *Agent) handleGetUserProfile(ctx context.Context, input map[string]interface{}) (string, bool) {
	userID, _ := input["user_id"].(string)
	summary, err := a.Recall.Summary(ctx, a.AgentID, userID)
	if err != nil {
		return marshalToolResult(map[string]interface{}{"success": false, "error": err.Error()})
	}
	if len(summary) == 0 {
		return marshalToolResult(map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("no stored memory found for user %q", userID),
		})
	}
	return marshalToolResult(map[string]interface{}{
		"success": true,
		"user_id": userID,
		"profile": summary,
	})
}

func (a *Agent) handleSearchUserEvents(ctx context.Context, input map[string]interface{}) (string, bool) {
	query, _ := input["query"].(string)
	users := stringSliceArg(input["users"])
	topK := intArg(input["top_k"], 10)

	var allHits []recall.Hit
	for _, userID := range users {
		hits, err := a.Recall.Search(ctx, a.AgentID, userID, query, recall.SearchOptions{Limit: topK})
		if err != nil {
			return marshalToolResult(map[string]interface{}{"success": false, "error": err.Error()})
		}
		allHits = append(allHits, hits...)
	}

	return marshalToolResult(map[string]interface{}{
		"success":        true,
		"events":         allHits,
		"total_found":    len(allHits),
		"users_searched": users,
	})
}

func (a *Agent) handleListUsers(ctx context.Context, _ map[string]interface{}) (string, bool) {
	users, err := a.Recall.ListUsers(ctx, a.AgentID)
	if err != nil {
		return marshalToolResult(map[string]interface{}{"success": false, "error": err.Error()})
	}
	return marshalToolResult(map[string]interface{}{
		"success":     true,
		"users":       users,
		"total_count": len(users),
	})
}

func marshalToolResult(v map[string]interface{}) (string, bool) {
	isErr, _ := v["success"].(bool)
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()), true
	}
	return string(b), !isErr
}

func stringSliceArg(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intArg(v interface{}, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
