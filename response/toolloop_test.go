package response

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nevamind-ai/memu-go/llm"
	"github.com/nevamind-ai/memu-go/llm/stub"
)

func TestRunToolLoop_DispatchesListUsersThenReturnsFinalText(t *testing.T) {
	client := stub.New(
		llm.Response{
			ToolCalls: []llm.ToolCall{{ID: "call1", Name: toolListUsers, Input: map[string]interface{}{}}},
		},
		llm.Response{Text: "Alice is the only user with stored memory."},
	)
	a := newTestAgent(t, client)

	result, err := a.RunToolLoop(context.Background(), "who do you have memory for?", 3)
	if err != nil {
		t.Fatalf("RunToolLoop: %v", err)
	}
	if result.FinalText != "Alice is the only user with stored memory." {
		t.Fatalf("unexpected final text: %q", result.FinalText)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != toolListUsers {
		t.Fatalf("expected one list_users call recorded, got %+v", result.ToolCalls)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(result.ToolCalls[0].Output), &payload); err != nil {
		t.Fatalf("tool output not valid JSON: %v", err)
	}
	if payload["success"] != true {
		t.Fatalf("expected successful tool output, got %+v", payload)
	}
}

func TestRunToolLoop_StopsImmediatelyWhenNoToolCallsRequested(t *testing.T) {
	client := stub.New(llm.Response{Text: "plain answer, no tools needed"})
	a := newTestAgent(t, client)

	result, err := a.RunToolLoop(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("RunToolLoop: %v", err)
	}
	if result.Iterations != 1 {
		t.Fatalf("expected 1 iteration, got %d", result.Iterations)
	}
	if len(result.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls, got %+v", result.ToolCalls)
	}
}

func TestRunToolLoop_BoundedByMaxIterations(t *testing.T) {
	loopingCall := llm.Response{
		ToolCalls: []llm.ToolCall{{ID: "call", Name: toolListUsers, Input: map[string]interface{}{}}},
		Text:      "still working",
	}
	client := stub.New(loopingCall, loopingCall, loopingCall)
	a := newTestAgent(t, client)

	result, err := a.RunToolLoop(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("RunToolLoop: %v", err)
	}
	if result.Iterations != 3 {
		t.Fatalf("expected loop bounded to 3 iterations, got %d", result.Iterations)
	}
	if len(result.ToolCalls) != 3 {
		t.Fatalf("expected 3 dispatched tool calls, got %d", len(result.ToolCalls))
	}
}

func TestRunToolLoop_UnknownToolNameReturnsErrorResult(t *testing.T) {
	client := stub.New(
		llm.Response{ToolCalls: []llm.ToolCall{{ID: "call", Name: "not_a_real_tool", Input: map[string]interface{}{}}}},
		llm.Response{Text: "done"},
	)
	a := newTestAgent(t, client)

	result, err := a.RunToolLoop(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("RunToolLoop: %v", err)
	}
	if len(result.ToolCalls) != 1 || !strings.Contains(result.ToolCalls[0].Output, "unknown tool") {
		t.Fatalf("expected unknown-tool error output, got %+v", result.ToolCalls)
	}
}

func TestHandleGetUserProfile_MissingUserReturnsFailure(t *testing.T) {
	client := stub.New()
	a := newTestAgent(t, client)

	output, isErr := a.handleGetUserProfile(context.Background(), map[string]interface{}{"user_id": "nobody"})
	if !isErr {
		t.Fatalf("expected failure for unknown user")
	}
	if !strings.Contains(output, "no stored memory") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestHandleListUsers_ReturnsSeededUser(t *testing.T) {
	client := stub.New()
	a := newTestAgent(t, client)

	output, isErr := a.handleListUsers(context.Background(), nil)
	if isErr {
		t.Fatalf("expected success, got error output: %q", output)
	}
	if !strings.Contains(output, "alice") {
		t.Fatalf("expected alice in output, got %q", output)
	}
}
