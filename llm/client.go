// Package llm defines the language-model contract the category agents and
// the response agent use to generate content and answer questions (spec
// §2, §4.5, §4.9). The concrete implementation wraps the Anthropic API;
// the interface exists so tests can substitute a stub.
package llm

import "context"

// ToolSchema describes one callable tool in JSON-schema terms, the shape
// every supported LLM tool-calling API expects.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolCall is one tool invocation an LLM response requested.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// ToolResult is the outcome of executing a ToolCall, fed back to the
// model on the next turn.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Message is one turn in a conversation with the model.
type Message struct {
	Role        string // "user" or "assistant"
	Text        string
	ToolCalls   []ToolCall   // set on assistant turns that invoked tools
	ToolResults []ToolResult // set on user turns that answer tool calls
}

// Request is one call to Complete.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSchema
	MaxTokens    int
}

// Response is the model's reply to a Request.
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// Client generates completions from a language model, optionally
// proposing tool calls when Request.Tools is non-empty.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
