// Package response answers free-form questions grounded in one or more
// memory spaces, driving an iterative retrieve-and-synthesize loop either
// itself (direct mode) or by exposing tool schemas to the model
// (tool-calling mode) (spec §4.9).
package response

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nevamind-ai/memu-go/llm"
	"github.com/nevamind-ai/memu-go/memerr"
	"github.com/nevamind-ai/memu-go/prompts"
	"github.com/nevamind-ai/memu-go/recall"
)

const defaultMaxIterations = 3

// Snippet is one retrieved piece of content attributed to the user whose
// memory space produced it.
type Snippet struct {
	UserID   string
	Category string
	Content  string
}

// dedupKey is (owning user, trimmed lowercased content) — two snippets
// sharing it are duplicates (spec §4.9.4).
func (s Snippet) dedupKey() string {
	return s.UserID + "\x00" + strings.ToLower(strings.TrimSpace(s.Content))
}

// IterationTrace records one pass of the direct-mode loop.
type IterationTrace struct {
	Query         string
	SnippetsFound int
	Sufficient    bool
	MissingInfo   string
	Confidence    float64
	NextQuery     string
}

// Answer is the result of Agent.Answer.
type Answer struct {
	// TraceID uniquely identifies this question-answering run, so callers
	// can correlate PerIterationTrace entries (and the logs they generate)
	// with a single client-visible request.
	TraceID           string
	Text              string
	IterationsUsed    int
	PerIterationTrace []IterationTrace
	RetrievedSnippets []Snippet
}

// newTraceID generates a durable identifier for one Answer run.
func newTraceID() string {
	return uuid.New().String()
}

// Agent answers questions over one or more candidate users' memory
// spaces, backed by a recall agent for retrieval and an LLM client for
// sufficiency judgment, requery proposal, and answer synthesis.
type Agent struct {
	Recall  *recall.Agent
	LLM     llm.Client
	Prompts *prompts.Store
	AgentID string

	// SearchLimit bounds how many hits Search returns per candidate user per
	// iteration. Defaults to 10 if zero.
	SearchLimit int
}

// New builds a response Agent.
func New(recallAgent *recall.Agent, client llm.Client, promptStore *prompts.Store, agentID string) *Agent {
	return &Agent{Recall: recallAgent, LLM: client, Prompts: promptStore, AgentID: agentID}
}

// dedupeSnippets removes duplicate snippets by (owning user, trimmed
// lowercased content), preserving first-seen order (spec §4.9.4).
func dedupeSnippets(snippets []Snippet) []Snippet {
	seen := make(map[string]bool, len(snippets))
	out := make([]Snippet, 0, len(snippets))
	for _, s := range snippets {
		key := s.dedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// buildContext renders deduplicated snippets as a numbered context block
// for prompting.
func buildContext(snippets []Snippet) string {
	var b strings.Builder
	for i, s := range snippets {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, s.UserID, s.Content)
	}
	return b.String()
}

// truncate keeps the first n runes of s, adding "..." when it cut anything,
// for the requery prompt's
// "truncated summary of the current context" input.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func sortUsers(users []string) []string {
	out := append([]string(nil), users...)
	sort.Strings(out)
	return out
}

func wrapLLMErr(op string, err error) error {
	return memerr.Wrap(memerr.LLMCallFailed, op, err)
}
