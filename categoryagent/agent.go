// Package categoryagent implements the per-category memory agents that do
// the actual read-generate-write work for one category of a user's
// memory (spec §4.5, §4.6). A BaseAgent handles everything common to
// every category — reading dependency content, rendering a prompt,
// calling the model, persisting the result, embedding it — and delegates
// only the category-specific prompt variables and output shape to a
// Behavior.
package categoryagent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nevamind-ai/memu-go/category"
	"github.com/nevamind-ai/memu-go/embedder"
	"github.com/nevamind-ai/memu-go/llm"
	"github.com/nevamind-ai/memu-go/memerr"
	"github.com/nevamind-ai/memu-go/prompts"
	"github.com/nevamind-ai/memu-go/storage"
)

// Behavior supplies the category-specific pieces of processing: which
// prompt variables to add beyond the common ones, and how to turn the
// model's raw output into the content actually written to storage.
type Behavior interface {
	// ExtraPromptVariables returns additional {key} substitutions beyond
	// the common set (character_name, input_content, session_date,
	// current_memory, plus every dependency's content keyed by category
	// name). Most behaviors return nil.
	ExtraPromptVariables(input Input) map[string]string

	// ShapeOutput post-processes the model's raw completion into the
	// content that gets written. Most behaviors just trim whitespace;
	// this exists for categories needing stricter shaping.
	ShapeOutput(raw string) string
}

// Input is everything a Behavior needs to build its prompt variables.
type Input struct {
	UserID           string
	InputContent     string
	SessionDate      string
	CurrentMemory    string
	DependencyContent map[string]string // category name -> content
}

// Result is what Process returns on success.
type Result struct {
	Content string
	Written bool // false if the model produced nothing and Append meant "nothing new"
}

// BaseAgent runs one category's full process: read current state for the
// user, render the category's prompt template, call the model, shape the
// output, persist it (replace or append per the category's config), and
// embed it for recall.
type BaseAgent struct {
	AgentID  string
	Config   category.Config
	Behavior Behavior

	LLM      llm.Client
	Storage  storage.Backend
	Embedder embedder.Embedder
	Prompts  *prompts.Store
}

// Process implements the read -> prompt -> generate -> write -> embed
// pipeline for one user, mirroring the read_memory/_prepare_prompt/
// _generate_content/write_memory/_generate_embeddings sequence every
// category agent in the original implementation follows.
func (a *BaseAgent) Process(ctx context.Context, in Input) (*Result, error) {
	op := fmt.Sprintf("categoryagent.BaseAgent.Process[%s]", a.Config.Name)

	current, _, err := a.Storage.Read(ctx, a.AgentID, in.UserID, a.Config.Filename)
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	in.CurrentMemory = current

	prompt, err := a.renderPrompt(in)
	if err != nil {
		return nil, err
	}

	resp, err := a.LLM.Complete(ctx, llm.Request{
		SystemPrompt: "",
		Messages:     []llm.Message{{Role: "user", Text: prompt}},
		MaxTokens:    2048,
	})
	if err != nil {
		// AgentGenerationFailed wraps the underlying LLMCallFailed/LLMTimeout
		// for the ingestion report; memerr.Is still matches the inner kind.
		return nil, memerr.Wrap(memerr.AgentGenerationFailed, op, wrapLLMErr(op, err))
	}

	content := a.Behavior.ShapeOutput(resp.Text)
	if a.Config.Append && strings.TrimSpace(content) == "" {
		log.Printf("[CATEGORYAGENT] %s: nothing new for user=%s", a.Config.Name, in.UserID)
		return &Result{Written: false}, nil
	}

	if a.Config.Append {
		if err := a.Storage.Append(ctx, a.AgentID, in.UserID, a.Config.Filename, content); err != nil {
			return nil, memerr.Wrap(memerr.StoragePersistFailed, op, err)
		}
	} else {
		if err := a.Storage.Write(ctx, a.AgentID, in.UserID, a.Config.Filename, content); err != nil {
			return nil, memerr.Wrap(memerr.StoragePersistFailed, op, err)
		}
	}

	a.embed(ctx, in.UserID, content)

	log.Printf("[CATEGORYAGENT] %s: processed user=%s (%d bytes)", a.Config.Name, in.UserID, len(content))
	return &Result{Content: content, Written: true}, nil
}

// wrapLLMErr classifies an LLM call failure as LLMTimeout when the
// context deadline was the cause, LLMCallFailed otherwise (spec §7).
func wrapLLMErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return memerr.Wrap(memerr.LLMTimeout, op, err)
	}
	return memerr.Wrap(memerr.LLMCallFailed, op, err)
}

func (a *BaseAgent) renderPrompt(in Input) (string, error) {
	op := fmt.Sprintf("categoryagent.BaseAgent.renderPrompt[%s]", a.Config.Name)

	vars := map[string]string{
		"character_name": in.UserID,
		"input_content":  in.InputContent,
		"session_date":   in.SessionDate,
		"current_memory": in.CurrentMemory,
	}
	for category, content := range in.DependencyContent {
		vars[category] = content
	}
	if extra := a.Behavior.ExtraPromptVariables(in); extra != nil {
		for k, v := range extra {
			vars[k] = v
		}
	}

	prompt, err := a.Prompts.Render(a.Config.PromptTemplateName, vars)
	if err != nil {
		return "", memerr.Wrap(memerr.TemplateNotFound, op, err)
	}
	return prompt, nil
}

// embed generates and stores an embedding for content. Embedding failures
// are logged, not propagated: a category update still succeeds even if
// semantic indexing of it fails, matching the original's swallow-and-log
// behavior for _generate_embeddings.
func (a *BaseAgent) embed(ctx context.Context, userID, content string) {
	if a.Embedder == nil {
		return
	}
	vec, err := a.Embedder.Embed(ctx, content)
	if err != nil {
		log.Printf("[CATEGORYAGENT] %s: embedding failed for user=%s: %v", a.Config.Name, userID, err)
		return
	}
	if err := a.Storage.SaveEmbedding(ctx, a.AgentID, userID, a.Config.Filename, vec); err != nil {
		log.Printf("[CATEGORYAGENT] %s: save embedding failed for user=%s: %v", a.Config.Name, userID, err)
	}
}
