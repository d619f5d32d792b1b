// Package orchestrator runs a conversation through every registered
// category agent in dependency order, producing the category artifacts
// that make up a user's memory (spec §4.7).
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nevamind-ai/memu-go/category"
	"github.com/nevamind-ai/memu-go/categoryagent"
	"github.com/nevamind-ai/memu-go/conversation"
	"github.com/nevamind-ai/memu-go/memerr"
)

// AgentOutcome records what happened when one category agent ran during
// an ingestion.
type AgentOutcome struct {
	AgentName    string
	Success      bool
	Error        string
	OutputLength int
	Skipped      bool // true if skipped due to an unavailable dependency
}

// IngestionReport summarizes one call to Ingest.
type IngestionReport struct {
	// JobID uniquely identifies this ingestion run, for correlating its
	// outcomes and log lines with a single caller-visible request.
	JobID          string
	Outcomes       []AgentOutcome
	EmbeddingCount int
	Duration       time.Duration
}

// Agent owns the category registry and the concrete categoryagent.BaseAgent
// for every registered category, and runs ingestion jobs against them.
type Agent struct {
	registry *category.Registry
	agents   map[string]*categoryagent.BaseAgent
}

// New creates an orchestrator Agent around an already-populated registry.
// Use RegisterAgent to attach a runnable BaseAgent to each registered
// category before calling Ingest.
func New(registry *category.Registry) *Agent {
	return &Agent{registry: registry, agents: make(map[string]*categoryagent.BaseAgent)}
}

// RegisterAgent attaches the runnable agent for an already-registered
// category. cfg.Name must match a category previously added to the
// registry (spec §4.7's register_agent).
func (a *Agent) RegisterAgent(cfg category.Config, agent *categoryagent.BaseAgent) error {
	const op = "orchestrator.Agent.RegisterAgent"
	if _, err := a.registry.Get(cfg.Name); err != nil {
		return memerr.Wrap(memerr.UnknownCategory, op, err)
	}
	a.agents[cfg.Name] = agent
	return nil
}

// Ingest runs every registered category agent, in dependency order, over
// one conversation for one user. The activity category (if registered)
// is expected to have no dependencies and receives the raw conversation
// transcript as its input; every other agent receives the activity
// agent's produced text as input_content, and the full map of
// category-name -> produced-text so far as dependency_content.
func (a *Agent) Ingest(ctx context.Context, agentID, userID string, messages []conversation.Message, sessionDate string) (*IngestionReport, error) {
	start := time.Now()

	order, err := a.registry.DependencyOrder()
	if err != nil {
		return nil, err
	}

	transcript := conversation.Transcript(messages)

	produced := make(map[string]string)
	unavailable := make(map[string]bool)
	report := &IngestionReport{JobID: uuid.New().String()}

	const op = "orchestrator.Agent.Ingest"

	for _, name := range order {
		cfg, err := a.registry.Get(name)
		if err != nil {
			// DependencyOrder only ever returns names the registry itself
			// produced; a lookup miss here means the registry's internal
			// state is inconsistent, not a caller mistake.
			log.Printf("[ORCHESTRATOR] internal invariant violated: %s missing from registry after DependencyOrder", name)
			return nil, memerr.Wrap(memerr.InternalInvariant, op, err)
		}

		if blocked := dependencyBlocked(cfg, unavailable); blocked {
			unavailable[name] = true
			depErr := memerr.New(memerr.DependencyUnavailable, op, fmt.Sprintf("%s: upstream dependency unavailable", name))
			report.Outcomes = append(report.Outcomes, AgentOutcome{AgentName: name, Skipped: true, Error: depErr.Error()})
			log.Printf("[ORCHESTRATOR] %s: skipped, dependency unavailable", name)
			continue
		}

		runner, ok := a.agents[name]
		if !ok {
			// No runnable agent attached for this registered category;
			// treat as unavailable for dependents without failing the job.
			unavailable[name] = true
			depErr := memerr.New(memerr.DependencyUnavailable, op, fmt.Sprintf("%s: no agent registered", name))
			report.Outcomes = append(report.Outcomes, AgentOutcome{AgentName: name, Skipped: true, Error: depErr.Error()})
			continue
		}

		input := categoryagent.Input{
			UserID:            userID,
			SessionDate:       sessionDate,
			DependencyContent: copyMap(produced),
		}
		if len(cfg.Dependencies) == 0 {
			input.InputContent = transcript
		} else {
			input.InputContent = produced["activity"]
		}

		result, err := runner.Process(ctx, input)
		if err != nil {
			unavailable[name] = true
			report.Outcomes = append(report.Outcomes, AgentOutcome{
				AgentName: name,
				Success:   false,
				Error:     err.Error(),
			})
			log.Printf("[ORCHESTRATOR] %s: failed: %v", name, err)
			continue
		}

		if !result.Written {
			// Produced empty output: dependents can't consult this
			// category's content, so treat it the same as a dependency
			// failure for everything downstream (spec §4.7, §7).
			unavailable[name] = true
			report.Outcomes = append(report.Outcomes, AgentOutcome{AgentName: name, Success: true, Skipped: false})
			continue
		}

		produced[name] = result.Content
		report.EmbeddingCount++
		report.Outcomes = append(report.Outcomes, AgentOutcome{
			AgentName:    name,
			Success:      true,
			OutputLength: len(result.Content),
		})
	}

	report.Duration = time.Since(start)
	return report, nil
}

// dependencyBlocked reports whether cfg has any dependency marked
// unavailable, which transitively marks cfg unavailable too.
func dependencyBlocked(cfg category.Config, unavailable map[string]bool) bool {
	for _, dep := range cfg.Dependencies {
		if unavailable[dep] {
			return true
		}
	}
	return false
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
