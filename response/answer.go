package response

import (
	"context"

	"github.com/nevamind-ai/memu-go/memerr"
	"github.com/nevamind-ai/memu-go/recall"
	"golang.org/x/sync/errgroup"
)

// Answer runs the iterative direct-mode retrieval-and-synthesis loop
// (spec §4.9.1). If users is empty, every user with at least one stored
// artifact under a.AgentID is a candidate. maxIterations defaults to 3
// if zero or negative.
func (a *Agent) Answer(ctx context.Context, question string, users []string, maxIterations int) (*Answer, error) {
	const op = "response.Agent.Answer"

	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	candidates := users
	if len(candidates) == 0 {
		all, err := a.Recall.ListUsers(ctx, a.AgentID)
		if err != nil {
			return nil, memerr.Wrap(memerr.StorageIOError, op, err)
		}
		candidates = all
	}
	candidates = sortUsers(candidates)

	var allSnippets []Snippet
	var trace []IterationTrace
	currentQuery := question
	iterationsUsed := 0

	for i := 0; i < maxIterations; i++ {
		select {
		case <-ctx.Done():
			return nil, memerr.Wrap(memerr.CancelledBySignal, op, ctx.Err())
		default:
		}

		iterationsUsed++
		found, err := a.searchAllUsers(ctx, candidates, currentQuery)
		if err != nil {
			return nil, err
		}
		allSnippets = append(allSnippets, found...)
		allSnippets = dedupeSnippets(allSnippets)

		it := IterationTrace{Query: currentQuery, SnippetsFound: len(found)}

		verdict, err := a.checkSufficiency(ctx, question, buildContext(allSnippets))
		if err != nil {
			// LLMCallFailed/LLMTimeout during sufficiency judgment terminates
			// the iteration loop and falls through to synthesis with
			// whatever has been retrieved so far, rather than aborting the
			// whole request (spec §7).
			it.MissingInfo = err.Error()
			trace = append(trace, it)
			break
		}
		it.Sufficient = verdict.Sufficient
		it.MissingInfo = verdict.MissingInfo
		it.Confidence = verdict.Confidence

		if verdict.Sufficient {
			trace = append(trace, it)
			break
		}

		if i < maxIterations-1 {
			newQuery, ok := a.proposeQuery(ctx, question, verdict.MissingInfo, buildContext(allSnippets))
			if !ok {
				trace = append(trace, it)
				break
			}
			it.NextQuery = newQuery
			currentQuery = newQuery
		}
		trace = append(trace, it)
	}

	answerText, err := a.synthesize(ctx, question, allSnippets)
	if err != nil {
		return nil, err
	}

	return &Answer{
		TraceID:           newTraceID(),
		Text:              answerText,
		IterationsUsed:    iterationsUsed,
		PerIterationTrace: trace,
		RetrievedSnippets: allSnippets,
	}, nil
}

// searchAllUsers runs a recall search for query against every candidate
// user concurrently, one goroutine per user, parallel across independent
// memory spaces only (spec §4.9, §5 — never across category agents).
func (a *Agent) searchAllUsers(ctx context.Context, users []string, query string) ([]Snippet, error) {
	limit := a.SearchLimit
	if limit <= 0 {
		limit = 10
	}

	results := make([][]recall.Hit, len(users))
	g, gctx := errgroup.WithContext(ctx)
	for i, userID := range users {
		g.Go(func() error {
			hits, err := a.Recall.Search(gctx, a.AgentID, userID, query, recall.SearchOptions{Limit: limit})
			if err != nil {
				return err
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, "response.Agent.searchAllUsers", err)
	}

	var out []Snippet
	for _, hits := range results {
		for _, h := range hits {
			out = append(out, Snippet{UserID: h.UserID, Category: h.Category, Content: h.Content})
		}
	}
	return out, nil
}
