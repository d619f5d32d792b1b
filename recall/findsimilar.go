package recall

import "context"

// SimilarHit is one find_similar result: a search Hit plus a lightweight
// lexical comparison against the reference text (spec §4.8.2).
type SimilarHit struct {
	Hit
	Lexical LexicalAnalysis
}

// similarityPoolSize is the candidate pool Search is asked for before
// threshold filtering. It must exceed the corpus size one category's
// artifacts can realistically reach, since Search truncates to its Limit
// by combined score before FindSimilar ever applies threshold: asking for
// only maxResults candidates would silently discard a valid
// above-threshold hit that ranks outside that initial cutoff.
const similarityPoolSize = 100000

// FindSimilar searches using referenceText as the query over a large
// candidate pool, keeps only hits at or above threshold, attaches a
// lexical analysis to each, and only then caps the result to maxResults
// (spec §4.8.2).
func (a *Agent) FindSimilar(ctx context.Context, agentID, userID, referenceText string, threshold float64, maxResults int) ([]SimilarHit, error) {
	hits, err := a.Search(ctx, agentID, userID, referenceText, SearchOptions{Limit: similarityPoolSize})
	if err != nil {
		return nil, err
	}

	out := make([]SimilarHit, 0, len(hits))
	for _, h := range hits {
		if h.Combined < threshold {
			continue
		}
		out = append(out, SimilarHit{
			Hit:     h,
			Lexical: analyzeLexical(referenceText, h.Content),
		})
	}
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}
