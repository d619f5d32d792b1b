// Package recall implements multi-modal search, similarity analysis, and
// document import over a memory space's category artifacts (spec §4.8).
package recall

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/nevamind-ai/memu-go/category"
	"github.com/nevamind-ai/memu-go/embedder"
	"github.com/nevamind-ai/memu-go/memerr"
	"github.com/nevamind-ai/memu-go/storage"
)

// Method names accepted by Search's methods parameter.
const (
	MethodSemantic = "semantic"
	MethodBM25     = "bm25"
	MethodString   = "string"
)

// Score weights from the combined-score formula (spec §4.8.1 step 3).
const (
	weightSemantic = 0.5
	weightBM25     = 0.3
	weightString   = 0.2

	exactMatchBoostCap = 0.2

	tierHigh   = 0.7
	tierMedium = 0.4

	// defaultMinSemanticSimilarity is the cutoff below which a semantic
	// score is treated as noise and dropped to zero rather than
	// contributing to the combined score (spec §9 open question,
	// pinned at >= 0.1 for inclusion unless the caller overrides).
	defaultMinSemanticSimilarity = 0.1
)

// MethodScores holds the per-method scores computed for one document
// against one query.
type MethodScores struct {
	Semantic   float64
	BM25       float64
	String     float64
	ExactMatch bool
}

// Hit is one scored search result.
type Hit struct {
	UserID    string
	Category  string
	LineIndex int
	Content   string

	Scores   MethodScores
	Combined float64
	Methods  []string
	Tier     string // "high", "medium", "low"
}

// Agent runs multi-modal search, similarity analysis, and document
// import against one storage backend.
type Agent struct {
	Storage  storage.Backend
	Embedder embedder.Embedder // optional; nil disables true semantic scoring
	Registry *category.Registry

	stop *StopSignal
}

// New creates a recall Agent. embed may be nil, in which case the
// semantic method falls back to a word-overlap estimator (spec §4.8.1).
func New(backend storage.Backend, embed embedder.Embedder, registry *category.Registry) *Agent {
	return &Agent{Storage: backend, Embedder: embed, Registry: registry, stop: NewStopSignal()}
}

// Stop returns the agent's cooperative cancellation signal.
func (a *Agent) Stop() *StopSignal { return a.stop }

// SearchOptions parameterizes Search.
type SearchOptions struct {
	Categories []string // empty means every registered category
	Limit      int
	Methods    []string // empty means every method; semantic falls back to word overlap without an Embedder

	// MinSemanticSimilarity overrides defaultMinSemanticSimilarity. Zero
	// means "use the default", negative means "no cutoff".
	MinSemanticSimilarity float64
}

// Search runs the multi-modal search procedure and returns the top
// matching documents across the requested categories, ranked by combined
// score (spec §4.8.1).
func (a *Agent) Search(ctx context.Context, agentID, userID, query string, opts SearchOptions) ([]Hit, error) {
	const op = "recall.Agent.Search"

	categories := opts.Categories
	if len(categories) == 0 {
		categories = a.allCategoryNames()
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	methods := opts.Methods
	if len(methods) == 0 {
		methods = a.defaultMethods()
	}

	docs, err := a.collectDocuments(ctx, agentID, userID, categories)
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}
	if a.stop.Stopped() {
		return nil, nil
	}
	if len(docs) == 0 {
		return nil, nil
	}

	scores := make([]MethodScores, len(docs))

	useMethod := func(name string) bool {
		for _, m := range methods {
			if m == name {
				return true
			}
		}
		return false
	}

	if useMethod(MethodBM25) {
		a.scoreBM25(query, docs, scores)
	}
	if a.stop.Stopped() {
		return nil, nil
	}

	if useMethod(MethodString) {
		for i, d := range docs {
			s, exact := stringScore(query, d.Content)
			scores[i].String = s
			scores[i].ExactMatch = exact
		}
	}

	if useMethod(MethodSemantic) {
		minSemantic := opts.MinSemanticSimilarity
		if minSemantic == 0 {
			minSemantic = defaultMinSemanticSimilarity
		}
		if err := a.scoreSemantic(ctx, query, docs, scores, minSemantic); err != nil {
			return nil, memerr.Wrap(memerr.EmbeddingFailed, op, err)
		}
	}
	if a.stop.Stopped() {
		return nil, nil
	}

	hits := make([]Hit, 0, len(docs))
	for i, d := range docs {
		combined := weightSemantic*scores[i].Semantic + weightBM25*scores[i].BM25 + weightString*scores[i].String
		if scores[i].ExactMatch {
			combined += math.Min(1-combined, exactMatchBoostCap)
		}
		if combined <= 0 {
			continue
		}
		hits = append(hits, Hit{
			UserID:    userID,
			Category:  d.Category,
			LineIndex: d.LineIndex,
			Content:   d.Content,
			Scores:    scores[i],
			Combined:  combined,
			Methods:   methods,
			Tier:      relevanceTier(combined),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Combined > hits[j].Combined })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func relevanceTier(combined float64) string {
	switch {
	case combined >= tierHigh:
		return "high"
	case combined >= tierMedium:
		return "medium"
	default:
		return "low"
	}
}

// defaultMethods runs all three search methods; semantic falls back to a
// word-overlap estimator when no embedder is configured (spec §4.8.1).
func (a *Agent) defaultMethods() []string {
	return []string{MethodSemantic, MethodBM25, MethodString}
}

func (a *Agent) allCategoryNames() []string {
	if a.Registry == nil {
		return nil
	}
	cfgs := a.Registry.List()
	names := make([]string, len(cfgs))
	for i, c := range cfgs {
		names[i] = c.Name
	}
	return names
}

func (a *Agent) collectDocuments(ctx context.Context, agentID, userID string, categories []string) ([]Document, error) {
	var all []Document
	for _, catName := range categories {
		if a.stop.Stopped() {
			break
		}
		cfg, err := a.categoryConfig(catName)
		if err != nil {
			continue
		}
		content, ok, err := a.Storage.Read(ctx, agentID, userID, cfg.Filename)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		all = append(all, splitDocuments(catName, content)...)
	}
	return all, nil
}

func (a *Agent) categoryConfig(name string) (category.Config, error) {
	if a.Registry == nil {
		return category.Config{}, fmt.Errorf("recall.Agent: no category registry configured")
	}
	return a.Registry.Get(name)
}

func (a *Agent) scoreBM25(query string, docs []Document, out []MethodScores) {
	corpus := make([]string, len(docs))
	for i, d := range docs {
		corpus[i] = d.Content
	}
	ranker := newBM25(corpus)
	raw := ranker.scores(query)

	maxScore := 0.0
	for _, s := range raw {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return
	}
	for i, s := range raw {
		out[i].BM25 = s / maxScore
	}
}

func (a *Agent) scoreSemantic(ctx context.Context, query string, docs []Document, out []MethodScores, minSemantic float64) error {
	if a.Embedder == nil {
		for i, d := range docs {
			out[i].Semantic = cutoff(jaccardSimilarity(query, d.Content), minSemantic)
		}
		return nil
	}

	queryVec, err := a.Embedder.Embed(ctx, query)
	if err != nil {
		return err
	}
	for i, d := range docs {
		docVec, err := a.Embedder.Embed(ctx, d.Content)
		if err != nil {
			return err
		}
		out[i].Semantic = cutoff(clampUnit(cosineSimilarity(queryVec, docVec)), minSemantic)
	}
	return nil
}

// cutoff drops a semantic score to zero if it falls below min, treating
// it as noise rather than a weak-but-real match. min < 0 disables the
// cutoff entirely.
func cutoff(score, min float64) float64 {
	if min >= 0 && score < min {
		return 0
	}
	return score
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
