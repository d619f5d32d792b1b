package category

import (
	"sort"
	"sync"

	"github.com/nevamind-ai/memu-go/memerr"
)

// Registry is the thread-safe source of truth for registered categories.
// Shared state across concurrent requests (spec §5): reads take the read
// lock of the single RWMutex below, writes take its write lock.
type Registry struct {
	mu    sync.RWMutex
	byNam map[string]Config
	order []string // registration order, for priority tie-breaking
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byNam: make(map[string]Config)}
}

// NewRegistryWithBuiltins builds a registry pre-populated with the seven
// standard categories.
func NewRegistryWithBuiltins() (*Registry, error) {
	r := NewRegistry()
	for _, c := range Builtin() {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and adds a category config.
func (r *Registry) Register(c Config) error {
	const op = "category.Registry.Register"
	if c.Name == "" {
		return memerr.New(memerr.CategoryConfigError, op, "category name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byNam[c.Name]; exists {
		return memerr.New(memerr.CategoryConfigError, op, "category already registered: "+c.Name)
	}

	for _, dep := range c.Dependencies {
		if dep == c.Name {
			return memerr.New(memerr.CategoryConfigError, op, "category cannot depend on itself: "+c.Name)
		}
		if _, ok := r.byNam[dep]; !ok {
			return memerr.New(memerr.CategoryConfigError, op, "unknown dependency "+dep+" for category "+c.Name)
		}
	}

	r.byNam[c.Name] = c
	r.order = append(r.order, c.Name)

	// A cycle can only be introduced by this registration if some already
	// registered category (transitively) depends on c.Name. Verify the
	// whole graph remains a DAG; roll back on failure.
	if _, err := r.dependencyOrderLocked(); err != nil {
		delete(r.byNam, c.Name)
		r.order = r.order[:len(r.order)-1]
		return err
	}

	return nil
}

// Get fetches a category by name.
func (r *Registry) Get(name string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byNam[name]
	if !ok {
		return Config{}, memerr.New(memerr.UnknownCategory, "category.Registry.Get", "unknown category: "+name)
	}
	return c, nil
}

// List returns every registered category, sorted by priority descending,
// ties broken by registration order.
func (r *Registry) List() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *Registry) listLocked() []Config {
	out := make([]Config, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byNam[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// DependencyOrder returns a topological order of the dependency DAG, using
// priority to break ties among nodes whose dependencies are already
// satisfied. Fails with CycleDetected if the graph is not a DAG.
func (r *Registry) DependencyOrder() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dependencyOrderLocked()
}

func (r *Registry) dependencyOrderLocked() ([]string, error) {
	const op = "category.Registry.DependencyOrder"

	indegree := make(map[string]int, len(r.byNam))
	dependents := make(map[string][]string, len(r.byNam))
	regIndex := make(map[string]int, len(r.order))
	for i, name := range r.order {
		regIndex[name] = i
	}

	for name, cfg := range r.byNam {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for _, dep := range cfg.Dependencies {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	// Ready set: zero-indegree nodes, ordered by priority desc then
	// registration order.
	ready := func(candidates []string) []string {
		sort.SliceStable(candidates, func(i, j int) bool {
			ci, cj := r.byNam[candidates[i]], r.byNam[candidates[j]]
			if ci.Priority != cj.Priority {
				return ci.Priority > cj.Priority
			}
			return regIndex[candidates[i]] < regIndex[candidates[j]]
		})
		return candidates
	}

	var frontier []string
	for name, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, name)
		}
	}
	frontier = ready(frontier)

	var order []string
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		order = append(order, next)

		var newlyReady []string
		for _, child := range dependents[next] {
			indegree[child]--
			if indegree[child] == 0 {
				newlyReady = append(newlyReady, child)
			}
		}
		if len(newlyReady) > 0 {
			frontier = ready(append(frontier, newlyReady...))
		}
	}

	if len(order) != len(r.byNam) {
		return nil, memerr.New(memerr.CycleDetected, op, "category dependency graph contains a cycle")
	}

	return order, nil
}
