package category

import (
	"testing"

	"github.com/nevamind-ai/memu-go/memerr"
)

func TestDependencyOrder_RootsBeforeDependents(t *testing.T) {
	r := NewRegistry()
	must(t, r.Register(Config{Name: "activity", Priority: 10}))
	must(t, r.Register(Config{Name: "profile", Priority: 5, Dependencies: []string{"activity"}}))
	must(t, r.Register(Config{Name: "event", Priority: 4, Dependencies: []string{"activity"}}))

	order, err := r.DependencyOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order[0] != "activity" {
		t.Fatalf("expected activity first, got %v", order)
	}
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	if pos["profile"] < pos["activity"] || pos["event"] < pos["activity"] {
		t.Fatalf("dependents ran before their dependency: %v", order)
	}
}

func TestDependencyOrder_TieBreaksByRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	must(t, r.Register(Config{Name: "b", Priority: 1}))
	must(t, r.Register(Config{Name: "a", Priority: 1}))

	order, err := r.DependencyOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order[0] != "b" || order[1] != "a" {
		t.Fatalf("expected registration-order tie-break [b a], got %v", order)
	}
}

func TestRegister_UnknownDependencyRejected(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Config{Name: "profile", Dependencies: []string{"activity"}})
	if err == nil || !memerr.Is(err, memerr.CategoryConfigError) {
		t.Fatalf("expected CategoryConfigError, got %v", err)
	}
}

func TestRegister_DuplicateNameRejected(t *testing.T) {
	r := NewRegistry()
	must(t, r.Register(Config{Name: "activity"}))
	err := r.Register(Config{Name: "activity"})
	if err == nil || !memerr.Is(err, memerr.CategoryConfigError) {
		t.Fatalf("expected CategoryConfigError on duplicate, got %v", err)
	}
}

func TestDependencyOrder_CycleDetected(t *testing.T) {
	r := NewRegistry()
	must(t, r.Register(Config{Name: "a"}))
	must(t, r.Register(Config{Name: "b", Dependencies: []string{"a"}}))

	// Register rejects dependencies on categories not yet registered, so a
	// cycle cannot be built through it. Force one by registering c->b and
	// then rewriting a to depend on c via the internal map.
	must(t, r.Register(Config{Name: "c", Dependencies: []string{"b"}}))

	r.mu.Lock()
	cfg := r.byNam["a"]
	cfg.Dependencies = []string{"c"}
	r.byNam["a"] = cfg
	r.mu.Unlock()

	_, err := r.DependencyOrder()
	if err == nil || !memerr.Is(err, memerr.CycleDetected) {
		t.Fatalf("expected CycleDetected, got %v", err)
	}
}

func TestGet_UnknownCategory(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	if err == nil || !memerr.Is(err, memerr.UnknownCategory) {
		t.Fatalf("expected UnknownCategory, got %v", err)
	}
}

func TestList_SortedByPriorityDescending(t *testing.T) {
	r, err := NewRegistryWithBuiltins()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := r.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].Priority < list[i].Priority {
			t.Fatalf("list not sorted by priority desc: %+v", list)
		}
	}
	if list[0].Name != "activity" {
		t.Fatalf("expected activity (priority 10) first, got %s", list[0].Name)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
