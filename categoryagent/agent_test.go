package categoryagent

import (
	"context"
	"testing"

	"github.com/nevamind-ai/memu-go/category"
	"github.com/nevamind-ai/memu-go/embedder/mock"
	"github.com/nevamind-ai/memu-go/llm"
	"github.com/nevamind-ai/memu-go/llm/stub"
	"github.com/nevamind-ai/memu-go/memerr"
	"github.com/nevamind-ai/memu-go/prompts"
	"github.com/nevamind-ai/memu-go/storage/filebackend"
)

func newTestAgent(t *testing.T, cfg category.Config, client llm.Client) *BaseAgent {
	t.Helper()
	backend, err := filebackend.New(t.TempDir())
	if err != nil {
		t.Fatalf("filebackend.New: %v", err)
	}
	return &BaseAgent{
		AgentID:  "agent1",
		Config:   cfg,
		Behavior: DefaultBehavior{},
		LLM:      client,
		Storage:  backend,
		Embedder: mock.New(16),
		Prompts:  prompts.NewStore(""),
	}
}

func TestProcess_ReplaceCategoryWritesModelOutput(t *testing.T) {
	client := stub.New(llm.Response{Text: "Alex enjoys hiking and photography."})
	agent := newTestAgent(t, category.Config{
		Name: "interests", Filename: "interests.md", PromptTemplateName: "interests",
	}, client)

	result, err := agent.Process(context.Background(), Input{UserID: "alex", InputContent: "talked about hiking"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Written || result.Content != "Alex enjoys hiking and photography." {
		t.Fatalf("unexpected result: %+v", result)
	}

	content, ok, err := agent.Storage.Read(context.Background(), "agent1", "alex", "interests.md")
	if err != nil || !ok || content != result.Content {
		t.Fatalf("expected persisted content to match, got %q ok=%v err=%v", content, ok, err)
	}
}

func TestProcess_AppendCategoryAccumulates(t *testing.T) {
	client := stub.New(
		llm.Response{Text: "- got a promotion"},
		llm.Response{Text: "- adopted a dog"},
	)
	agent := newTestAgent(t, category.Config{
		Name: "event", Filename: "event.md", PromptTemplateName: "event", Append: true,
	}, client)
	ctx := context.Background()

	if _, err := agent.Process(ctx, Input{UserID: "alex", InputContent: "a"}); err != nil {
		t.Fatalf("Process #1: %v", err)
	}
	if _, err := agent.Process(ctx, Input{UserID: "alex", InputContent: "b"}); err != nil {
		t.Fatalf("Process #2: %v", err)
	}

	content, _, _ := agent.Storage.Read(ctx, "agent1", "alex", "event.md")
	want := "- got a promotion\n- adopted a dog\n"
	if content != want {
		t.Fatalf("expected accumulated events %q, got %q", want, content)
	}
}

func TestProcess_AppendCategoryEmptyOutputSkipsWrite(t *testing.T) {
	client := stub.New(llm.Response{Text: "   "})
	agent := newTestAgent(t, category.Config{
		Name: "event", Filename: "event.md", PromptTemplateName: "event", Append: true,
	}, client)

	result, err := agent.Process(context.Background(), Input{UserID: "alex", InputContent: "nothing new"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Written {
		t.Fatalf("expected no write when model produces nothing new")
	}

	exists, err := agent.Storage.Exists(context.Background(), "agent1", "alex", "event.md")
	if err != nil || exists {
		t.Fatalf("expected no artifact written, exists=%v err=%v", exists, err)
	}
}

func TestProcess_LLMFailurePropagatesAgentGenerationFailed(t *testing.T) {
	client := stub.New().WithError(assertErr{"boom"})
	agent := newTestAgent(t, category.Config{
		Name: "profile", Filename: "profile.md", PromptTemplateName: "profile",
	}, client)

	_, err := agent.Process(context.Background(), Input{UserID: "alex", InputContent: "x"})
	if err == nil || !memerr.Is(err, memerr.AgentGenerationFailed) {
		t.Fatalf("expected AgentGenerationFailed, got %v", err)
	}
	if !memerr.Is(err, memerr.LLMCallFailed) {
		t.Fatalf("expected the wrapped LLMCallFailed kind to still be detectable, got %v", err)
	}
}

func TestProcess_LLMTimeoutWrappedAsAgentGenerationFailed(t *testing.T) {
	client := stub.New().WithError(context.DeadlineExceeded)
	agent := newTestAgent(t, category.Config{
		Name: "profile", Filename: "profile.md", PromptTemplateName: "profile",
	}, client)

	_, err := agent.Process(context.Background(), Input{UserID: "alex", InputContent: "x"})
	if err == nil || !memerr.Is(err, memerr.AgentGenerationFailed) {
		t.Fatalf("expected AgentGenerationFailed, got %v", err)
	}
	if !memerr.Is(err, memerr.LLMTimeout) {
		t.Fatalf("expected the wrapped LLMTimeout kind to still be detectable, got %v", err)
	}
}

func TestProcess_WithDependencyContentMakesSingleModelCall(t *testing.T) {
	client := stub.New(llm.Response{Text: "ok"})
	agent := newTestAgent(t, category.Config{
		Name: "profile", Filename: "profile.md", PromptTemplateName: "profile",
	}, client)

	_, err := agent.Process(context.Background(), Input{
		UserID:            "alex",
		InputContent:      "summary",
		DependencyContent: map[string]string{"activity": "alex talked about hiking"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
