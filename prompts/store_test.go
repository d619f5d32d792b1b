package prompts

import (
	"strings"
	"testing"

	"github.com/nevamind-ai/memu-go/memerr"
)

func TestGet_BuiltinTemplate(t *testing.T) {
	s := NewStore("")
	body, err := s.Get("activity")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(body, "{character_name}") {
		t.Fatalf("expected activity template to reference character_name, got %q", body)
	}
}

func TestGet_UnknownTemplate(t *testing.T) {
	s := NewStore("")
	_, err := s.Get("does-not-exist")
	if err == nil || !memerr.Is(err, memerr.TemplateNotFound) {
		t.Fatalf("expected TemplateNotFound, got %v", err)
	}
}

func TestRender_UnknownPlaceholderBecomesEmptyString(t *testing.T) {
	out := render("hello {name}, your {missing} is ready", map[string]string{"name": "Alex"}, "test")
	if out != "hello Alex, your  is ready" {
		t.Fatalf("unexpected render output: %q", out)
	}
}

func TestRender_ExtraVariablesIgnored(t *testing.T) {
	out := render("hello {name}", map[string]string{"name": "Alex", "unused": "ignored"}, "test")
	if out != "hello Alex" {
		t.Fatalf("unexpected render output: %q", out)
	}
}

func TestRender_LiteralBraceLeftAlone(t *testing.T) {
	out := render(`example: {"key": "value"}`, nil, "test")
	if out != `example: {"key": "value"}` {
		t.Fatalf("expected literal JSON braces preserved, got %q", out)
	}
}

func TestRender_CachesAcrossCalls(t *testing.T) {
	s := NewStore("")
	_, err := s.Render("profile", map[string]string{"character_name": "Alex"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.mu.RLock()
	_, cached := s.cache["profile"]
	s.mu.RUnlock()
	if !cached {
		t.Fatalf("expected template to be cached after first render")
	}
}
