package response

import "testing"

func TestExtractResult_WithClosingTag(t *testing.T) {
	raw := "<thinking>reasoning here</thinking>\n\n<result>Alice likes tea.</result>"
	if got := extractResult(raw); got != "Alice likes tea." {
		t.Fatalf("expected extracted result, got %q", got)
	}
}

func TestExtractResult_MissingClosingTag(t *testing.T) {
	raw := "<thinking>reasoning</thinking>\n\n<result>Alice likes tea."
	if got := extractResult(raw); got != "Alice likes tea." {
		t.Fatalf("expected result extracted up to end of string, got %q", got)
	}
}

func TestExtractResult_NoTagsReturnsFullOutput(t *testing.T) {
	raw := "Alice likes tea, based on the available context."
	if got := extractResult(raw); got != raw {
		t.Fatalf("expected full output returned, got %q", got)
	}
}
