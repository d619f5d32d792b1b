package response

import "testing"

func TestParseSufficiency_StrictJSON(t *testing.T) {
	v := parseSufficiency(`{"sufficient": true, "missing_info": "", "confidence": 0.9}`)
	if !v.Sufficient || v.Confidence != 0.9 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestParseSufficiency_MarkdownFencedJSON(t *testing.T) {
	v := parseSufficiency("```json\n{\"sufficient\": false, \"missing_info\": \"dates\", \"confidence\": 0.4}\n```")
	if v.Sufficient || v.MissingInfo != "dates" {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestParseSufficiency_HeuristicFallbackPositive(t *testing.T) {
	v := parseSufficiency("I believe this is sufficient: true, looks complete.")
	if !v.Sufficient {
		t.Fatalf("expected heuristic positive verdict, got %+v", v)
	}
}

func TestParseSufficiency_HeuristicFallbackNegative(t *testing.T) {
	v := parseSufficiency("this response is not valid json at all and has no keyword")
	if v.Sufficient || v.MissingInfo == "" {
		t.Fatalf("expected heuristic negative verdict, got %+v", v)
	}
}

func TestHeuristicSufficiency_ZeroConfidenceWhenUndetermined(t *testing.T) {
	v := heuristicSufficiency("totally unparseable garbage")
	if v.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", v.Confidence)
	}
}
