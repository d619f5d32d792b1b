package response

import (
	"context"
	"strings"

	"github.com/nevamind-ai/memu-go/jsonrepair"
	"github.com/nevamind-ai/memu-go/llm"
)

// sufficiencyVerdict is the parsed judgment of whether retrieved content
// answers a question (spec §4.9.3).
type sufficiencyVerdict struct {
	Sufficient  bool
	MissingInfo string
	Confidence  float64
}

// checkSufficiency asks the model whether context is enough to answer
// question, using jsonrepair to tolerate fenced or truncated JSON, and
// falling back to a keyword heuristic if parsing fails entirely
// (spec §4.9.3).
func (a *Agent) checkSufficiency(ctx context.Context, question, content string) (sufficiencyVerdict, error) {
	const op = "response.Agent.checkSufficiency"

	if strings.TrimSpace(content) == "" {
		return sufficiencyVerdict{Sufficient: false, MissingInfo: "no relevant information found"}, nil
	}

	prompt, err := a.Prompts.Render("sufficiency_check", map[string]string{
		"question": question,
		"context":  content,
	})
	if err != nil {
		return sufficiencyVerdict{}, err
	}

	resp, err := a.LLM.Complete(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Text: prompt}},
		MaxTokens: 500,
	})
	if err != nil {
		return sufficiencyVerdict{}, wrapLLMErr(op, err)
	}

	return parseSufficiency(resp.Text), nil
}

func parseSufficiency(raw string) sufficiencyVerdict {
	if result, ok := jsonrepair.Extract(raw); ok {
		return sufficiencyVerdict{
			Sufficient:  jsonrepair.Bool(result, "sufficient", false),
			MissingInfo: jsonrepair.String(result, "missing_info", ""),
			Confidence:  jsonrepair.Float(result, "confidence", 0),
		}
	}

	return heuristicSufficiency(raw)
}

// heuristicSufficiency is the single fallback pass when parsing fails
// entirely: "the word 'sufficient' near 'true'" implies a positive verdict,
// otherwise treat the content as insufficient with zero confidence
// (spec §4.9.3).
func heuristicSufficiency(raw string) sufficiencyVerdict {
	lower := strings.ToLower(raw)
	sufficientIdx := strings.Index(lower, "sufficient")
	if sufficientIdx < 0 {
		return sufficiencyVerdict{Sufficient: false, MissingInfo: "could not determine missing information"}
	}

	window := lower[sufficientIdx:]
	if len(window) > 40 {
		window = window[:40]
	}
	if strings.Contains(window, "true") {
		return sufficiencyVerdict{Sufficient: true, Confidence: 0.7}
	}

	return sufficiencyVerdict{Sufficient: false, MissingInfo: "could not determine missing information"}
}
