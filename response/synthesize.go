package response

import (
	"context"
	"strings"

	"github.com/nevamind-ai/memu-go/llm"
)

// synthesize builds the final answer from deduplicated snippets,
// extracting the content of <result>...</result> and falling back to the
// model's full output if the delimiters are missing (spec §4.9.1 step 3).
func (a *Agent) synthesize(ctx context.Context, question string, snippets []Snippet) (string, error) {
	const op = "response.Agent.synthesize"

	prompt, err := a.Prompts.Render("answer_synthesis", map[string]string{
		"question": question,
		"context":  buildContext(snippets),
	})
	if err != nil {
		return "", err
	}

	resp, err := a.LLM.Complete(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Text: prompt}},
		MaxTokens: 2000,
	})
	if err != nil {
		return "", wrapLLMErr(op, err)
	}

	return extractResult(resp.Text), nil
}

// extractResult pulls the content of <result>...</result> out of raw,
// tolerating a missing closing tag (the model hit its token limit mid-tag),
// and returns the trimmed full text if no <result> tag is present at all.
func extractResult(raw string) string {
	raw = strings.TrimSpace(raw)

	open := strings.Index(raw, "<result>")
	if open < 0 {
		return raw
	}
	body := raw[open+len("<result>"):]

	if close := strings.Index(body, "</result>"); close >= 0 {
		body = body[:close]
	}
	return strings.TrimSpace(body)
}
