package response

import (
	"context"

	"github.com/nevamind-ai/memu-go/jsonrepair"
	"github.com/nevamind-ai/memu-go/llm"
)

// proposeQuery asks the model for a new, more focused search query given
// what's missing, truncating the context summary the way the original
// requery prompt does (spec §4.9.1 step 2e).
func (a *Agent) proposeQuery(ctx context.Context, question, missingInfo, currentContext string) (string, bool) {
	prompt, err := a.Prompts.Render("requery", map[string]string{
		"question":     question,
		"missing_info": missingInfo,
		"context":      truncate(currentContext, 500),
	})
	if err != nil {
		return "", false
	}

	resp, err := a.LLM.Complete(ctx, llm.Request{
		Messages:  []llm.Message{{Role: "user", Text: prompt}},
		MaxTokens: 400,
	})
	if err != nil {
		return "", false
	}

	if result, ok := jsonrepair.Extract(resp.Text); ok {
		query := jsonrepair.String(result, "new_query", "")
		if query != "" {
			return query, true
		}
	}

	return "", false
}
