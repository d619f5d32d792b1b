package response

import "github.com/nevamind-ai/memu-go/llm"

// Tool names exposed by the tool-calling mode (spec §4.9.2).
const (
	toolAnswerQuestion   = "answer_question"
	toolGetUserProfile   = "get_user_profile"
	toolSearchUserEvents = "search_user_events"
	toolListUsers        = "list_users"
)

// ToolSchemas returns the four stable tool schemas the tool-calling driver
// presents to the model (spec §4.9.2).
func ToolSchemas() []llm.ToolSchema {
	return []llm.ToolSchema{
		{
			Name:        toolAnswerQuestion,
			Description: "Answer a question using iterative retrieval across one or more users' memory. Automatically determines whether retrieved content is sufficient and performs additional searches if needed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"question": map[string]interface{}{
						"type":        "string",
						"description": "The question to answer",
					},
					"users": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "User IDs to search. If omitted, every user with stored memory is searched.",
					},
					"max_iterations": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of retrieval iterations (default 3)",
					},
				},
				"required": []string{"question"},
			},
		},
		{
			Name:        toolGetUserProfile,
			Description: "Retrieve every category's stored memory content for a specific user.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user_id": map[string]interface{}{
						"type":        "string",
						"description": "The user to fetch stored memory for",
					},
				},
				"required": []string{"user_id"},
			},
		},
		{
			Name:        toolSearchUserEvents,
			Description: "Search one or more users' memory for content matching a query, using multi-modal (semantic, BM25, string) search.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query",
					},
					"users": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "User IDs to search through",
					},
					"top_k": map[string]interface{}{
						"type":        "integer",
						"description": "Number of most relevant results to return (default 10)",
					},
				},
				"required": []string{"query", "users"},
			},
		},
		{
			Name:        toolListUsers,
			Description: "List every user that has stored memory data available.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
