// Package category is the source of truth for the set of memory categories
// and their metadata (spec §4.2).
package category

// Config describes one memory category.
type Config struct {
	// Name uniquely identifies the category (identifier-safe).
	Name string

	// Filename is the stable storage key within a memory space.
	Filename string

	// Description is human text shown in tool schemas and docs.
	Description string

	// Dependencies are category names that must be produced/updated before
	// this one runs in an ingestion pass.
	Dependencies []string

	// Priority breaks ties among categories whose dependencies are already
	// satisfied; higher runs earlier.
	Priority int

	// PromptTemplateName references a template in the prompt store.
	PromptTemplateName string

	// Append selects append-over-replace write semantics for this category
	// (spec §4.5 step 4 — a per-category policy, not a base-class concern).
	Append bool
}

// Builtin returns the seven standard categories shipped with the core.
func Builtin() []Config {
	return []Config{
		{
			Name:               "activity",
			Filename:           "activity.md",
			Description:        "Per-session summary of what happened in the conversation; the canonical input for every other category.",
			Dependencies:       nil,
			Priority:           10,
			PromptTemplateName: "activity",
		},
		{
			Name:               "profile",
			Filename:           "profile.md",
			Description:        "Durable facts about the user: identity, role, preferences.",
			Dependencies:       []string{"activity"},
			Priority:           5,
			PromptTemplateName: "profile",
		},
		{
			Name:               "event",
			Filename:           "event.md",
			Description:        "Notable things that happened, append-only.",
			Dependencies:       []string{"activity"},
			Priority:           4,
			PromptTemplateName: "event",
			Append:             true,
		},
		{
			Name:               "reminder",
			Filename:           "reminder.md",
			Description:        "Things the user asked to be reminded about.",
			Dependencies:       []string{"activity"},
			Priority:           3,
			PromptTemplateName: "reminder",
		},
		{
			Name:               "interests",
			Filename:           "interests.md",
			Description:        "Topics, hobbies, and preferences the user has expressed interest in.",
			Dependencies:       []string{"activity"},
			Priority:           2,
			PromptTemplateName: "interests",
		},
		{
			Name:               "study",
			Filename:           "study.md",
			Description:        "Subjects the user is learning and their progress.",
			Dependencies:       []string{"activity"},
			Priority:           1,
			PromptTemplateName: "study",
		},
		{
			Name:               "important_event",
			Filename:           "important_event.md",
			Description:        "Milestones worth surfacing prominently: anniversaries, deadlines, life events.",
			Dependencies:       []string{"activity"},
			Priority:           2,
			PromptTemplateName: "important_event",
			Append:             true,
		},
	}
}
