package categoryagent

import "strings"

// DefaultBehavior is the Behavior every built-in category uses: no extra
// prompt variables beyond the common set, output trimmed of surrounding
// whitespace. It covers activity, profile, event, reminder, interests,
// study, and important_event — none of them need anything beyond what
// BaseAgent already wires in.
type DefaultBehavior struct{}

func (DefaultBehavior) ExtraPromptVariables(Input) map[string]string { return nil }

func (DefaultBehavior) ShapeOutput(raw string) string {
	return strings.TrimSpace(raw)
}

var _ Behavior = DefaultBehavior{}
