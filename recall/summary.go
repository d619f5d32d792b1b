package recall

import "context"

// Summary returns every registered category's current content for one
// user, keyed by category name. Categories with no artifact yet are
// omitted. This backs the response agent's get_user_profile tool handler
// (list_users uses ListUsers below), grounded on the original implementation's
// get_memory_summary / list_characters operations that the distilled
// spec names but doesn't spell out (spec §4.8, §4.9.2).
func (a *Agent) Summary(ctx context.Context, agentID, userID string) (map[string]string, error) {
	out := make(map[string]string)
	for _, name := range a.allCategoryNames() {
		cfg, err := a.categoryConfig(name)
		if err != nil {
			continue
		}
		content, ok, err := a.Storage.Read(ctx, agentID, userID, cfg.Filename)
		if err != nil {
			return nil, err
		}
		if ok && content != "" {
			out[name] = content
		}
	}
	return out, nil
}

// ListUsers returns every user with at least one stored artifact under
// agentID.
func (a *Agent) ListUsers(ctx context.Context, agentID string) ([]string, error) {
	return a.Storage.ListUsers(ctx, agentID)
}
