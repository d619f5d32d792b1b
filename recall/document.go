package recall

import "strings"

// Document is one line-sized unit of searchable text split out of a
// category artifact (spec §4.8.1 step 1).
type Document struct {
	Category  string
	LineIndex int
	Content   string
}

// splitDocuments splits an artifact's content into non-empty trimmed
// lines, each becoming one searchable document.
func splitDocuments(category, content string) []Document {
	lines := strings.Split(content, "\n")
	docs := make([]Document, 0, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		docs = append(docs, Document{Category: category, LineIndex: i, Content: trimmed})
	}
	return docs
}
