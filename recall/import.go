package recall

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nevamind-ai/memu-go/memerr"
)

// supportedImportExtensions mirrors the original implementation's
// markdown/plain-text scan scope.
var supportedImportExtensions = map[string]bool{".md": true, ".txt": true}

// categoryKeywords maps filename substrings to category names for
// auto-detection, falling back to "activity" (spec §4.8.3).
var categoryKeywords = map[string]string{
	"profile":         "profile",
	"event":           "event",
	"reminder":        "reminder",
	"interest":        "interests",
	"study":           "study",
	"milestone":       "important_event",
	"important_event": "important_event",
}

// ImportResult is the outcome of importing one file.
type ImportResult struct {
	File     string
	Category string
	Success  bool
	Error    string
	Bytes    int
}

// ImportDocument reads path, prepends a provenance header, and appends
// the result to the target category's artifact (spec §4.8.3). If
// category is empty and autoDetect is true, the category is inferred
// from filename keywords, falling back to "activity".
func (a *Agent) ImportDocument(ctx context.Context, agentID, userID, path, category string, autoDetect bool) (*ImportResult, error) {
	const op = "recall.Agent.ImportDocument"

	if a.stop.Stopped() {
		return &ImportResult{File: path, Success: false, Error: "stopped"}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &ImportResult{File: path, Success: false, Error: err.Error()}, nil
	}
	content := string(data)

	if category == "" {
		if autoDetect {
			category = detectCategory(filepath.Base(path))
		}
		if category == "" {
			category = "activity"
		}
	}

	cfg, err := a.categoryConfig(category)
	if err != nil {
		return &ImportResult{File: path, Success: false, Error: fmt.Sprintf("unknown category %q", category)}, nil
	}

	provenance := fmt.Sprintf("# Imported from %s\n\n*Imported on %s*\n\n", filepath.Base(path), time.Now().Format(time.RFC3339))
	body := provenance + content

	if err := a.Storage.Append(ctx, agentID, userID, cfg.Filename, body); err != nil {
		return nil, memerr.Wrap(memerr.StoragePersistFailed, op, err)
	}

	return &ImportResult{
		File:     filepath.Base(path),
		Category: category,
		Success:  true,
		Bytes:    len(content),
	}, nil
}

// ImportDirectory imports every .md or .txt file under dir matching pattern
// (a filepath.Match-style glob, e.g. "*.md"), up to maxFiles files, checking
// the stop signal between files (spec §4.8.3, §4.8.4). Matching files with
// any other extension are skipped and produce no result.
func (a *Agent) ImportDirectory(ctx context.Context, agentID, userID, dir, pattern string, maxFiles int) ([]ImportResult, error) {
	const op = "recall.Agent.ImportDirectory"

	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, memerr.Wrap(memerr.StorageIOError, op, err)
	}

	var results []ImportResult
	count := 0
	for _, path := range matches {
		if a.stop.Stopped() {
			break
		}
		if maxFiles > 0 && count >= maxFiles {
			break
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if !supportedImportExtensions[strings.ToLower(filepath.Ext(path))] {
			continue
		}

		result, err := a.ImportDocument(ctx, agentID, userID, path, "", true)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
		count++
	}
	return results, nil
}

func detectCategory(filename string) string {
	lower := strings.ToLower(filename)
	for keyword, category := range categoryKeywords {
		if strings.Contains(lower, keyword) {
			return category
		}
	}
	return ""
}
