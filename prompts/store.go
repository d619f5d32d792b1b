// Package prompts loads named prompt templates from disk, caches them for
// process lifetime, and renders them by substituting {name} placeholders
// (spec §4.1, §6).
package prompts

import (
	"embed"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nevamind-ai/memu-go/memerr"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

// Store loads and caches prompt templates for process lifetime.
type Store struct {
	dir string // optional override directory; falls back to the embedded set

	mu    sync.RWMutex
	cache map[string]string
}

// NewStore creates a store. dir, if non-empty, is checked before the
// embedded built-in templates, letting callers override or add templates
// without recompiling.
func NewStore(dir string) *Store {
	return &Store{dir: dir, cache: make(map[string]string)}
}

// Get returns the raw template body for name, loading and caching it on
// first access. Fails with TemplateNotFound if no template of that name
// exists in the override directory or the embedded set.
func (s *Store) Get(name string) (string, error) {
	const op = "prompts.Store.Get"

	s.mu.RLock()
	if body, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return body, nil
	}
	s.mu.RUnlock()

	body, err := s.load(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[name] = body
	s.mu.Unlock()

	return body, nil
}

func (s *Store) load(name string) (string, error) {
	const op = "prompts.Store.load"

	if s.dir != "" {
		path := filepath.Join(s.dir, name+".tmpl")
		if b, err := os.ReadFile(path); err == nil {
			return string(b), nil
		}
	}

	b, err := builtinTemplates.ReadFile("templates/" + name + ".tmpl")
	if err != nil {
		return "", memerr.New(memerr.TemplateNotFound, op, "no template named "+name)
	}
	return string(b), nil
}

// Render loads the named template and substitutes {key} placeholders from
// variables. Unknown placeholders in the template — present in the body but
// absent from variables — are replaced with the empty string and logged as
// a warning; they never raise. Extra variables not referenced by the
// template are silently ignored.
func (s *Store) Render(name string, variables map[string]string) (string, error) {
	body, err := s.Get(name)
	if err != nil {
		return "", err
	}
	return render(body, variables, name), nil
}

func render(body string, variables map[string]string, templateName string) string {
	var out strings.Builder
	i := 0
	for i < len(body) {
		open := strings.IndexByte(body[i:], '{')
		if open < 0 {
			out.WriteString(body[i:])
			break
		}
		out.WriteString(body[i : i+open])
		i += open

		close := strings.IndexByte(body[i:], '}')
		if close < 0 {
			out.WriteString(body[i:])
			break
		}

		key := body[i+1 : i+close]
		if isPlaceholderKey(key) {
			if val, ok := variables[key]; ok {
				out.WriteString(val)
			} else {
				log.Printf("[PROMPTS] template %q references unknown placeholder {%s}, substituting empty string", templateName, key)
			}
			i += close + 1
		} else {
			// Not a well-formed placeholder (e.g. a literal JSON brace) —
			// copy the opening brace through and keep scanning.
			out.WriteByte('{')
			i++
		}
	}
	return out.String()
}

// isPlaceholderKey reports whether key looks like an identifier, so that
// literal braces in template prose (e.g. example JSON) are left untouched.
func isPlaceholderKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}
