// Package jsonrepair extracts structured JSON from LLM completions that
// are usually, but not reliably, valid JSON: wrapped in markdown code
// fences, missing a closing brace, written with unquoted keys, or
// occasionally not JSON at all. It mirrors the escalating strategy the
// sufficiency and requery prompts need (spec §4.9.3): strict parse, then
// brace/string repair, then regex-driven field extraction for
// unquoted-key objects, never raising on malformed input.
package jsonrepair

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// unquotedKeyPattern matches a bare identifier used as an object key,
// e.g. the `sufficient` in `{sufficient: true, missing_info: "x"}`.
var unquotedKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)

// Extract returns the best-effort JSON object found in raw. It tries, in
// order:
//  1. Strict parse of raw, after stripping a ```json ... ``` or ``` ... ```
//     fence if present.
//  2. Repair: close an unterminated string or brace and retry.
//  3. Regex field extraction: quote any bare-identifier keys (`{key: ...}`
//     patterns for string, number, and array values) and retry, applying
//     the same brace/string repair to the result.
//  4. Failure: returns ok=false, letting the caller fall back to its own
//     heuristic over the raw text.
func Extract(raw string) (result gjson.Result, ok bool) {
	candidate := stripFence(raw)

	if gjson.Valid(candidate) {
		return gjson.Parse(candidate), true
	}

	repaired := repair(candidate)
	if gjson.Valid(repaired) {
		return gjson.Parse(repaired), true
	}

	unquoted := quoteUnquotedKeys(candidate)
	if gjson.Valid(unquoted) {
		return gjson.Parse(unquoted), true
	}

	unquotedRepaired := repair(unquoted)
	if gjson.Valid(unquotedRepaired) {
		return gjson.Parse(unquotedRepaired), true
	}

	return gjson.Result{}, false
}

// quoteUnquotedKeys rewrites bare-identifier object keys into
// double-quoted keys so gjson's strict parser accepts them, covering the
// `{key: "value"}`, `{key: 123}`, and `{key: [...]}` shapes models
// sometimes produce instead of proper JSON.
func quoteUnquotedKeys(s string) string {
	return unquotedKeyPattern.ReplaceAllString(s, `$1"$2"$3`)
}

// stripFence removes a leading/trailing markdown code fence and trims the
// remaining text, the same cleanup the original Python implementation
// does before calling json.loads.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// repair attempts to turn a truncated JSON object into valid JSON by
// balancing braces and closing an open string, which covers the common
// case of a model response cut off by a token limit.
func repair(s string) string {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	s = s[start:]

	inString := false
	escaped := false
	depth := 0
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case !inString && r == '{':
			depth++
		case !inString && r == '}':
			depth--
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for ; depth > 0; depth-- {
		b.WriteByte('}')
	}
	return b.String()
}

// Bool reads a boolean field from result, defaulting to def if absent or
// of the wrong type.
func Bool(result gjson.Result, field string, def bool) bool {
	v := result.Get(field)
	if !v.Exists() {
		return def
	}
	return v.Bool()
}

// String reads a string field from result, defaulting to def if absent.
func String(result gjson.Result, field string, def string) string {
	v := result.Get(field)
	if !v.Exists() {
		return def
	}
	return v.String()
}

// Float reads a numeric field from result, defaulting to def if absent.
func Float(result gjson.Result, field string, def float64) float64 {
	v := result.Get(field)
	if !v.Exists() {
		return def
	}
	return v.Float()
}

// StringArray reads an array of strings from result, returning nil if
// absent or not an array.
func StringArray(result gjson.Result, field string) []string {
	v := result.Get(field)
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out
}

// SetField sets field to value within a raw JSON object, returning the
// updated document.
func SetField(raw, field string, value interface{}) (string, error) {
	return sjson.Set(raw, field, value)
}

// Pretty formats a raw JSON document for debug logging. Non-JSON input is
// returned unchanged.
func Pretty(raw string) string {
	if !gjson.Valid(raw) {
		return raw
	}
	return string(pretty.Pretty([]byte(raw)))
}
