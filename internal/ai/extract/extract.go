// Package extract recovers structured data from unstructured model output.
// Model responses arrive as free text that usually, but not always, contains
// a JSON object: sometimes bare, sometimes fenced, sometimes truncated
// mid-string by an output-token limit. The strategies here are layered from
// strict to forgiving.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrNoJSON is returned when no strategy could recover an object.
var ErrNoJSON = errors.New("no JSON object found in text")

// Object extracts the first JSON object from raw text, trying in order:
// a direct parse, a fenced code block (tolerating a missing closing fence),
// the first balanced-looking {...} substring, and finally a repair pass
// over the truncated remainder.
func Object(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoJSON
	}

	for _, candidate := range candidates(raw) {
		var out map[string]any
		if err := json.Unmarshal([]byte(candidate), &out); err == nil && out != nil {
			return out, nil
		}
	}

	return nil, ErrNoJSON
}

// Decode extracts an object from raw and decodes it into v, coercing
// mistyped scalars (a "72" where 72 was asked for, a float where an int
// was asked for) instead of failing.
func Decode(raw string, v any) error {
	obj, err := Object(raw)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           v,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(obj); err != nil {
		return fmt.Errorf("decode extracted object: %w", err)
	}
	return nil
}

func candidates(raw string) []string {
	var out []string
	out = append(out, raw)

	if fenced, ok := fencedBlock(raw); ok {
		out = append(out, fenced, repair(fenced))
	}
	if braced, ok := braceSlice(raw); ok {
		out = append(out, braced)
	}
	if idx := strings.Index(raw, "{"); idx >= 0 {
		out = append(out, repair(raw[idx:]))
	}
	return out
}

// fencedBlock returns the contents of the first ``` block. A missing
// closing fence means the output was truncated; the remainder is returned
// as-is for the repair pass.
func fencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}

	body := raw[start+3:]
	body = strings.TrimPrefix(body, "json")
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body), true
}

// braceSlice returns the substring from the first '{' to the last '}'.
func braceSlice(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// repair turns a truncated JSON prefix into something parseable: it drops
// a trailing unterminated string, trims dangling commas and orphaned keys,
// then closes every bracket still open.
func repair(s string) string {
	var stack []byte
	inString := false
	escaped := false
	stringStart := -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			stringStart = i
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString && stringStart >= 0 {
		s = s[:stringStart]
	}

	s = strings.TrimRight(s, " \t\r\n,")

	// A value cut off right after its key leaves a dangling `"key":`.
	if strings.HasSuffix(s, ":") {
		if cut := strings.LastIndexAny(s, ",{["); cut >= 0 {
			s = strings.TrimRight(s[:cut+1], ",")
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}
