// Package lenient pulls JSON values out of chatty model output.
package lenient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON means no candidate JSON value of the wanted kind was found.
var ErrNoJSON = errors.New("no JSON value found in response")

// StripCodeFences removes a surrounding markdown code fence, if any.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return strings.Trim(trimmed, "`")
	}
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Candidate returns the span from the first open to the last close
// delimiter, after stripping code fences.
func Candidate(raw string, open, close byte) (string, error) {
	s := StripCodeFences(raw)
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", ErrNoJSON
	}
	end := strings.LastIndexByte(s, close)
	if end < start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// RawObject returns the first JSON object embedded in raw.
func RawObject(raw string) (json.RawMessage, error) {
	candidate, err := Candidate(raw, '{', '}')
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("failed to parse JSON object: invalid syntax")
	}
	return json.RawMessage(candidate), nil
}

// ExtractObject decodes the first JSON object embedded in raw.
func ExtractObject(raw string) (map[string]any, error) {
	candidate, err := Candidate(raw, '{', '}')
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, fmt.Errorf("failed to parse JSON object: %w", err)
	}
	return obj, nil
}

// ExtractArray decodes the first JSON array embedded in raw.
func ExtractArray(raw string) ([]any, error) {
	candidate, err := Candidate(raw, '[', ']')
	if err != nil {
		return nil, err
	}
	var arr []any
	if err := json.Unmarshal([]byte(candidate), &arr); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}
	return arr, nil
}

// Strings keeps the string elements of arr, in order.
func Strings(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
