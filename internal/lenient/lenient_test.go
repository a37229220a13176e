package lenient

import (
	"errors"
	"reflect"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no fence", input: "  [1, 2] ", expected: "[1, 2]"},
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", expected: "{\"a\": 1}"},
		{name: "bare fence", input: "```\n[\"x\"]\n```", expected: "[\"x\"]"},
		{name: "unterminated fence", input: "```json\n[\"x\"]", expected: "[\"x\"]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := StripCodeFences(tt.input); result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestExtractArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
		wantErr  bool
	}{
		{
			name:     "chatty prefix and suffix",
			input:    `Sure! Here are the chapters: ["Prologue", "The Storm", 3] Hope this helps.`,
			expected: []string{"Prologue", "The Storm"},
		},
		{
			name:     "fenced",
			input:    "```json\n[\"One\", \"Two\"]\n```",
			expected: []string{"One", "Two"},
		},
		{
			name:    "no array",
			input:   "I could not find any chapters.",
			wantErr: true,
		},
		{
			name:    "broken array",
			input:   `["One", "Two"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := ExtractArray(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if result := Strings(arr); !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestExtractObject(t *testing.T) {
	obj, err := ExtractObject("The metadata is {\"title\": \"Dune\", \"author\": \"Frank Herbert\"} as requested.")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if obj["title"] != "Dune" {
		t.Errorf("Expected Dune, got %v", obj["title"])
	}

	if _, err := ExtractObject("no braces here"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("Expected ErrNoJSON, got %v", err)
	}
	if _, err := ExtractObject("} backwards {"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("Expected ErrNoJSON for reversed braces, got %v", err)
	}
}

func TestRawObject(t *testing.T) {
	raw, err := RawObject(`prefix {"a": [1, 2]} suffix`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(raw) != `{"a": [1, 2]}` {
		t.Errorf("Expected {\"a\": [1, 2]}, got %s", raw)
	}

	if _, err := RawObject(`{"a": }`); err == nil {
		t.Errorf("Expected error for invalid object")
	}
}
