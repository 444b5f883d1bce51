// Package enrich asks a language model for the references found in a section
// and keeps only those that actually occur in the section text.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Refs is the structured answer every provider must produce.
type Refs struct {
	Refs []string `json:"refs"`
}

// Extractor sends a rendered prompt to a model and decodes its answer.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (Refs, error)
	Provider() string
	Model() string
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// decodeRefs parses a model's text answer, tolerating a fenced code block.
func decodeRefs(text string) (Refs, error) {
	text = stripCodeBlock(text)
	var out Refs
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Refs{}, fmt.Errorf("parse refs json: %w (raw: %s)", err, truncate(text, 200))
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// refsSchema is the JSON schema for Refs, for providers that accept one.
var refsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"refs": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Detected citations, references, mentions or links",
		},
	},
	"required": []string{"refs"},
}
