package enrich

import (
	"fmt"
	"os"
	"strings"
)

// InputPlaceholder marks where the section text goes in a prompt template.
const InputPlaceholder = "<INPUT>"

// DefaultPrompt is used when no template file is configured.
const DefaultPrompt = `Find every citation, cross-reference, mention of another document, standard, section or figure, and every link in the following document section. Return a JSON object with a single field:

- "refs": list of strings, each copied verbatim from the text

Rules:
- Copy each reference exactly as it appears; do not paraphrase or complete it
- One entry per distinct reference
- Return {"refs": []} if there are none

Respond with ONLY the JSON object, no other text.

---
<INPUT>`

// LoadPrompt reads a template file. An empty path selects DefaultPrompt.
func LoadPrompt(path string) (string, error) {
	if path == "" {
		return DefaultPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt template: %w", err)
	}
	return string(data), nil
}

// RenderPrompt substitutes input for the first placeholder in tmpl.
func RenderPrompt(tmpl, input string) string {
	return strings.Replace(tmpl, InputPlaceholder, input, 1)
}
