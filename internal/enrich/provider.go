package enrich

import (
	"context"
	"fmt"
)

// Provider names accepted by NewExtractor.
const (
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// ProviderOptions selects and configures a model backend.
type ProviderOptions struct {
	Provider    string
	Model       string
	Temperature float64

	OllamaHost      string
	AnthropicAPIKey string
	GeminiAPIKey    string
}

// KnownProvider reports whether name is a supported backend.
func KnownProvider(name string) bool {
	switch name {
	case ProviderOllama, ProviderClaude, ProviderGemini:
		return true
	}
	return false
}

// NewExtractor builds the extractor for opts.Provider.
func NewExtractor(ctx context.Context, opts ProviderOptions) (Extractor, error) {
	switch opts.Provider {
	case ProviderOllama, "":
		host := opts.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		model := opts.Model
		if model == "" {
			model = "llama3.1"
		}
		return NewOllamaClient(host, model, opts.Temperature), nil
	case ProviderClaude:
		if opts.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", ProviderClaude)
		}
		model := opts.Model
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		return NewClaudeClient(opts.AnthropicAPIKey, model), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, opts.GeminiAPIKey, opts.Model, opts.Temperature)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}
