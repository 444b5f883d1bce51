package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	genai "google.golang.org/genai"
)

// GeminiClient calls the Gemini API with a response schema.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiClient(ctx context.Context, apiKey, model string, temperature float64) (*GeminiClient, error) {
	return newGeminiClient(ctx, apiKey, model, temperature, genai.HTTPOptions{})
}

// newGeminiClient accepts HTTP options so the endpoint can be replaced.
func newGeminiClient(ctx context.Context, apiKey, model string, temperature float64, opts genai.HTTPOptions) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: c, model: model, temperature: float32(temperature)}, nil
}

func (g *GeminiClient) Provider() string { return "gemini" }

func (g *GeminiClient) Model() string { return g.model }

func (g *GeminiClient) Extract(ctx context.Context, prompt string) (Refs, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"refs": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Detected citations, references, mentions or links",
				},
			},
			Required: []string{"refs"},
		},
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500) {
			return Refs{}, &RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return Refs{}, fmt.Errorf("gemini generate: %w", err)
	}
	return decodeRefs(res.Text())
}
