package llm

import (
	"context"
	"fmt"

	"campaignintel/domain/core"
	"campaignintel/ports"

	"google.golang.org/genai"
)

// GeminiClient implements ports.LLMClient on Google's Gemini API.
type GeminiClient struct {
	client      *genai.Client
	temperature float32
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(ctx context.Context, config Config) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, temperature: float32(config.Temperature)}, nil
}

func (g *GeminiClient) Provider() string { return ProviderGemini }

func (g *GeminiClient) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.LLMResponse, error) {
	model := req.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, core.NewUnavailableError(ProviderGemini, err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("GenAI response contained no text")
	}

	out := &ports.LLMResponse{Content: text}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &ports.UsageData{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
			Model:            model,
			Provider:         ProviderGemini,
		}
	}
	return out, nil
}
