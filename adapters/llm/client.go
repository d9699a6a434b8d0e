package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campaignintel/domain/core"
	"campaignintel/ports"

	"github.com/tidwall/gjson"
)

// Provider names accepted by NewClient.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the settings shared by every provider client.
type Config struct {
	Provider    string        // "openai" or "gemini"
	Model       string        // e.g., "gpt-4.1-mini", "gemini-2.5-flash"
	APIKey      string        // provider API key
	BaseURL     string        // Optional override (default: https://api.openai.com/v1)
	Temperature float64       // 0.0-1.0, lower = more deterministic
	MaxTokens   int           // Max tokens in response
	Timeout     time.Duration // Request timeout
}

// NewClient creates an LLM client for config.Provider.
func NewClient(ctx context.Context, config Config) (ports.LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case ProviderOpenAI, "":
		return newOpenAIClient(config)
	case ProviderGemini:
		return NewGeminiClient(ctx, config)
	default:
		return nil, fmt.Errorf("unknown narrative provider %q", config.Provider)
	}
}

func newOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}

	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIClient{
		APIKey:      config.APIKey,
		BaseURL:     baseURL,
		Timeout:     config.Timeout,
		Temperature: config.Temperature,
		HTTPClient:  &http.Client{Timeout: config.Timeout},
	}, nil
}

// MockLLMClient is a mock LLM client for testing
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors
	Requests []ports.CompletionRequest
}

func (m *MockLLMClient) Provider() string { return "mock" }

func (m *MockLLMClient) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.LLMResponse, error) {
	m.Requests = append(m.Requests, req)
	if m.Error != nil {
		return nil, m.Error
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := m.Response
	if content == "" {
		content = "## Strategy brief\n\nFocus the ground game on the weakest booths."
	}
	return &ports.LLMResponse{
		Content: content,
		Usage: &ports.UsageData{
			PromptTokens:     len(req.Prompt) / 4,
			CompletionTokens: len(content) / 4,
			TotalTokens:      (len(req.Prompt) + len(content)) / 4,
			Model:            req.Model,
			Provider:         "mock",
		},
	}, nil
}

// OpenAIClient implements ports.LLMClient for OpenAI chat completions
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	HTTPClient  *http.Client
}

func (c *OpenAIClient) Provider() string { return ProviderOpenAI }

func (c *OpenAIClient) Complete(ctx context.Context, req ports.CompletionRequest) (*ports.LLMResponse, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	system := req.System
	if system == "" {
		system = "You are a careful assistant. Output exactly what the user asks for."
	}

	// Chat Completions API (kept minimal: one system + one user message)
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: req.Model,
		Messages: []msg{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: c.Timeout}
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, core.NewUnavailableError(ProviderOpenAI, err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, core.NewUnavailableError(ProviderOpenAI, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(respRaw, 200)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, truncate(respRaw, 200))
	}

	if !gjson.ValidBytes(respRaw) {
		return nil, fmt.Errorf("openai response is not valid JSON: %s", truncate(respRaw, 200))
	}
	content := gjson.GetBytes(respRaw, "choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("openai response missing choices")
	}
	usage := gjson.GetBytes(respRaw, "usage")
	return &ports.LLMResponse{
		Content: content.String(),
		Usage: &ports.UsageData{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
			Model:            req.Model,
			Provider:         ProviderOpenAI,
		},
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
