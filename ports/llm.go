package ports

import "context"

// UsageData is token accounting reported by an LLM provider.
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// CompletionRequest is a single system + user prompt exchange.
type CompletionRequest struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// LLMResponse is the text returned by a provider plus usage when reported.
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// LLMClient is implemented by each generative-text provider.
type LLMClient interface {
	Provider() string
	Complete(ctx context.Context, req CompletionRequest) (*LLMResponse, error)
}
