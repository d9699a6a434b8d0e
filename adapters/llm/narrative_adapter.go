package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"campaignintel/domain/strategy"
	"campaignintel/internal/usage"
	"campaignintel/ports"
)

const narrativeSystemPrompt = `You are a senior campaign strategist writing an internal brief.
Use only the figures in the JSON strategy you are given; never invent or change numbers.
Respond in markdown with the sections: Situation, Where the votes are, Ground game, Risks, Timeline.`

// NarrativeAdapter implements ports.NarrativeGenerator on top of an LLM client
type NarrativeAdapter struct {
	config    Config
	llmClient ports.LLMClient
	usage     ports.UsageRecorder
}

// NewNarrativeAdapter creates a narrative generator backed by client
func NewNarrativeAdapter(config Config, client ports.LLMClient) *NarrativeAdapter {
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1200
	}
	return &NarrativeAdapter{config: config, llmClient: client}
}

var _ ports.NarrativeGenerator = (*NarrativeAdapter)(nil)

// WithUsage reports token usage of every successful call to rec
func (a *NarrativeAdapter) WithUsage(rec ports.UsageRecorder) *NarrativeAdapter {
	a.usage = rec
	return a
}

// Name identifies the provider behind the adapter
func (a *NarrativeAdapter) Name() string {
	return a.llmClient.Provider()
}

// Generate asks the model for a markdown brief of ws
func (a *NarrativeAdapter) Generate(ctx context.Context, ws *strategy.WinningStrategy) (string, error) {
	prompt, err := BuildNarrativePrompt(ws)
	if err != nil {
		return "", err
	}

	resp, err := a.llmClient.Complete(ctx, ports.CompletionRequest{
		Model:     a.config.Model,
		System:    narrativeSystemPrompt,
		Prompt:    prompt,
		MaxTokens: a.config.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if a.usage != nil && resp.Usage != nil {
		a.usage.RecordUsage(ctx, usage.OperationNarrative, resp.Usage)
	}

	text := cleanMarkdown(resp.Content)
	if text == "" {
		return "", fmt.Errorf("%s returned an empty narrative", a.llmClient.Provider())
	}
	return text, nil
}

// BuildNarrativePrompt renders the read-only strategy record into the user prompt
func BuildNarrativePrompt(ws *strategy.WinningStrategy) (string, error) {
	raw, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode strategy for prompt: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write the campaign brief for %s (%s).\n", ws.Name, ws.ConstituencyID)
	fmt.Fprintf(&b, "Status: %s, win probability %.1f%%, lead narrative %q.\n", ws.Status, ws.WinProbability, ws.LeadNarrative)
	if len(ws.EstimatedFields) > 0 {
		fmt.Fprintf(&b, "Flag that these inputs are estimates: %s.\n", strings.Join(ws.EstimatedFields, ", "))
	}
	b.WriteString("\nStrategy record:\n```json\n")
	b.Write(raw)
	b.WriteString("\n```\n")
	return b.String(), nil
}

// cleanMarkdown strips a wrapping code fence some models add
func cleanMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
