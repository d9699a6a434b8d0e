package usage

// Operation names recorded against token usage.
const (
	OperationNarrative = "narrative"
)

// Totals is a token count over a set of calls.
type Totals struct {
	Calls            int `json:"calls"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (t *Totals) add(prompt, completion, total int) {
	t.Calls++
	t.PromptTokens += prompt
	t.CompletionTokens += completion
	t.TotalTokens += total
}

// Summary aggregates usage since the tracker started, keyed by
// "provider/model" and by operation.
type Summary struct {
	Since       string            `json:"since"`
	Overall     Totals            `json:"overall"`
	ByModel     map[string]Totals `json:"by_model"`
	ByOperation map[string]Totals `json:"by_operation"`
	Rejected    int               `json:"rejected"`
}
