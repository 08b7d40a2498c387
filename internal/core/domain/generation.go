package domain

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult is the raw model output before parsing: free text that
// is hopefully JSON, plus the search metadata that came with it.
type GenerationResult struct {
	Content          string
	Citations        []string
	RelatedQuestions []string
	Model            string
	Usage            TokenUsage
}
