package entity

// CompletionRequest is what a streaming completion provider receives.
type CompletionRequest struct {
	SystemPrompt string
	Turns        []ChatTurn
	MaxTokens    int
	Temperature  float64
}
