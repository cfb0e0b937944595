package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for AI inference operations
type Client interface {
	AnswerQuestion(ctx context.Context, params AnswerQuestionRequest) (AnswerQuestionResponse, error)
}

// AnswerQuestionRequest holds one tutoring question with the fixed instruction and sampling parameters
type AnswerQuestionRequest struct {
	SystemPrompt string
	Question     string
	Temperature  float32
	MaxTokens    int
}

// AnswerQuestionResponse holds the text of the first generated message
type AnswerQuestionResponse struct {
	Answer string
	Model  string
	Usage  Usage
}

// Usage reports the token counts of one completion call
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
