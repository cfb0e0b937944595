// Package tutor answers programming questions through the completion API.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/codetutor/internal/config"
	"github.com/at-ishikawa/codetutor/internal/inference"
	"github.com/at-ishikawa/codetutor/internal/usage"
)

var (
	// ErrQuestionRequired is returned for a missing, empty or whitespace-only question.
	ErrQuestionRequired = errors.New("question is required")
	// ErrUpstream is returned for any failure of the completion call.
	ErrUpstream = errors.New("failed to get response from AI")
)

// Question is the body accepted by the relay endpoint.
type Question struct {
	Question string `json:"question" validate:"notblank"`
}

type Service struct {
	client    inference.Client
	recorder  usage.Recorder
	validator *config.Validator
	tutor     config.TutorConfig
	model     string
	now       func() time.Time
}

func NewService(
	client inference.Client,
	recorder usage.Recorder,
	tutor config.TutorConfig,
	model string,
) (*Service, error) {
	validate, err := config.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("config.NewValidator() > %w", err)
	}
	if recorder == nil {
		recorder = usage.NopRecorder{}
	}
	return &Service{
		client:    client,
		recorder:  recorder,
		validator: validate,
		tutor:     tutor,
		model:     model,
		now:       time.Now,
	}, nil
}

// Ask sends one question to the completion API and returns the first generated message unchanged.
func (s *Service) Ask(ctx context.Context, question Question) (string, error) {
	if err := s.validator.Struct(question); err != nil {
		return "", fmt.Errorf("%w: %w", ErrQuestionRequired, err)
	}

	startedAt := s.now()
	response, err := s.client.AnswerQuestion(ctx, inference.AnswerQuestionRequest{
		SystemPrompt: s.tutor.SystemPrompt,
		Question:     question.Question,
		Temperature:  s.tutor.Temperature,
		MaxTokens:    s.tutor.MaxTokens,
	})
	latency := s.now().Sub(startedAt)
	if err != nil {
		s.record(ctx, usage.Entry{
			Model:     s.model,
			Status:    usage.StatusFailure,
			LatencyMs: latency.Milliseconds(),
			CreatedAt: startedAt,
		})
		return "", fmt.Errorf("%w: model %s after %s: %w", ErrUpstream, s.model, latency, err)
	}

	model := response.Model
	if model == "" {
		model = s.model
	}
	s.record(ctx, usage.Entry{
		Model:            model,
		Status:           usage.StatusSuccess,
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
		TotalTokens:      response.Usage.TotalTokens,
		LatencyMs:        latency.Milliseconds(),
		CreatedAt:        startedAt,
	})
	return response.Answer, nil
}

func (s *Service) record(ctx context.Context, entry usage.Entry) {
	if err := s.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Default().Warn("failed to record completion usage",
			slog.String("model", entry.Model),
			slog.Any("error", err),
		)
	}
}
