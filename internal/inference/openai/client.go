package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/at-ishikawa/codetutor/internal/inference"
	"github.com/at-ishikawa/codetutor/schemas"
	"github.com/xeipuuv/gojsonschema"
	"resty.dev/v3"
)

var (
	compiledResponseSchema *gojsonschema.Schema
	compileOnce            sync.Once
	compileErr             error
)

func getResponseSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(schemas.CompletionResponseSchema)
		compiledResponseSchema, compileErr = gojsonschema.NewSchema(loader)
	})
	return compiledResponseSchema, compileErr
}

// Client calls an OpenAI-compatible chat completion API.
// It makes exactly one attempt per question.
type Client struct {
	httpClient *resty.Client
	model      string
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient: client,
		model:      model,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (client *Client) getRequestBody(args inference.AnswerQuestionRequest) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: args.SystemPrompt},
			{Role: RoleUser, Content: args.Question},
		},
		Temperature: args.Temperature,
		MaxTokens:   args.MaxTokens,
	}
}

// AnswerQuestion implements the inference.Client interface
func (client *Client) AnswerQuestion(
	ctx context.Context,
	args inference.AnswerQuestionRequest,
) (inference.AnswerQuestionResponse, error) {
	requestBody := client.getRequestBody(args)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		Post("/chat/completions")
	if err != nil {
		return inference.AnswerQuestionResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.AnswerQuestionResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	body := []byte(response.String())
	if err := validateResponseBody(body); err != nil {
		return inference.AnswerQuestionResponse{}, fmt.Errorf("validateResponseBody > %w", err)
	}

	var responseBody ChatCompletionResponse
	if err := json.Unmarshal(body, &responseBody); err != nil {
		return inference.AnswerQuestionResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", body, err)
	}
	slog.Default().Debug("openai response content",
		"request", requestBody,
		"response", responseBody,
	)

	model := responseBody.Model
	if model == "" {
		model = client.model
	}
	return inference.AnswerQuestionResponse{
		Answer: responseBody.Choices[0].Message.Content,
		Model:  model,
		Usage: inference.Usage{
			PromptTokens:     responseBody.Usage.PromptTokens,
			CompletionTokens: responseBody.Usage.CompletionTokens,
			TotalTokens:      responseBody.Usage.TotalTokens,
		},
	}, nil
}

func validateResponseBody(body []byte) error {
	schema, err := getResponseSchema()
	if err != nil {
		return fmt.Errorf("compiling completion response schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validating completion response: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return fmt.Errorf("malformed completion response (%s): %s", strings.Join(errs, "; "), body)
}
