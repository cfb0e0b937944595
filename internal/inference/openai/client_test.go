package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/at-ishikawa/codetutor/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AnswerQuestion(t *testing.T) {
	request := inference.AnswerQuestionRequest{
		SystemPrompt: "You are an expert programming tutor.",
		Question:     "What is a pointer?",
		Temperature:  0.7,
		MaxTokens:    1000,
	}

	tests := []struct {
		name              string
		request           inference.AnswerQuestionRequest
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		wantResponse    inference.AnswerQuestionResponse
		wantError       bool
		wantErrorString string
	}{
		{
			name:    "Success returns the first choice unchanged",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				// Verify request
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var reqBody ChatCompletionRequest
				err := json.NewDecoder(r.Body).Decode(&reqBody)
				require.NoError(t, err)
				assert.Equal(t, ChatCompletionRequest{
					Model: "deepseek-chat",
					Messages: []Message{
						{Role: RoleSystem, Content: "You are an expert programming tutor."},
						{Role: RoleUser, Content: "What is a pointer?"},
					},
					Temperature: 0.7,
					MaxTokens:   1000,
				}, reqBody)

				mockResponse := ChatCompletionResponse{
					ID:      "chatcmpl-123",
					Object:  "chat.completion",
					Created: 1677652288,
					Model:   "deepseek-chat",
					Choices: []Choice{
						{
							Index: 0,
							Message: ChoiceMessage{
								Role:    RoleAssistant,
								Content: "A pointer stores an address.\n\n```go\nvar p *int\n```",
							},
							FinishReason: "stop",
						},
						{
							Index: 1,
							Message: ChoiceMessage{
								Role:    RoleAssistant,
								Content: "ignored",
							},
						},
					},
					Usage: Usage{
						PromptTokens:     40,
						CompletionTokens: 20,
						TotalTokens:      60,
					},
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(mockResponse)
			},
			wantResponse: inference.AnswerQuestionResponse{
				Answer: "A pointer stores an address.\n\n```go\nvar p *int\n```",
				Model:  "deepseek-chat",
				Usage: inference.Usage{
					PromptTokens:     40,
					CompletionTokens: 20,
					TotalTokens:      60,
				},
			},
		},
		{
			name:    "Falls back to the configured model when the response omits it",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "answer"}}]}`))
			},
			wantResponse: inference.AnswerQuestionResponse{
				Answer: "answer",
				Model:  "deepseek-chat",
			},
		},
		{
			name:    "Empty content is returned unchanged",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"model": "deepseek-chat", "choices": [{"message": {"role": "assistant", "content": ""}}]}`))
			},
			wantResponse: inference.AnswerQuestionResponse{
				Answer: "",
				Model:  "deepseek-chat",
			},
		},
		{
			name:    "Server error",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error": {"message": "Internal server error"}}`))
			},
			wantError:       true,
			wantErrorString: "response error 500",
		},
		{
			name:    "Quota exceeded",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error": {"message": "Rate limit reached"}}`))
			},
			wantError:       true,
			wantErrorString: "response error 429",
		},
		{
			name:    "Empty choices",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id": "chatcmpl-456", "choices": []}`))
			},
			wantError:       true,
			wantErrorString: "malformed completion response",
		},
		{
			name:    "Null content",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": null}}]}`))
			},
			wantError:       true,
			wantErrorString: "malformed completion response",
		},
		{
			name:    "Body is not JSON",
			request: request,
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte(`upstream gateway page`))
			},
			wantError:       true,
			wantErrorString: "validating completion response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client := NewClient("test-key", server.URL+"/", "deepseek-chat", 0)
			defer func() {
				_ = client.Close()
			}()

			gotResponse, gotErr := client.AnswerQuestion(context.Background(), tt.request)
			assert.Equal(t, int32(1), calls.Load(), "the upstream must be called exactly once")

			if tt.wantError {
				require.Error(t, gotErr)
				if tt.wantErrorString != "" {
					assert.Contains(t, gotErr.Error(), tt.wantErrorString)
				}
				return
			}

			require.NoError(t, gotErr)
			assert.Equal(t, tt.wantResponse, gotResponse)
		})
	}
}

func TestClient_AnswerQuestion_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := NewClient("test-key", serverURL, "deepseek-chat", 0)
	defer func() {
		_ = client.Close()
	}()

	_, err := client.AnswerQuestion(context.Background(), inference.AnswerQuestionRequest{Question: "What is a pointer?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "httpClient.Post")
}

func TestClient_GetModel(t *testing.T) {
	client := NewClient("test-key", "https://api.deepseek.com", "deepseek-chat", 0)
	defer func() {
		_ = client.Close()
	}()
	assert.Equal(t, "deepseek-chat", client.GetModel())
}
