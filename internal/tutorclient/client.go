// Package tutorclient calls a running tutor server's relay endpoint.
package tutorclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/at-ishikawa/codetutor/internal/server"
)

const tutorPath = "/api/tutor"

// APIError is a non-2xx answer from the relay endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tutor server returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	httpClient *resty.Client
}

func NewClient(serverURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(serverURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Client{httpClient: client}
}

// Ask posts one question and returns the answer text as the server sent it.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var answer server.AnswerResponse
	var apiErr server.ErrorResponse
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"question": question}).
		SetResult(&answer).
		SetError(&apiErr).
		Post(tutorPath)
	if err != nil {
		return "", fmt.Errorf("httpClient.Post(%s) > %w", tutorPath, err)
	}
	if response.IsError() {
		message := apiErr.Error
		if message == "" {
			message = strings.TrimSpace(response.String())
		}
		return "", &APIError{
			StatusCode: response.StatusCode(),
			Message:    message,
		}
	}
	return answer.Answer, nil
}
