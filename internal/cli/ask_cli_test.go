package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/codetutor/internal/config"
	"github.com/at-ishikawa/codetutor/internal/inference"
	mock_cli "github.com/at-ishikawa/codetutor/internal/mocks/cli"
	mock_inference "github.com/at-ishikawa/codetutor/internal/mocks/inference"
	"github.com/at-ishikawa/codetutor/internal/tutor"
	"github.com/at-ishikawa/codetutor/internal/tutorclient"
)

func TestAskCLI_Run(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name       string
		args       []string
		stdin      string
		setupMock  func(m *mock_cli.MockAsker)
		wantOutput string
		wantErr    string
	}{
		{
			name: "joins args into one question",
			args: []string{"What", "is", "a", "closure?"},
			setupMock: func(m *mock_cli.MockAsker) {
				m.EXPECT().Ask(gomock.Any(), "What is a closure?").Return("A function value.\n\n```go\nf := func() {}\n```", nil)
			},
			wantOutput: "Solution\nA function value.\n\n```go\nf := func() {}\n```\n",
		},
		{
			name:  "reads the question from stdin without args",
			stdin: "Explain defer\nin Go\n",
			setupMock: func(m *mock_cli.MockAsker) {
				m.EXPECT().Ask(gomock.Any(), "Explain defer\nin Go\n").Return("Deferred calls run at return.", nil)
			},
			wantOutput: "Solution\nDeferred calls run at return.\n",
		},
		{
			name:       "rejects a blank question without asking",
			args:       []string{"  "},
			stdin:      "\n\t\n",
			setupMock:  func(m *mock_cli.MockAsker) {},
			wantOutput: "Error: Question is required\n",
			wantErr:    "question is required",
		},
		{
			name: "prints the fixed message for an in-process failure",
			args: []string{"What is a map?"},
			setupMock: func(m *mock_cli.MockAsker) {
				m.EXPECT().Ask(gomock.Any(), "What is a map?").Return("", fmt.Errorf("%w: timeout", tutor.ErrUpstream))
			},
			wantOutput: "Error: Failed to get response from AI\n",
			wantErr:    "asker.Ask()",
		},
		{
			name: "prints the server message for a relay failure",
			args: []string{"What is a map?"},
			setupMock: func(m *mock_cli.MockAsker) {
				m.EXPECT().Ask(gomock.Any(), "What is a map?").Return("", &tutorclient.APIError{StatusCode: 400, Message: "Question is required"})
			},
			wantOutput: "Error: Question is required\n",
			wantErr:    "tutor server returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			asker := mock_cli.NewMockAsker(ctrl)
			tt.setupMock(asker)

			var stdout bytes.Buffer
			cli := NewAskCLI(asker, strings.NewReader(tt.stdin), &stdout, "")
			err := cli.Run(context.Background(), tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOutput, stdout.String())
		})
	}
}

func TestAskCLI_Run_WritesPDF(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	ctrl := gomock.NewController(t)
	asker := mock_cli.NewMockAsker(ctrl)
	asker.EXPECT().Ask(gomock.Any(), "What is an interface?").Return("# Interfaces\n\nA method set.", nil)

	pdfPath := filepath.Join(t.TempDir(), "answers", "interface.pdf")
	var stdout bytes.Buffer
	err := NewAskCLI(asker, nil, &stdout, pdfPath).Run(context.Background(), []string{"What is an interface?"})
	require.NoError(t, err)

	info, err := os.Stat(pdfPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Contains(t, stdout.String(), "Saved the answer to "+pdfPath)
}

func TestServiceAsker(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().AnswerQuestion(gomock.Any(), inference.AnswerQuestionRequest{
		SystemPrompt: config.DefaultSystemPrompt,
		Question:     "What is a rune?",
		Temperature:  0.7,
		MaxTokens:    1000,
	}).Return(inference.AnswerQuestionResponse{Answer: "An int32 code point."}, nil)

	service, err := tutor.NewService(client, nil, config.TutorConfig{
		SystemPrompt: config.DefaultSystemPrompt,
		Temperature:  0.7,
		MaxTokens:    1000,
	}, "deepseek-chat")
	require.NoError(t, err)

	got, err := NewServiceAsker(service).Ask(context.Background(), "What is a rune?")
	require.NoError(t, err)
	assert.Equal(t, "An int32 code point.", got)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"relay error with message", &tutorclient.APIError{StatusCode: 500, Message: "Failed to get response from AI"}, "Failed to get response from AI"},
		{"relay error without message", &tutorclient.APIError{StatusCode: 502}, "Failed to get response from AI"},
		{"missing question", fmt.Errorf("%w: blank", tutor.ErrQuestionRequired), "Question is required"},
		{"anything else", errors.New("dial tcp: connection refused"), "Failed to get response from AI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.err))
		})
	}
}
