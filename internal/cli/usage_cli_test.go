package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_cli "github.com/at-ishikawa/codetutor/internal/mocks/cli"
	"github.com/at-ishikawa/codetutor/internal/usage"
)

func TestUsageCLI_Run(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		setupMock  func(m *mock_cli.MockSummarizer)
		wantOutput string
		wantErr    bool
	}{
		{
			name: "prints the summary",
			setupMock: func(m *mock_cli.MockSummarizer) {
				m.EXPECT().Summarize(gomock.Any(), since).Return(usage.Summary{
					Calls:            12,
					Failures:         2,
					PromptTokens:     480,
					CompletionTokens: 2400,
					TotalTokens:      2880,
				}, nil)
			},
			wantOutput: "Usage since 2026-10-01T00:00:00Z\n" +
				"  Calls:             12\n" +
				"  Failures:          2\n" +
				"  Prompt tokens:     480\n" +
				"  Completion tokens: 2400\n" +
				"  Total tokens:      2880\n",
		},
		{
			name: "returns the query error",
			setupMock: func(m *mock_cli.MockSummarizer) {
				m.EXPECT().Summarize(gomock.Any(), since).Return(usage.Summary{}, errors.New("no such table"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			summarizer := mock_cli.NewMockSummarizer(ctrl)
			tt.setupMock(summarizer)

			var stdout bytes.Buffer
			err := NewUsageCLI(summarizer, &stdout).Run(context.Background(), since)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, stdout.String())
		})
	}
}
