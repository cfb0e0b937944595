package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/at-ishikawa/codetutor/internal/usage"
)

//go:generate mockgen -source=usage_cli.go -destination=../mocks/cli/mock_summarizer.go -package=mock_cli Summarizer

type Summarizer interface {
	Summarize(ctx context.Context, since time.Time) (usage.Summary, error)
}

// UsageCLI prints token usage recorded by the server.
type UsageCLI struct {
	summarizer   Summarizer
	stdoutWriter io.Writer
	bold         *color.Color
}

func NewUsageCLI(summarizer Summarizer, stdout io.Writer) *UsageCLI {
	return &UsageCLI{
		summarizer:   summarizer,
		stdoutWriter: stdout,
		bold:         color.New(color.Bold),
	}
}

func (cli *UsageCLI) Run(ctx context.Context, since time.Time) error {
	summary, err := cli.summarizer.Summarize(ctx, since)
	if err != nil {
		return fmt.Errorf("summarizer.Summarize() > %w", err)
	}

	if _, err := cli.bold.Fprintf(cli.stdoutWriter, "Usage since %s\n", since.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	rows := []struct {
		label string
		value int64
	}{
		{"Calls", int64(summary.Calls)},
		{"Failures", int64(summary.Failures)},
		{"Prompt tokens", summary.PromptTokens},
		{"Completion tokens", summary.CompletionTokens},
		{"Total tokens", summary.TotalTokens},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(cli.stdoutWriter, "  %-18s %d\n", row.label+":", row.value); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	}
	return nil
}
