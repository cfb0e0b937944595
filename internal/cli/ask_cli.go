// Package cli implements the terminal side of the tutor.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/at-ishikawa/codetutor/internal/pdf"
	"github.com/at-ishikawa/codetutor/internal/tutor"
	"github.com/at-ishikawa/codetutor/internal/tutorclient"
)

const (
	questionRequiredMessage = "Question is required"
	upstreamFailureMessage  = "Failed to get response from AI"
)

var errQuestionRequired = errors.New("question is required")

//go:generate mockgen -source=ask_cli.go -destination=../mocks/cli/mock_asker.go -package=mock_cli Asker

// Asker answers one question with markdown text.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

type serviceAsker struct {
	service *tutor.Service
}

// NewServiceAsker calls the completion API in-process instead of through a running server.
func NewServiceAsker(service *tutor.Service) Asker {
	return serviceAsker{service: service}
}

func (a serviceAsker) Ask(ctx context.Context, question string) (string, error) {
	return a.service.Ask(ctx, tutor.Question{Question: question})
}

type AskCLI struct {
	asker        Asker
	stdinReader  io.Reader
	stdoutWriter io.Writer
	pdfPath      string
	bold         *color.Color
	red          *color.Color
}

func NewAskCLI(asker Asker, stdin io.Reader, stdout io.Writer, pdfPath string) *AskCLI {
	return &AskCLI{
		asker:        asker,
		stdinReader:  stdin,
		stdoutWriter: stdout,
		pdfPath:      pdfPath,
		bold:         color.New(color.Bold),
		red:          color.New(color.FgRed),
	}
}

// Run asks the question given as args, or read from stdin when args are empty,
// and prints the answer under a Solution heading.
func (cli *AskCLI) Run(ctx context.Context, args []string) error {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" && cli.stdinReader != nil {
		input, err := io.ReadAll(cli.stdinReader)
		if err != nil {
			return fmt.Errorf("io.ReadAll(stdin) > %w", err)
		}
		question = string(input)
	}
	if strings.TrimSpace(question) == "" {
		if err := cli.printError(questionRequiredMessage); err != nil {
			return err
		}
		return errQuestionRequired
	}

	answer, err := cli.asker.Ask(ctx, question)
	if err != nil {
		if printErr := cli.printError(errorMessage(err)); printErr != nil {
			return printErr
		}
		return fmt.Errorf("asker.Ask() > %w", err)
	}

	if _, err := cli.bold.Fprintln(cli.stdoutWriter, "Solution"); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	if _, err := fmt.Fprintln(cli.stdoutWriter, answer); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	if cli.pdfPath == "" {
		return nil
	}
	path, err := pdf.WriteMarkdownPDF(answer, cli.pdfPath)
	if err != nil {
		return fmt.Errorf("pdf.WriteMarkdownPDF() > %w", err)
	}
	if _, err := fmt.Fprintf(cli.stdoutWriter, "Saved the answer to %s\n", path); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return nil
}

func (cli *AskCLI) printError(message string) error {
	if _, err := cli.red.Fprintf(cli.stdoutWriter, "Error: %s\n", message); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return nil
}

func errorMessage(err error) string {
	var apiErr *tutorclient.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, tutor.ErrQuestionRequired):
		return questionRequiredMessage
	default:
		return upstreamFailureMessage
	}
}
