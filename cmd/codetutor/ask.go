package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/codetutor/internal/cli"
	"github.com/at-ishikawa/codetutor/internal/config"
	"github.com/at-ishikawa/codetutor/internal/inference/openai"
	"github.com/at-ishikawa/codetutor/internal/tutor"
	"github.com/at-ishikawa/codetutor/internal/tutorclient"
)

func newAskCommand() *cobra.Command {
	var direct bool
	var pdfPath string

	command := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a programming question. The question is read from stdin when no args are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), map[string]string{
				"server": "client.server_url",
			})
			if err != nil {
				return fmt.Errorf("loadConfig() > %w", err)
			}

			var asker cli.Asker
			if direct {
				directAsker, closeAsker, err := newDirectAsker(cfg)
				if err != nil {
					return fmt.Errorf("newDirectAsker() > %w", err)
				}
				defer func() {
					_ = closeAsker()
				}()
				asker = directAsker
			} else {
				asker = tutorclient.NewClient(cfg.Client.ServerURL, time.Duration(cfg.Client.TimeoutSeconds)*time.Second)
			}

			return cli.NewAskCLI(asker, cmd.InOrStdin(), cmd.OutOrStdout(), pdfPath).
				Run(cmd.Context(), args)
		},
	}
	command.Flags().String("server", "", "URL of a running codetutor-server")
	command.Flags().BoolVar(&direct, "direct", false, "Call the completion API directly instead of the server")
	command.Flags().StringVar(&pdfPath, "pdf", "", "Also write the answer to this PDF file")
	return command
}

func newDirectAsker(cfg *config.Config) (cli.Asker, func() error, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	client := openai.NewClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.BaseURL,
		cfg.OpenAI.Model,
		time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second,
	)
	service, err := tutor.NewService(client, nil, cfg.Tutor, client.GetModel())
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("tutor.NewService() > %w", err)
	}
	return cli.NewServiceAsker(service), client.Close, nil
}
