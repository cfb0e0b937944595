package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/codetutor/internal/cli"
	"github.com/at-ishikawa/codetutor/internal/database"
	"github.com/at-ishikawa/codetutor/internal/usage"
)

func newUsageCommand() *cobra.Command {
	var since time.Duration
	command := &cobra.Command{
		Use:   "usage",
		Short: "Summarize completion API usage recorded by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), nil)
			if err != nil {
				return fmt.Errorf("loadConfig() > %w", err)
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("usage ledger is disabled: set database.enabled in the config")
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()
			if err := database.WaitReady(cmd.Context(), db, cfg.Database.ConnectAttempts, database.DefaultRetryDelay); err != nil {
				return fmt.Errorf("database.WaitReady() > %w", err)
			}

			return cli.NewUsageCLI(usage.NewSQLRecorder(db), cmd.OutOrStdout()).
				Run(cmd.Context(), time.Now().Add(-since))
		},
	}
	command.Flags().DurationVar(&since, "since", 24*time.Hour, "How far back to summarize")
	return command
}
