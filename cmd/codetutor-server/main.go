package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/codetutor/internal/assets"
	"github.com/at-ishikawa/codetutor/internal/bootstrap"
	"github.com/at-ishikawa/codetutor/internal/config"
	"github.com/at-ishikawa/codetutor/internal/database"
	"github.com/at-ishikawa/codetutor/internal/inference/openai"
	"github.com/at-ishikawa/codetutor/internal/server"
	"github.com/at-ishikawa/codetutor/internal/tutor"
	"github.com/at-ishikawa/codetutor/internal/usage"
	"github.com/at-ishikawa/codetutor/schemas"
)

var configFile string

func main() {
	var debugMode bool
	rootCmd := &cobra.Command{
		Use:           "codetutor-server",
		Short:         "AI programming tutor HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", os.Getenv("CODETUTOR_CONFIG"), "config file path")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})),
	)
}

func run(ctx context.Context) error {
	app := bootstrap.New()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	openaiClient := openai.NewClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.BaseURL,
		cfg.OpenAI.Model,
		time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second,
	)
	app.AddShutdownHook(func(ctx context.Context) error {
		return openaiClient.Close()
	})

	recorder, closeRecorder, err := openUsageRecorder(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("openUsageRecorder() > %w", err)
	}
	app.AddShutdownHook(func(ctx context.Context) error {
		return closeRecorder()
	})

	service, err := tutor.NewService(openaiClient, recorder, cfg.Tutor, openaiClient.GetModel())
	if err != nil {
		return fmt.Errorf("tutor.NewService() > %w", err)
	}
	page, err := assets.ParsePageTemplate(cfg.Templates.PageTemplate)
	if err != nil {
		return fmt.Errorf("assets.ParsePageTemplate() > %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newHandler(server.NewMux(service, page, cfg.Server.MaxRequestBytes), cfg.Server.CORS.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.AddShutdownHook(srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("model", openaiClient.GetModel()),
			slog.Bool("usage_ledger", cfg.Database.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

// openUsageRecorder returns a no-op recorder unless the usage ledger is enabled.
func openUsageRecorder(ctx context.Context, cfg config.DatabaseConfig) (usage.Recorder, func() error, error) {
	if !cfg.Enabled {
		return usage.NopRecorder{}, func() error { return nil }, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	if err := database.WaitReady(ctx, db, cfg.ConnectAttempts, database.DefaultRetryDelay); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database.WaitReady() > %w", err)
	}
	if err := database.Migrate(ctx, db, schemas.Migrations); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database.Migrate() > %w", err)
	}
	return usage.NewSQLRecorder(db), db.Close, nil
}

func newHandler(mux http.Handler, allowedOrigins []string) http.Handler {
	return corsMiddleware(h2c.NewHandler(mux, &http2.Server{}), allowedOrigins)
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
