// Package usage records per-call token usage of the completion API.
// Only operational fields are stored: never the question or the answer.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Entry is one completion call.
type Entry struct {
	Model            string    `db:"model"`
	Status           Status    `db:"status"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	TotalTokens      int       `db:"total_tokens"`
	LatencyMs        int64     `db:"latency_ms"`
	CreatedAt        time.Time `db:"created_at"`
}

//go:generate mockgen -source=recorder.go -destination=../mocks/usage/mock_recorder.go -package=mock_usage

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NopRecorder discards every entry. It is used when the database is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error {
	return nil
}

type SQLRecorder struct {
	db *sqlx.DB
}

func NewSQLRecorder(db *sqlx.DB) *SQLRecorder {
	return &SQLRecorder{db: db}
}

const insertEntryQuery = `INSERT INTO completion_usage
	(model, status, prompt_tokens, completion_tokens, total_tokens, latency_ms, created_at)
	VALUES (:model, :status, :prompt_tokens, :completion_tokens, :total_tokens, :latency_ms, :created_at)`

func (r *SQLRecorder) Record(ctx context.Context, entry Entry) error {
	if _, err := r.db.NamedExecContext(ctx, insertEntryQuery, entry); err != nil {
		return fmt.Errorf("db.NamedExecContext() > %w", err)
	}
	return nil
}

// Summary aggregates the recorded entries since a point in time.
type Summary struct {
	Calls            int   `db:"calls"`
	Failures         int   `db:"failures"`
	PromptTokens     int64 `db:"prompt_tokens"`
	CompletionTokens int64 `db:"completion_tokens"`
	TotalTokens      int64 `db:"total_tokens"`
}

const summaryQuery = `SELECT
	COUNT(*) AS calls,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failures,
	COALESCE(SUM(prompt_tokens), 0) AS prompt_tokens,
	COALESCE(SUM(completion_tokens), 0) AS completion_tokens,
	COALESCE(SUM(total_tokens), 0) AS total_tokens
	FROM completion_usage
	WHERE created_at >= ?`

func (r *SQLRecorder) Summarize(ctx context.Context, since time.Time) (Summary, error) {
	var summary Summary
	if err := r.db.GetContext(ctx, &summary, r.db.Rebind(summaryQuery), StatusFailure, since); err != nil {
		return Summary{}, fmt.Errorf("db.GetContext() > %w", err)
	}
	return summary, nil
}
