package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/at-ishikawa/codetutor/internal/tutor"
)

const (
	questionRequiredMessage = "Question is required"
	upstreamFailureMessage  = "Failed to get response from AI"
)

// Tutor answers one programming question.
type Tutor interface {
	Ask(ctx context.Context, question tutor.Question) (string, error)
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// TutorHandler relays POST /api/tutor to the completion API.
type TutorHandler struct {
	tutor           Tutor
	maxRequestBytes int64
}

func NewTutorHandler(t Tutor, maxRequestBytes int64) *TutorHandler {
	return &TutorHandler{
		tutor:           t,
		maxRequestBytes: maxRequestBytes,
	}
}

func (h *TutorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var question tutor.Question
	body := http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&question); err != nil {
		slog.Default().Error("failed to decode a tutor request", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: upstreamFailureMessage})
		return
	}

	answer, err := h.tutor.Ask(r.Context(), question)
	if err != nil {
		if errors.Is(err, tutor.ErrQuestionRequired) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: questionRequiredMessage})
			return
		}
		slog.Default().Error("failed to answer a tutor request", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: upstreamFailureMessage})
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{Answer: answer})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("failed to write a response", slog.Any("error", err))
	}
}
