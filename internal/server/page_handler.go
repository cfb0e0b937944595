package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/at-ishikawa/codetutor/internal/markdown"
	"github.com/at-ishikawa/codetutor/internal/tutor"
)

type Feature struct {
	Title       string
	Description string
}

var features = []Feature{
	{Title: "Smart Code Analysis", Description: "Get detailed explanations of code snippets and concepts"},
	{Title: "Real-time Solutions", Description: "Instant answers to your programming questions"},
	{Title: "Best Practices", Description: "Learn industry-standard coding practices"},
}

// PageData is the state of the single page: the question, the rendered answer or an error.
type PageData struct {
	Question  string
	Answer    template.HTML
	Error     string
	CanSubmit bool
	Features  []Feature
}

// PageHandler serves the question form and renders answers as HTML.
type PageHandler struct {
	tutor           Tutor
	tmpl            *template.Template
	maxRequestBytes int64
}

func NewPageHandler(t Tutor, tmpl *template.Template, maxRequestBytes int64) *PageHandler {
	return &PageHandler{
		tutor:           t,
		tmpl:            tmpl,
		maxRequestBytes: maxRequestBytes,
	}
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.submit(w, r)
		return
	}
	h.render(w, http.StatusOK, PageData{})
}

func (h *PageHandler) submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	if err := r.ParseForm(); err != nil {
		slog.Default().Debug("failed to parse the question form", slog.Any("error", err))
		h.render(w, http.StatusBadRequest, PageData{Error: questionRequiredMessage})
		return
	}

	question := r.PostFormValue("question")
	data := PageData{Question: question}
	if strings.TrimSpace(question) == "" {
		h.render(w, http.StatusOK, data)
		return
	}

	answer, err := h.tutor.Ask(r.Context(), tutor.Question{Question: question})
	if err != nil {
		slog.Default().Error("failed to answer a question from the page", slog.Any("error", err))
		data.Error = upstreamFailureMessage
		h.render(w, http.StatusOK, data)
		return
	}
	data.Answer = markdown.Render(answer)
	h.render(w, http.StatusOK, data)
}

func (h *PageHandler) render(w http.ResponseWriter, status int, data PageData) {
	data.Features = features
	data.CanSubmit = strings.TrimSpace(data.Question) != ""

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		slog.Default().Error("failed to render the page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Default().Warn("failed to write the page", slog.Any("error", err))
	}
}
