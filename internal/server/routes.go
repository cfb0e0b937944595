package server

import (
	"html/template"
	"net/http"
)

// NewMux registers the page and the relay endpoint.
func NewMux(t Tutor, page *template.Template, maxRequestBytes int64) *http.ServeMux {
	pageHandler := NewPageHandler(t, page, maxRequestBytes)

	mux := http.NewServeMux()
	mux.Handle("POST /api/tutor", NewTutorHandler(t, maxRequestBytes))
	mux.Handle("GET /{$}", pageHandler)
	mux.Handle("POST /{$}", pageHandler)
	return mux
}
