// Package api exposes the document intake service over a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seonho/medirag/internal/medirag"
	"github.com/seonho/medirag/internal/services"
)

type Server struct {
	docs *services.DocumentService
}

func NewServer(docs *services.DocumentService) *Server {
	return &Server{docs: docs}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.health)
	// Placeholder route groups for the RAG pipeline.
	r.Get("/extract/health", s.health)
	r.Get("/rag/health", s.health)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.createDocument)
		r.Get("/{id}", s.getDocument)
		r.Post("/{id}/process", s.processDocument)
		r.Get("/{id}/file", s.getDocumentFile)
		r.Get("/{id}/file/download", s.downloadDocumentFile)
		r.Get("/{id}/pages", s.listDocumentPages)
		r.Get("/{id}/pages/{pageNumber}", s.getDocumentPage)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Every sentinel keeps
// its own message so clients can tell, say, a missing page from a
// missing document, even though both are 404s.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, medirag.ErrDocumentNotFound),
		errors.Is(err, medirag.ErrPageNotFound),
		errors.Is(err, medirag.ErrFileMissing):
		writeDetail(w, http.StatusNotFound, err)
	case errors.Is(err, medirag.ErrNoStoredFile),
		errors.Is(err, medirag.ErrProcessingInProgress):
		writeDetail(w, http.StatusConflict, err)
	case errors.Is(err, medirag.ErrLimitOutOfRange),
		errors.Is(err, medirag.ErrNegativeOffset),
		errors.Is(err, medirag.ErrExtractFailed):
		writeDetail(w, http.StatusUnprocessableEntity, err)
	default:
		slog.Error("internal error", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

func writeDetail(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}
