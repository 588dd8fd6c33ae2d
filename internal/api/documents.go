package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxUploadSize = 50 << 20 // 50MB

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "file too large (max 50MB)"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "missing file field"})
		return
	}
	defer file.Close()

	// Empty metadata falls back to the domain defaults inside Create.
	contentType := header.Header.Get("Content-Type")

	doc, err := s.docs.Create(r.Context(), header.Filename, contentType, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentCreateResponse{
		DocumentID:  doc.ID,
		Filename:    doc.Filename,
		Status:      string(doc.Status),
		ContentType: doc.ContentType,
	})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentReadResponse{
		DocumentID:  doc.ID,
		Filename:    doc.Filename,
		Status:      string(doc.Status),
		ContentType: doc.ContentType,
		CreatedAt:   doc.CreatedAt,
	})
}

func (s *Server) processDocument(w http.ResponseWriter, r *http.Request) {
	doc, res, err := s.docs.Process(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentProcessResponse{
		DocumentID:     doc.ID,
		Status:         string(doc.Status),
		PagesProcessed: res.PagesProcessed,
		TotalChars:     res.TotalChars,
	})
}

func (s *Server) getDocumentFile(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, "inline")
}

func (s *Server) downloadDocumentFile(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, "attachment")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	id := chi.URLParam(r, "id")
	doc, rc, err := s.docs.OpenFile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	escaped := strings.ReplaceAll(doc.Filename, `"`, `\"`)
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, escaped))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("serveFile: copy interrupted", "id", id, "err", err)
	}
}
