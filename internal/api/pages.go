package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listDocumentPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	includeText := true
	if v := q.Get("include_text"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "include_text must be a boolean"})
			return
		}
		includeText = parsed
	}

	limit := 200
	if v := q.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "limit must be an integer"})
			return
		}
		limit = parsed
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "offset must be an integer"})
			return
		}
		offset = parsed
	}

	id := chi.URLParam(r, "id")
	listing, err := s.docs.ListPages(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	pages := make([]documentPageResponse, 0, len(listing.Pages))
	for _, p := range listing.Pages {
		page := documentPageResponse{
			DocumentID: p.DocumentID,
			PageNumber: p.PageNumber,
		}
		if includeText {
			text := p.Text
			page.Text = &text
		}
		pages = append(pages, page)
	}

	writeJSON(w, http.StatusOK, documentPagesResponse{
		DocumentID: id,
		Pages:      pages,
		PagesCount: listing.PagesCount,
		TotalChars: listing.TotalChars,
	})
}

func (s *Server) getDocumentPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pageNumber, err := strconv.Atoi(chi.URLParam(r, "pageNumber"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "page number must be an integer"})
		return
	}

	page, err := s.docs.GetPage(r.Context(), id, pageNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentPageResponse{
		DocumentID: page.DocumentID,
		PageNumber: page.PageNumber,
		Text:       &page.Text,
	})
}
