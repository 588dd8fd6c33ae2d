package api

import "time"

// Response DTOs. Error responses carry a single detail string; the
// exact wording distinguishes otherwise identical status codes.

type errorResponse struct {
	Detail string `json:"detail"`
}

type documentCreateResponse struct {
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	ContentType string `json:"content_type"`
}

type documentReadResponse struct {
	DocumentID  string    `json:"document_id"`
	Filename    string    `json:"filename"`
	Status      string    `json:"status"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type documentProcessResponse struct {
	DocumentID     string `json:"document_id"`
	Status         string `json:"status"`
	PagesProcessed int    `json:"pages_processed"`
	TotalChars     int    `json:"total_chars"`
}

// Text is a pointer so include_text=false renders null, not "".
type documentPageResponse struct {
	DocumentID string  `json:"document_id"`
	PageNumber int     `json:"page_number"`
	Text       *string `json:"text"`
}

type documentPagesResponse struct {
	DocumentID string                 `json:"document_id"`
	Pages      []documentPageResponse `json:"pages"`
	PagesCount int                    `json:"pages_count"`
	TotalChars int                    `json:"total_chars"`
}
