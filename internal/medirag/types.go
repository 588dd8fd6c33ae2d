// Package medirag defines the document intake domain model: uploaded
// documents, their extracted pages, and the status lifecycle
// created -> uploaded -> parsed (or error).
package medirag

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks a document through the intake lifecycle.
type DocumentStatus string

const (
	StatusCreated  DocumentStatus = "created"  // row exists, blob not yet written
	StatusUploaded DocumentStatus = "uploaded" // blob on disk, not yet processed
	StatusParsed   DocumentStatus = "parsed"   // pages extracted
	StatusError    DocumentStatus = "error"    // last process attempt failed
)

// Defaults applied when the client omits upload metadata.
const (
	DefaultFilename    = "unknown.pdf"
	DefaultContentType = "application/octet-stream"
)

// Document is one uploaded source file and its processing state.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type"`
	Status      DocumentStatus `json:"status"`
	StoragePath string         `json:"storage_path"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DocumentPage is the extracted text of one page, 1-indexed per document.
// Text may be empty for pages without extractable text, never absent.
type DocumentPage struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	PageNumber int       `json:"page_number"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewID returns a fresh document or page identifier.
func NewID() string {
	return uuid.New().String()
}

// Now returns the timestamp used for entity creation.
func Now() time.Time {
	return time.Now().UTC()
}

// NewDocument constructs a Document in the created state. Identifier and
// timestamp generation happen here, at construction time, so entities are
// fully formed before they touch the persistence layer.
func NewDocument(filename, contentType string) *Document {
	if filename == "" {
		filename = DefaultFilename
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Document{
		ID:          NewID(),
		Filename:    filename,
		ContentType: contentType,
		Status:      StatusCreated,
		CreatedAt:   Now(),
	}
}

// NewPage constructs a DocumentPage owned by documentID.
func NewPage(documentID string, pageNumber int, text string) *DocumentPage {
	return &DocumentPage{
		ID:         NewID(),
		DocumentID: documentID,
		PageNumber: pageNumber,
		Text:       text,
		CreatedAt:  Now(),
	}
}
