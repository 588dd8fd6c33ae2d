// Package repository abstracts persistence for documents and their
// extracted pages.
package repository

import (
	"context"
	"time"

	"github.com/seonho/medirag/internal/medirag"
)

// DocumentRepository is the persistence contract shared by the
// in-memory store (tests) and the PostgreSQL store.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *medirag.Document) error
	GetDocument(ctx context.Context, id string) (*medirag.Document, error)
	UpdateDocument(ctx context.Context, doc *medirag.Document) error

	// ReplacePages atomically deletes every existing page of the
	// document, inserts the given pages, and sets the document status.
	// No incremental diffing, no history retained.
	ReplacePages(ctx context.Context, documentID string, pages []*medirag.DocumentPage, status medirag.DocumentStatus) error

	// ListPages returns the requested window ordered by ascending page
	// number, plus the total page count for the document.
	ListPages(ctx context.Context, documentID string, limit, offset int) ([]*medirag.DocumentPage, int, error)

	// TotalChars returns the character count summed across all pages
	// of the document, independent of any listing window.
	TotalChars(ctx context.Context, documentID string) (int, error)

	GetPage(ctx context.Context, documentID string, pageNumber int) (*medirag.DocumentPage, error)

	// MarkAbandoned flips documents still in the created state with no
	// stored blob and created before the cutoff to error, returning
	// how many rows changed. Used by the reconciliation sweep.
	MarkAbandoned(ctx context.Context, before time.Time) (int, error)
}
