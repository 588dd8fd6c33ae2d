// Package services orchestrates document intake: upload, blob
// persistence, page extraction, and reads.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/seonho/medirag/internal/extract"
	"github.com/seonho/medirag/internal/medirag"
	"github.com/seonho/medirag/internal/repository"
	"github.com/seonho/medirag/internal/storage"
)

// DocumentService implements the intake operations on top of the
// repository, the blob store, and the page extractor.
type DocumentService struct {
	repo      repository.DocumentRepository
	blobs     storage.BlobStore
	extractor extract.PageExtractor

	// One slot per document; a process call that cannot take the slot
	// is rejected instead of interleaving its delete-then-insert with
	// the holder's.
	mu         sync.Mutex
	processing map[string]chan struct{}
}

func NewDocumentService(repo repository.DocumentRepository, blobs storage.BlobStore, extractor extract.PageExtractor) *DocumentService {
	return &DocumentService{
		repo:       repo,
		blobs:      blobs,
		extractor:  extractor,
		processing: make(map[string]chan struct{}),
	}
}

// Create registers the upload and persists its bytes: insert the row in
// the created state, write the blob, then flip to uploaded. The three
// steps are not one transaction across filesystem and database; rows
// stranded in created by a crash are repaired by the sweeper.
func (s *DocumentService) Create(ctx context.Context, filename, contentType string, r io.Reader) (*medirag.Document, error) {
	doc := medirag.NewDocument(filename, contentType)
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	path, size, err := s.blobs.Save(ctx, doc.ID, r)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc.StoragePath = path
	doc.Status = medirag.StatusUploaded
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	slog.Info("document uploaded", "id", doc.ID, "filename", doc.Filename, "bytes", size)
	return doc, nil
}

// Get returns document metadata by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*medirag.Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// OpenFile returns the document metadata and a reader over its stored
// blob. The caller must close the reader.
func (s *DocumentService) OpenFile(ctx context.Context, id string) (*medirag.Document, io.ReadCloser, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.StoragePath == "" {
		return nil, nil, fmt.Errorf("document %s: %w", id, medirag.ErrNoStoredFile)
	}

	rc, err := s.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("document %s: %w", id, medirag.ErrFileMissing)
		}
		return nil, nil, err
	}
	return doc, rc, nil
}

// ProcessResult reports the outcome of one successful process call.
type ProcessResult struct {
	PagesProcessed int
	TotalChars     int
}

// Process extracts per-page text from the stored blob and replaces the
// document's pages in one transaction. On extractor failure the
// document is flipped to error (the only persisted failure side
// effect) and stays re-processable against the same blob.
func (s *DocumentService) Process(ctx context.Context, id string) (*medirag.Document, ProcessResult, error) {
	if !s.tryLock(id) {
		return nil, ProcessResult{}, fmt.Errorf("document %s: %w", id, medirag.ErrProcessingInProgress)
	}
	defer s.unlock(id)

	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, ProcessResult{}, err
	}
	if doc.StoragePath == "" {
		return nil, ProcessResult{}, fmt.Errorf("document %s: %w", id, medirag.ErrNoStoredFile)
	}
	if err := s.blobs.Stat(doc.StoragePath); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ProcessResult{}, fmt.Errorf("document %s: %w", id, medirag.ErrFileMissing)
		}
		return nil, ProcessResult{}, err
	}

	texts, err := s.extractor.ExtractPages(ctx, doc.StoragePath)
	if err != nil {
		doc.Status = medirag.StatusError
		if uerr := s.repo.UpdateDocument(ctx, doc); uerr != nil {
			slog.Error("persist error status", "id", id, "err", uerr)
		}
		slog.Warn("extraction failed", "id", id, "err", err)
		return nil, ProcessResult{}, fmt.Errorf("%w: %v", medirag.ErrExtractFailed, err)
	}

	pages := make([]*medirag.DocumentPage, len(texts))
	totalChars := 0
	for i, text := range texts {
		pages[i] = medirag.NewPage(doc.ID, i+1, text)
		totalChars += utf8.RuneCountInString(text)
	}

	if err := s.repo.ReplacePages(ctx, doc.ID, pages, medirag.StatusParsed); err != nil {
		return nil, ProcessResult{}, fmt.Errorf("replace pages: %w", err)
	}
	doc.Status = medirag.StatusParsed

	slog.Info("document processed", "id", doc.ID, "pages", len(pages), "chars", totalChars)
	return doc, ProcessResult{PagesProcessed: len(pages), TotalChars: totalChars}, nil
}

// PageListing is the windowed page view plus document-wide counts.
type PageListing struct {
	Pages      []*medirag.DocumentPage
	PagesCount int
	TotalChars int
}

// ListPages returns pages ordered by ascending page number. PagesCount
// and TotalChars cover the whole document regardless of the window.
func (s *DocumentService) ListPages(ctx context.Context, id string, limit, offset int) (*PageListing, error) {
	if limit < 1 || limit > 500 {
		return nil, medirag.ErrLimitOutOfRange
	}
	if offset < 0 {
		return nil, medirag.ErrNegativeOffset
	}

	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return nil, err
	}

	pages, count, err := s.repo.ListPages(ctx, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	totalChars, err := s.repo.TotalChars(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("total chars: %w", err)
	}
	return &PageListing{Pages: pages, PagesCount: count, TotalChars: totalChars}, nil
}

// GetPage returns one page. A missing document and a missing page are
// distinct errors.
func (s *DocumentService) GetPage(ctx context.Context, id string, pageNumber int) (*medirag.DocumentPage, error) {
	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetPage(ctx, id, pageNumber)
}

func (s *DocumentService) tryLock(id string) bool {
	s.mu.Lock()
	ch, ok := s.processing[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.processing[id] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *DocumentService) unlock(id string) {
	s.mu.Lock()
	ch := s.processing[id]
	s.mu.Unlock()

	select {
	case <-ch:
	default:
	}
}
