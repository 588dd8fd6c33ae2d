package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/seonho/medirag/internal/medirag"
)

// MemoryDocumentRepository stores documents and pages in memory.
// Values are copied on the way in and out so callers cannot mutate
// stored state through aliased pointers, matching database semantics.
type MemoryDocumentRepository struct {
	mu    sync.RWMutex
	docs  map[string]medirag.Document
	pages map[string][]medirag.DocumentPage // keyed by document ID, sorted by page number
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		docs:  make(map[string]medirag.Document),
		pages: make(map[string][]medirag.DocumentPage),
	}
}

func (r *MemoryDocumentRepository) CreateDocument(_ context.Context, doc *medirag.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[doc.ID]; ok {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *MemoryDocumentRepository) GetDocument(_ context.Context, id string) (*medirag.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, medirag.ErrDocumentNotFound)
	}
	return &doc, nil
}

func (r *MemoryDocumentRepository) UpdateDocument(_ context.Context, doc *medirag.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("%s: %w", doc.ID, medirag.ErrDocumentNotFound)
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *MemoryDocumentRepository) ReplacePages(_ context.Context, documentID string, pages []*medirag.DocumentPage, status medirag.DocumentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[documentID]
	if !ok {
		return fmt.Errorf("%s: %w", documentID, medirag.ErrDocumentNotFound)
	}

	fresh := make([]medirag.DocumentPage, len(pages))
	for i, p := range pages {
		fresh[i] = *p
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].PageNumber < fresh[j].PageNumber })

	r.pages[documentID] = fresh
	doc.Status = status
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryDocumentRepository) ListPages(_ context.Context, documentID string, limit, offset int) ([]*medirag.DocumentPage, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.pages[documentID]
	total := len(all)

	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	window := make([]*medirag.DocumentPage, 0, end-offset)
	for i := offset; i < end; i++ {
		p := all[i]
		window = append(window, &p)
	}
	return window, total, nil
}

func (r *MemoryDocumentRepository) TotalChars(_ context.Context, documentID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, p := range r.pages[documentID] {
		total += utf8.RuneCountInString(p.Text)
	}
	return total, nil
}

func (r *MemoryDocumentRepository) GetPage(_ context.Context, documentID string, pageNumber int) (*medirag.DocumentPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.pages[documentID] {
		if p.PageNumber == pageNumber {
			page := p
			return &page, nil
		}
	}
	return nil, fmt.Errorf("document %s page %d: %w", documentID, pageNumber, medirag.ErrPageNotFound)
}

func (r *MemoryDocumentRepository) MarkAbandoned(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, doc := range r.docs {
		if doc.Status == medirag.StatusCreated && doc.StoragePath == "" && doc.CreatedAt.Before(before) {
			doc.Status = medirag.StatusError
			r.docs[id] = doc
			count++
		}
	}
	return count, nil
}
