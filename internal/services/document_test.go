package services

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/seonho/medirag/internal/medirag"
	"github.com/seonho/medirag/internal/repository"
	"github.com/seonho/medirag/internal/storage"
)

// stubExtractor returns canned pages or a canned error.
type stubExtractor struct {
	pages []string
	err   error
}

func (e *stubExtractor) ExtractPages(_ context.Context, _ string) ([]string, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.pages, nil
}

// blockingExtractor parks until released, to hold the process lock open.
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
}

func (e *blockingExtractor) ExtractPages(_ context.Context, _ string) ([]string, error) {
	e.started <- struct{}{}
	<-e.release
	return []string{"page"}, nil
}

func newTestService(t *testing.T, ex *stubExtractor) (*DocumentService, *repository.MemoryDocumentRepository) {
	t.Helper()
	repo := repository.NewMemoryDocumentRepository()
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return NewDocumentService(repo, blobs, ex), repo
}

func upload(t *testing.T, svc *DocumentService) *medirag.Document {
	t.Helper()
	doc, err := svc.Create(context.Background(), "referral.pdf", "application/pdf", strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return doc
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{})
	doc := upload(t, svc)

	if doc.Status != medirag.StatusUploaded {
		t.Errorf("status: got %q, want %q", doc.Status, medirag.StatusUploaded)
	}
	if doc.StoragePath == "" {
		t.Fatal("storage_path should be set after upload")
	}
	// storage_path must point at a real, readable file.
	data, err := os.ReadFile(doc.StoragePath)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(data) != "%PDF-1.4 body" {
		t.Errorf("blob content: got %q", string(data))
	}
}

func TestProcess(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{pages: []string{"hello", "", "world!"}})
	doc := upload(t, svc)

	got, res, err := svc.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got.Status != medirag.StatusParsed {
		t.Errorf("status: got %q, want parsed", got.Status)
	}
	if res.PagesProcessed != 3 {
		t.Errorf("pages_processed: got %d, want 3", res.PagesProcessed)
	}
	if res.TotalChars != 11 {
		t.Errorf("total_chars: got %d, want 11", res.TotalChars)
	}

	listing, err := svc.ListPages(context.Background(), doc.ID, 200, 0)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if listing.PagesCount != 3 {
		t.Errorf("pages_count: got %d", listing.PagesCount)
	}
	for i, p := range listing.Pages {
		if p.PageNumber != i+1 {
			t.Errorf("page %d: got page_number %d", i, p.PageNumber)
		}
	}
	if listing.Pages[1].Text != "" {
		t.Errorf("page 2 should keep its empty text, got %q", listing.Pages[1].Text)
	}
}

func TestProcess_RerunReplaces(t *testing.T) {
	ex := &stubExtractor{pages: []string{"1", "2", "3", "4", "5"}}
	svc, _ := newTestService(t, ex)
	doc := upload(t, svc)

	if _, res, err := svc.Process(context.Background(), doc.ID); err != nil || res.PagesProcessed != 5 {
		t.Fatalf("first Process: res=%+v err=%v", res, err)
	}

	ex.pages = []string{"a", "b", "c"}
	_, res, err := svc.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if res.PagesProcessed != 3 {
		t.Errorf("pages_processed: got %d, want 3", res.PagesProcessed)
	}

	listing, err := svc.ListPages(context.Background(), doc.ID, 200, 0)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if listing.PagesCount != 3 {
		t.Errorf("pages replaced, not appended: got count %d, want 3", listing.PagesCount)
	}
}

func TestProcess_ExtractorFailureThenRetry(t *testing.T) {
	ex := &stubExtractor{err: errors.New("bad xref table")}
	svc, repo := newTestService(t, ex)
	doc := upload(t, svc)

	_, _, err := svc.Process(context.Background(), doc.ID)
	if !errors.Is(err, medirag.ErrExtractFailed) {
		t.Fatalf("expected ErrExtractFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad xref table") {
		t.Errorf("underlying message should be carried, got %q", err.Error())
	}

	stored, err := repo.GetDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != medirag.StatusError {
		t.Errorf("status after failure: got %q, want error", stored.Status)
	}

	// The same blob may simply be retried.
	ex.err = nil
	ex.pages = []string{"recovered"}
	got, res, err := svc.Process(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("retry Process: %v", err)
	}
	if got.Status != medirag.StatusParsed || res.PagesProcessed != 1 {
		t.Errorf("retry: status=%q pages=%d", got.Status, res.PagesProcessed)
	}
}

func TestProcess_NoStoredFile(t *testing.T) {
	svc, repo := newTestService(t, &stubExtractor{})
	doc := medirag.NewDocument("stuck.pdf", "application/pdf")
	if err := repo.CreateDocument(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	_, _, err := svc.Process(context.Background(), doc.ID)
	if !errors.Is(err, medirag.ErrNoStoredFile) {
		t.Errorf("expected ErrNoStoredFile (conflict, not 404), got %v", err)
	}
}

func TestProcess_BlobGoneFromDisk(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{pages: []string{"x"}})
	doc := upload(t, svc)
	os.Remove(doc.StoragePath)

	_, _, err := svc.Process(context.Background(), doc.ID)
	if !errors.Is(err, medirag.ErrFileMissing) {
		t.Errorf("expected ErrFileMissing, got %v", err)
	}
}

func TestProcess_DocumentNotFound(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{})
	_, _, err := svc.Process(context.Background(), "ghost")
	if !errors.Is(err, medirag.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestProcess_ConcurrentCallRejected(t *testing.T) {
	ex := &blockingExtractor{started: make(chan struct{}), release: make(chan struct{})}
	repo := repository.NewMemoryDocumentRepository()
	blobs, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewDocumentService(repo, blobs, ex)
	doc := upload(t, svc)

	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Process(context.Background(), doc.ID)
		done <- err
	}()
	<-ex.started // first call is inside the extractor, holding the lock

	_, _, err = svc.Process(context.Background(), doc.ID)
	if !errors.Is(err, medirag.ErrProcessingInProgress) {
		t.Errorf("expected ErrProcessingInProgress, got %v", err)
	}

	close(ex.release)
	if err := <-done; err != nil {
		t.Fatalf("first Process: %v", err)
	}

	// Lock released: a later call goes through. The release channel is
	// already closed, so the extractor returns immediately.
	ex.started = make(chan struct{}, 1)
	if _, _, err := svc.Process(context.Background(), doc.ID); err != nil {
		t.Fatalf("Process after release: %v", err)
	}
}

func TestListPages_Validation(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{})
	ctx := context.Background()

	for _, limit := range []int{0, -1, 501} {
		if _, err := svc.ListPages(ctx, "any", limit, 0); !errors.Is(err, medirag.ErrLimitOutOfRange) {
			t.Errorf("limit=%d: expected ErrLimitOutOfRange, got %v", limit, err)
		}
	}
	if _, err := svc.ListPages(ctx, "any", 200, -1); !errors.Is(err, medirag.ErrNegativeOffset) {
		t.Errorf("expected ErrNegativeOffset, got %v", err)
	}
	// Validation happens before the document lookup.
	if _, err := svc.ListPages(ctx, "ghost", 0, 0); errors.Is(err, medirag.ErrDocumentNotFound) {
		t.Error("bad limit should win over missing document")
	}
	if _, err := svc.ListPages(ctx, "ghost", 200, 0); !errors.Is(err, medirag.ErrDocumentNotFound) {
		t.Error("valid params on missing document should be not-found")
	}
}

func TestListPages_WindowIndependentCounts(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{pages: []string{"aaaa", "bb", "c"}})
	doc := upload(t, svc)
	if _, _, err := svc.Process(context.Background(), doc.ID); err != nil {
		t.Fatal(err)
	}

	listing, err := svc.ListPages(context.Background(), doc.ID, 1, 0)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(listing.Pages) != 1 || listing.Pages[0].PageNumber != 1 {
		t.Errorf("limit=1 offset=0 must return exactly page 1, got %+v", listing.Pages)
	}
	if listing.PagesCount != 3 {
		t.Errorf("pages_count: got %d, want 3", listing.PagesCount)
	}
	if listing.TotalChars != 7 {
		t.Errorf("total_chars must ignore the window: got %d, want 7", listing.TotalChars)
	}
}

func TestGetPage_DistinctNotFound(t *testing.T) {
	svc, _ := newTestService(t, &stubExtractor{pages: []string{"only"}})
	doc := upload(t, svc)
	if _, _, err := svc.Process(context.Background(), doc.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetPage(context.Background(), "ghost", 1); !errors.Is(err, medirag.ErrDocumentNotFound) {
		t.Errorf("missing document: got %v", err)
	}
	if _, err := svc.GetPage(context.Background(), doc.ID, 9); !errors.Is(err, medirag.ErrPageNotFound) {
		t.Errorf("missing page: got %v", err)
	}
	page, err := svc.GetPage(context.Background(), doc.ID, 1)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page.Text != "only" {
		t.Errorf("text: got %q", page.Text)
	}
}

func TestOpenFile(t *testing.T) {
	svc, repo := newTestService(t, &stubExtractor{})
	doc := upload(t, svc)

	got, rc, err := svc.OpenFile(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer rc.Close()
	if got.Filename != "referral.pdf" {
		t.Errorf("filename: got %q", got.Filename)
	}
	data, _ := io.ReadAll(rc)
	if len(data) == 0 {
		t.Error("expected blob bytes")
	}

	// Empty storage_path is a conflict, not a 404.
	bare := medirag.NewDocument("bare.pdf", "application/pdf")
	if err := repo.CreateDocument(context.Background(), bare); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.OpenFile(context.Background(), bare.ID); !errors.Is(err, medirag.ErrNoStoredFile) {
		t.Errorf("expected ErrNoStoredFile, got %v", err)
	}

	// Path set but file gone from disk.
	os.Remove(doc.StoragePath)
	if _, _, err := svc.OpenFile(context.Background(), doc.ID); !errors.Is(err, medirag.ErrFileMissing) {
		t.Errorf("expected ErrFileMissing, got %v", err)
	}
}
