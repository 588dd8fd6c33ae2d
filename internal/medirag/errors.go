package medirag

import "errors"

// Sentinel errors for the intake API. Repositories and services wrap
// these with fmt.Errorf("...: %w", ...) so handlers can map them to
// status codes with errors.Is while keeping distinct client-facing
// messages (a missing document and a missing page both surface as 404
// but must stay distinguishable).
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrPageNotFound     = errors.New("page not found")

	// ErrNoStoredFile: the row exists but storage_path is empty, i.e.
	// the blob write never completed.
	ErrNoStoredFile = errors.New("document has no stored file yet")

	// ErrFileMissing: storage_path is set but the blob is gone from
	// disk (drift between database and filesystem).
	ErrFileMissing = errors.New("stored file not found on disk")

	// ErrProcessingInProgress: a concurrent process call holds the
	// per-document lock.
	ErrProcessingInProgress = errors.New("document is already being processed")

	// ErrExtractFailed wraps the parser error for corrupt or
	// unreadable input.
	ErrExtractFailed = errors.New("failed to parse PDF")

	ErrLimitOutOfRange = errors.New("limit must be between 1 and 500")
	ErrNegativeOffset  = errors.New("offset must be >= 0")
)
