package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a stored blob does not exist on disk.
var ErrNotFound = errors.New("not found")

// BlobName is the fixed filename every original upload is stored under
// inside its document directory.
const BlobName = "original.pdf"

// BlobStore persists original uploads, one directory per document.
// Metadata lives in the document row; the store only deals in bytes.
type BlobStore interface {
	// Save writes the upload for documentID and returns the blob path
	// and the number of bytes written.
	Save(ctx context.Context, documentID string, r io.Reader) (string, int64, error)
	// Open returns a reader for a previously saved blob path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Stat reports whether the blob at path still exists. Returns
	// ErrNotFound when it is gone.
	Stat(path string) error
}
