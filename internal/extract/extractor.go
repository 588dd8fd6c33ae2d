// Package extract turns stored documents into ordered per-page text.
package extract

import "context"

// PageExtractor is the external parsing capability: given a file path,
// produce one string per page (index 0 = page 1). Pages without
// extractable text yield an empty string rather than an error; only a
// wholly unreadable or corrupt file fails.
type PageExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}
