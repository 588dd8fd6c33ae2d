package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/seonho/medirag/internal/medirag"
	"github.com/seonho/medirag/internal/repository"
)

var _ repository.DocumentRepository = (*DB)(nil)

// CreateDocument stores a new document record.
func (d *DB) CreateDocument(ctx context.Context, doc *medirag.Document) error {
	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO documents (id, filename, content_type, status, storage_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Filename, doc.ContentType, string(doc.Status), doc.StoragePath, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (d *DB) GetDocument(ctx context.Context, id string) (*medirag.Document, error) {
	doc := &medirag.Document{}
	var status string

	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, filename, content_type, status, storage_path, created_at
		 FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Filename, &doc.ContentType, &status, &doc.StoragePath, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", id, medirag.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	doc.Status = medirag.DocumentStatus(status)
	return doc, nil
}

// UpdateDocument updates the mutable fields of an existing document.
func (d *DB) UpdateDocument(ctx context.Context, doc *medirag.Document) error {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE documents SET filename = $1, content_type = $2, status = $3, storage_path = $4
		 WHERE id = $5`,
		doc.Filename, doc.ContentType, string(doc.Status), doc.StoragePath, doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", doc.ID, medirag.ErrDocumentNotFound)
	}
	return nil
}

// ReplacePages deletes all pages of the document and inserts the fresh
// set, updating the document status in the same transaction.
func (d *DB) ReplacePages(ctx context.Context, documentID string, pages []*medirag.DocumentPage, status medirag.DocumentStatus) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_pages WHERE document_id = $1`, documentID,
	); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}

	for _, p := range pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_pages (id, document_id, page_number, text, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.DocumentID, p.PageNumber, p.Text, p.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert page %d: %w", p.PageNumber, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET status = $1 WHERE id = $2`, string(status), documentID,
	)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", documentID, medirag.ErrDocumentNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pages: %w", err)
	}
	return nil
}

// ListPages returns a window of pages ordered by page number plus the
// total page count for the document.
func (d *DB) ListPages(ctx context.Context, documentID string, limit, offset int) ([]*medirag.DocumentPage, int, error) {
	var total int
	err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_pages WHERE document_id = $1`, documentID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count pages: %w", err)
	}

	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, document_id, page_number, text, created_at
		 FROM document_pages WHERE document_id = $1
		 ORDER BY page_number ASC LIMIT $2 OFFSET $3`,
		documentID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var result []*medirag.DocumentPage
	for rows.Next() {
		p := &medirag.DocumentPage{}
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.PageNumber, &p.Text, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan page: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list pages: %w", err)
	}
	return result, total, nil
}

// TotalChars sums character counts across all pages of the document.
// Postgres LENGTH counts characters, matching the service's rune counting.
func (d *DB) TotalChars(ctx context.Context, documentID string) (int, error) {
	var total int
	err := d.Pool.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(text)), 0) FROM document_pages WHERE document_id = $1`,
		documentID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum page chars: %w", err)
	}
	return total, nil
}

// GetPage retrieves one page by document ID and page number.
func (d *DB) GetPage(ctx context.Context, documentID string, pageNumber int) (*medirag.DocumentPage, error) {
	p := &medirag.DocumentPage{}
	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, document_id, page_number, text, created_at
		 FROM document_pages WHERE document_id = $1 AND page_number = $2`,
		documentID, pageNumber,
	).Scan(&p.ID, &p.DocumentID, &p.PageNumber, &p.Text, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s page %d: %w", documentID, pageNumber, medirag.ErrPageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// MarkAbandoned flips blobless created documents older than the cutoff
// to error. One idempotent statement; safe to run from the sweeper at
// any frequency.
func (d *DB) MarkAbandoned(ctx context.Context, before time.Time) (int, error) {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE documents SET status = $1
		 WHERE status = $2 AND storage_path = '' AND created_at < $3`,
		string(medirag.StatusError), string(medirag.StatusCreated), before,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	return int(n), nil
}
