package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

// PutDocument creates or replaces a document, preserving created_at on replace.
func (s *Store) PutDocument(ctx context.Context, doc *types.Document) error {
	if doc.ID == "" || doc.TenantID == "" {
		return fmt.Errorf("document id and tenant_id are required")
	}
	now := time.Now().UTC()
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, name, status, doc_date, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			doc_date = excluded.doc_date,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, doc.ID, doc.TenantID, doc.Name, doc.Status, doc.DocDate, doc.ExpiresAt, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument returns one document or storage.ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, status, doc_date, expires_at, created_at, updated_at
		FROM documents
		WHERE tenant_id = ? AND id = ?
	`, tenantID, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	return doc, err
}

// GetDocuments returns the documents that exist among ids, keyed by ID.
func (s *Store) GetDocuments(ctx context.Context, tenantID string, ids []string) (map[string]*types.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, tenantID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, status, doc_date, expires_at, created_at, updated_at
		FROM documents
		WHERE tenant_id = ? AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]*types.Document, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	return out, rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(sc scanner) (*types.Document, error) {
	var doc types.Document
	var docDate, expiresAt sql.NullTime
	err := sc.Scan(&doc.ID, &doc.TenantID, &doc.Name, &doc.Status,
		&docDate, &expiresAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	if docDate.Valid {
		t := docDate.Time
		doc.DocDate = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		doc.ExpiresAt = &t
	}
	return &doc, nil
}
