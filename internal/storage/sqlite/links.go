package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farmdesk/complyd/internal/types"
)

// UpsertLink creates or replaces the link for (tenant, requirement).
// Uniqueness is enforced by the table's primary key; relinking replaces the
// document and override while keeping the original created_at.
func (s *Store) UpsertLink(ctx context.Context, link *types.Link) error {
	if err := link.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO links (tenant_id, requirement_id, document_id, override, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, requirement_id) DO UPDATE SET
			document_id = excluded.document_id,
			override = excluded.override,
			updated_at = excluded.updated_at
	`, link.TenantID, link.RequirementID, link.DocumentID, link.Override, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert link for requirement %s: %w", link.RequirementID, err)
	}
	return nil
}

// DeleteLink removes the link for (tenant, requirement), if present.
func (s *Store) DeleteLink(ctx context.Context, tenantID, requirementID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM links WHERE tenant_id = ? AND requirement_id = ?`,
		tenantID, requirementID)
	if err != nil {
		return fmt.Errorf("failed to delete link for requirement %s: %w", requirementID, err)
	}
	return nil
}

// GetLinks returns the tenant's links for the given requirements, keyed by
// requirement ID.
func (s *Store) GetLinks(ctx context.Context, tenantID string, requirementIDs []string) (map[string]*types.Link, error) {
	if len(requirementIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(requirementIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(requirementIDs)+1)
	args = append(args, tenantID)
	for _, id := range requirementIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id, requirement_id, document_id, override, created_at, updated_at
		FROM links
		WHERE tenant_id = ? AND requirement_id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]*types.Link, len(requirementIDs))
	for rows.Next() {
		var link types.Link
		if err := rows.Scan(&link.TenantID, &link.RequirementID, &link.DocumentID,
			&link.Override, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		out[link.RequirementID] = &link
	}
	return out, rows.Err()
}
