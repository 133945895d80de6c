package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/farmdesk/complyd/internal/types"
)

// CreateRequirement inserts one catalog requirement.
func (s *Store) CreateRequirement(ctx context.Context, req *types.Requirement) error {
	if err := req.Validate(); err != nil {
		return err
	}
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requirements (id, template_id, category, title, notes, required, recency_days, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.TemplateID, req.Category, req.Title, req.Notes,
		boolToInt(req.Required), req.RecencyDays, req.Position, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert requirement %s: %w", req.ID, err)
	}
	return nil
}

// ListRequirements returns the template's requirements in catalog order.
func (s *Store) ListRequirements(ctx context.Context, templateID string) ([]*types.Requirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, category, title, notes, required, recency_days, position, created_at
		FROM requirements
		WHERE template_id = ?
		ORDER BY position, id
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequirement(rows *sql.Rows) (*types.Requirement, error) {
	var req types.Requirement
	var required int
	var recencyDays sql.NullInt64
	if err := rows.Scan(&req.ID, &req.TemplateID, &req.Category, &req.Title, &req.Notes,
		&required, &recencyDays, &req.Position, &req.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan requirement: %w", err)
	}
	req.Required = required != 0
	if recencyDays.Valid {
		days := int(recencyDays.Int64)
		req.RecencyDays = &days
	}
	return &req, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
