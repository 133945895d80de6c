package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

// CreateTask inserts one tracking task.
func (s *Store) CreateTask(ctx context.Context, task *types.Task) error {
	task.SetDefaults()
	if err := task.Validate(); err != nil {
		return err
	}
	if task.ID == "" {
		return fmt.Errorf("task id is required")
	}
	now := time.Now().UTC()
	createdAt := task.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, tenant_id, template_id, requirement_id, source, title,
			status, priority, due_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.TenantID, task.TemplateID, task.RequirementID, task.Source, task.Title,
		task.Status, task.Priority, task.DueAt, task.CompletedAt, createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask returns one task or storage.ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, taskSelect+` WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	return task, err
}

// UpdateTask applies a partial update. Recognized keys: status, priority,
// title, completed_at, due_at. Reconciliation never sends due_at; it is
// accepted here only for user-driven edits.
func (s *Store) UpdateTask(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	setClause := ""
	args := make([]interface{}, 0, len(updates)+2)
	for key, value := range updates {
		switch key {
		case "status", "priority", "title", "completed_at", "due_at":
			if setClause != "" {
				setClause += ", "
			}
			setClause += key + " = ?"
			args = append(args, normalizeTime(value))
		default:
			return fmt.Errorf("unknown update field %q", key)
		}
	}
	setClause += ", updated_at = ?"
	args = append(args, time.Now().UTC(), id)

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+setClause+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListMachineTasks returns machine-generated tasks for the tenant/template,
// ordered by creation time.
func (s *Store) ListMachineTasks(ctx context.Context, tenantID, templateID string) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskSelect+`
		WHERE tenant_id = ? AND template_id = ? AND source = ?
		ORDER BY created_at, id
	`, tenantID, templateID, types.SourceMissingItem)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListTasks returns all of the tenant's tasks, ordered by creation time.
func (s *Store) ListTasks(ctx context.Context, tenantID string) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskSelect+`
		WHERE tenant_id = ?
		ORDER BY created_at, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return collectTasks(rows)
}

const taskSelect = `
	SELECT id, tenant_id, template_id, requirement_id, source, title,
		status, priority, due_at, completed_at, created_at, updated_at
	FROM tasks`

func collectTasks(rows *sql.Rows) ([]*types.Task, error) {
	defer func() { _ = rows.Close() }()
	var out []*types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func scanTask(sc scanner) (*types.Task, error) {
	var task types.Task
	var dueAt, completedAt sql.NullTime
	err := sc.Scan(&task.ID, &task.TenantID, &task.TemplateID, &task.RequirementID,
		&task.Source, &task.Title, &task.Status, &task.Priority,
		&dueAt, &completedAt, &task.CreatedAt, &task.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	if dueAt.Valid {
		t := dueAt.Time
		task.DueAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return &task, nil
}

// normalizeTime unwraps *time.Time update values so the driver sees either a
// concrete time.Time or nil.
func normalizeTime(value interface{}) interface{} {
	if t, ok := value.(*time.Time); ok {
		if t == nil {
			return nil
		}
		return *t
	}
	return value
}
