// Package memory implements the storage interface with in-process maps.
//
// It backs the resolver and reconciler test suites and is usable by
// embedding callers that do not need persistence. All methods are safe for
// concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

// Store is an in-memory implementation of storage.Storage.
type Store struct {
	mu           sync.RWMutex
	requirements map[string]*types.Requirement // by requirement ID
	documents    map[string]*types.Document    // by tenant/doc key
	links        map[string]*types.Link        // by tenant/requirement key
	tasks        map[string]*types.Task        // by task ID
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		requirements: make(map[string]*types.Requirement),
		documents:    make(map[string]*types.Document),
		links:        make(map[string]*types.Link),
		tasks:        make(map[string]*types.Task),
	}
}

func docKey(tenantID, id string) string     { return tenantID + "\x00" + id }
func linkKey(tenantID, reqID string) string { return tenantID + "\x00" + reqID }

// CreateRequirement adds a catalog requirement.
func (s *Store) CreateRequirement(_ context.Context, req *types.Requirement) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requirements[req.ID]; ok {
		return fmt.Errorf("requirement %s already exists", req.ID)
	}
	cp := *req
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.requirements[req.ID] = &cp
	return nil
}

// ListRequirements returns the template's requirements in catalog order.
func (s *Store) ListRequirements(_ context.Context, templateID string) ([]*types.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Requirement
	for _, r := range s.requirements {
		if r.TemplateID == templateID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// PutDocument creates or replaces a document.
func (s *Store) PutDocument(_ context.Context, doc *types.Document) error {
	if doc.ID == "" || doc.TenantID == "" {
		return fmt.Errorf("document id and tenant_id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.documents[docKey(doc.TenantID, doc.ID)] = &cp
	return nil
}

// GetDocument returns one document or storage.ErrNotFound.
func (s *Store) GetDocument(_ context.Context, tenantID, id string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[docKey(tenantID, id)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

// GetDocuments returns the documents that exist among ids, keyed by ID.
// Missing documents are simply absent from the map (dangling links are a
// resolver concern, not a storage error).
func (s *Store) GetDocuments(_ context.Context, tenantID string, ids []string) (map[string]*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*types.Document, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[docKey(tenantID, id)]; ok {
			cp := *doc
			out[id] = &cp
		}
	}
	return out, nil
}

// UpsertLink creates or replaces the link for (tenant, requirement).
func (s *Store) UpsertLink(_ context.Context, link *types.Link) error {
	if err := link.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := linkKey(link.TenantID, link.RequirementID)
	now := time.Now().UTC()
	cp := *link
	if existing, ok := s.links[key]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.links[key] = &cp
	return nil
}

// DeleteLink removes the link for (tenant, requirement), if present.
func (s *Store) DeleteLink(_ context.Context, tenantID, requirementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, linkKey(tenantID, requirementID))
	return nil
}

// GetLinks returns the links for the given requirements, keyed by
// requirement ID. Requirements without a link are absent from the map.
func (s *Store) GetLinks(_ context.Context, tenantID string, requirementIDs []string) (map[string]*types.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*types.Link, len(requirementIDs))
	for _, reqID := range requirementIDs {
		if link, ok := s.links[linkKey(tenantID, reqID)]; ok {
			cp := *link
			out[reqID] = &cp
		}
	}
	return out, nil
}

// CreateTask adds a tracking task.
func (s *Store) CreateTask(_ context.Context, task *types.Task) error {
	task.SetDefaults()
	if err := task.Validate(); err != nil {
		return err
	}
	if task.ID == "" {
		return fmt.Errorf("task id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	cp := *task
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.tasks[task.ID] = &cp
	return nil
}

// GetTask returns one task or storage.ErrNotFound.
func (s *Store) GetTask(_ context.Context, id string) (*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

// UpdateTask applies a partial update to a task. Recognized keys: status,
// priority, completed_at, title, due_at (due_at accepted here for user
// edits; reconciliation never sends it).
func (s *Store) UpdateTask(_ context.Context, id string, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return storage.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			task.Status = types.TaskStatus(fmt.Sprint(value))
		case "priority":
			task.Priority = types.TaskPriority(fmt.Sprint(value))
		case "title":
			task.Title = fmt.Sprint(value)
		case "completed_at", "due_at":
			var ts *time.Time
			switch v := value.(type) {
			case nil:
				ts = nil
			case *time.Time:
				ts = v
			case time.Time:
				ts = &v
			default:
				return fmt.Errorf("invalid %s value %T", key, value)
			}
			if key == "completed_at" {
				task.CompletedAt = ts
			} else {
				task.DueAt = ts
			}
		default:
			return fmt.Errorf("unknown update field %q", key)
		}
	}
	task.UpdatedAt = time.Now().UTC()
	return nil
}

// ListMachineTasks returns machine-generated tasks for the tenant/template,
// ordered by creation time.
func (s *Store) ListMachineTasks(_ context.Context, tenantID, templateID string) ([]*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Task
	for _, t := range s.tasks {
		if t.TenantID == tenantID && t.TemplateID == templateID && t.Source == types.SourceMissingItem {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortTasks(out)
	return out, nil
}

// ListTasks returns all of the tenant's tasks, ordered by creation time.
func (s *Store) ListTasks(_ context.Context, tenantID string) ([]*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Task
	for _, t := range s.tasks {
		if t.TenantID == tenantID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortTasks(out)
	return out, nil
}

func sortTasks(tasks []*types.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return strings.Compare(tasks[i].ID, tasks[j].ID) < 0
	})
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
