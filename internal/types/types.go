// Package types defines core data structures for the complyd compliance tracker.
package types

import (
	"fmt"
	"time"
)

// Requirement is one checklist item within a compliance template.
// Requirements are seeded from the catalog and never mutated by the core.
type Requirement struct {
	ID          string     `json:"id"`
	TemplateID  string     `json:"template_id"`
	Category    string     `json:"category,omitempty"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Required    bool       `json:"required"`
	RecencyDays *int       `json:"recency_days,omitempty"` // Evidence must be dated within the last N days
	Position    int        `json:"position"`               // Order within the template
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks the requirement's field invariants.
func (r *Requirement) Validate() error {
	if len(r.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(r.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(r.Title))
	}
	if r.TemplateID == "" {
		return fmt.Errorf("template_id is required")
	}
	if r.RecencyDays != nil && *r.RecencyDays <= 0 {
		return fmt.Errorf("recency_days must be positive (got %d)", *r.RecencyDays)
	}
	return nil
}

// DocStatus is the lifecycle status of a stored document.
type DocStatus string

// Document lifecycle constants. Any other value is treated as needs_review
// during resolution, never silently as satisfied.
const (
	DocOK          DocStatus = "ok"
	DocNeedsReview DocStatus = "needs_review"
	DocExpired     DocStatus = "expired"
)

// IsValid checks if the status is one of the known lifecycle values.
func (s DocStatus) IsValid() bool {
	switch s {
	case DocOK, DocNeedsReview, DocExpired:
		return true
	}
	return false
}

// Document is a piece of evidence offered against a requirement.
// Owned by the evidence store; the core only reads status and date fields.
type Document struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Name      string     `json:"name,omitempty"`
	Status    DocStatus  `json:"status"`
	DocDate   *time.Time `json:"doc_date,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Override is a manual annotation on a link that bypasses evidence-based
// resolution. Empty means no override.
type Override string

// Override constants. Exactly three non-empty values are legal.
const (
	OverrideNone      Override = ""
	OverrideSatisfied Override = "satisfied"
	OverrideRejected  Override = "rejected"
	OverrideNotSure   Override = "not_sure"
)

// IsValid checks if the override value is legal (including "none").
func (o Override) IsValid() bool {
	switch o {
	case OverrideNone, OverrideSatisfied, OverrideRejected, OverrideNotSure:
		return true
	}
	return false
}

// Link associates exactly one document with one requirement for a tenant.
// At most one link exists per (tenant, requirement); the store enforces
// uniqueness and upsert semantics.
type Link struct {
	TenantID      string    `json:"tenant_id"`
	RequirementID string    `json:"requirement_id"`
	DocumentID    string    `json:"document_id"`
	Override      Override  `json:"override,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks the link's field invariants.
func (l *Link) Validate() error {
	if l.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if l.RequirementID == "" {
		return fmt.Errorf("requirement_id is required")
	}
	if l.DocumentID == "" {
		return fmt.Errorf("document_id is required")
	}
	if !l.Override.IsValid() {
		return fmt.Errorf("invalid override: %s", l.Override)
	}
	return nil
}

// ResolvedStatus is the computed outcome for a requirement. Derived on every
// read from requirement + link + document; never persisted.
type ResolvedStatus string

// Resolved status constants
const (
	StatusSatisfied   ResolvedStatus = "satisfied"
	StatusMissing     ResolvedStatus = "missing"
	StatusExpired     ResolvedStatus = "expired"
	StatusNeedsReview ResolvedStatus = "needs_review"
)

// IsValid checks if the resolved status value is valid.
func (s ResolvedStatus) IsValid() bool {
	switch s {
	case StatusSatisfied, StatusMissing, StatusExpired, StatusNeedsReview:
		return true
	}
	return false
}

// TaskSource identifies what created a task. Reconciliation only ever
// touches tasks with SourceMissingItem; user-created tasks are invisible
// to the sync pass.
type TaskSource string

// Task source constants
const (
	SourceUser        TaskSource = "user"
	SourceMissingItem TaskSource = "missing_item"
)

// IsValid checks if the task source value is valid.
func (s TaskSource) IsValid() bool {
	switch s {
	case SourceUser, SourceMissingItem:
		return true
	}
	return false
}

// TaskStatus represents the current state of a tracking task.
type TaskStatus string

// Task status constants
const (
	TaskOpen    TaskStatus = "open"
	TaskSnoozed TaskStatus = "snoozed"
	TaskDone    TaskStatus = "done"
)

// IsValid checks if the task status value is valid.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskOpen, TaskSnoozed, TaskDone:
		return true
	}
	return false
}

// TaskPriority represents the urgency of a tracking task.
type TaskPriority string

// Task priority constants
const (
	PriorityNormal TaskPriority = "normal"
	PriorityUrgent TaskPriority = "urgent"
)

// IsValid checks if the priority value is valid.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityUrgent:
		return true
	}
	return false
}

// Task is a tracking to-do item. Machine-generated tasks mirror unmet
// requirements; DueAt is set once at creation and never altered by
// reconciliation, so a deadline reflects when the gap was first discovered.
type Task struct {
	ID            string       `json:"id"`
	TenantID      string       `json:"tenant_id"`
	TemplateID    string       `json:"template_id"`
	RequirementID string       `json:"requirement_id,omitempty"`
	Source        TaskSource   `json:"source"`
	Title         string       `json:"title"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	DueAt         *time.Time   `json:"due_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Validate checks if the task has valid field values.
func (t *Task) Validate() error {
	if len(t.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if t.TenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if !t.Source.IsValid() {
		return fmt.Errorf("invalid source: %s", t.Source)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", t.Priority)
	}
	// completed_at invariant: set if and only if the task is done
	if t.Status == TaskDone && t.CompletedAt == nil {
		return fmt.Errorf("done tasks must have completed_at timestamp")
	}
	if t.Status != TaskDone && t.CompletedAt != nil {
		return fmt.Errorf("non-done tasks cannot have completed_at timestamp")
	}
	return nil
}

// SetDefaults applies default values for fields omitted at creation.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = TaskOpen
	}
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	if t.Source == "" {
		t.Source = SourceUser
	}
}

// Summary is the aggregate rollup of resolved statuses for a template.
// Missing optional requirements are folded into Satisfied; see resolver.Summarize.
type Summary struct {
	Satisfied   int `json:"satisfied"`
	Missing     int `json:"missing"`
	Expired     int `json:"expired"`
	NeedsReview int `json:"needs_review"`
	Total       int `json:"total"`
}
