// Package storage provides shared types for compliance data storage.
//
// Concrete implementations live in the sqlite and memory sub-packages.
// This package holds the interface and sentinel errors referenced by both
// the implementations and their consumers (resolver, reconcile, cmd/complyd).
package storage

import (
	"context"
	"errors"

	"github.com/farmdesk/complyd/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrNotInitialized is returned when the database schema has not been created.
var ErrNotInitialized = errors.New("database not initialized")

// Storage is the interface satisfied by *sqlite.Store and *memory.Store.
// Consumers depend on this interface rather than on a concrete type so that
// alternative implementations (mocks, instrumented wrappers) can be
// substituted.
type Storage interface {
	// Requirement catalog (seeded once, read thereafter)
	CreateRequirement(ctx context.Context, req *types.Requirement) error
	ListRequirements(ctx context.Context, templateID string) ([]*types.Requirement, error)

	// Documents (evidence)
	PutDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, tenantID, id string) (*types.Document, error)
	GetDocuments(ctx context.Context, tenantID string, ids []string) (map[string]*types.Document, error)

	// Links: at most one per (tenant, requirement), upsert semantics
	UpsertLink(ctx context.Context, link *types.Link) error
	DeleteLink(ctx context.Context, tenantID, requirementID string) error
	GetLinks(ctx context.Context, tenantID string, requirementIDs []string) (map[string]*types.Link, error)

	// Tracking tasks
	CreateTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	UpdateTask(ctx context.Context, id string, updates map[string]interface{}) error
	ListMachineTasks(ctx context.Context, tenantID, templateID string) ([]*types.Task, error)
	ListTasks(ctx context.Context, tenantID string) ([]*types.Task, error)

	// Lifecycle
	Close() error
}
