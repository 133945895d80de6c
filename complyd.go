// Package complyd provides a minimal public API for embedding the
// compliance core in other Go programs.
//
// Most callers should use the complyd CLI. This package exports only the
// essential types and constructors needed to run resolution and
// reconciliation programmatically against a complyd database.
package complyd

import (
	"context"
	"time"

	"github.com/farmdesk/complyd/internal/audit"
	"github.com/farmdesk/complyd/internal/reconcile"
	"github.com/farmdesk/complyd/internal/resolver"
	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/storage/memory"
	"github.com/farmdesk/complyd/internal/storage/sqlite"
	"github.com/farmdesk/complyd/internal/types"
)

// Core types for working with requirements, evidence, and tasks
type (
	Requirement    = types.Requirement
	Document       = types.Document
	Link           = types.Link
	Task           = types.Task
	Summary        = types.Summary
	ResolvedStatus = types.ResolvedStatus
	Resolution     = resolver.Resolution
	Result         = reconcile.Result
)

// Resolved status constants
const (
	StatusSatisfied   = types.StatusSatisfied
	StatusMissing     = types.StatusMissing
	StatusExpired     = types.StatusExpired
	StatusNeedsReview = types.StatusNeedsReview
)

// Storage is the interface implemented by the SQLite and in-memory stores.
type Storage = storage.Storage

// NewSQLiteStorage opens a complyd SQLite database for programmatic access.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}

// NewMemoryStorage creates an in-process store, useful for tests and
// short-lived embedding.
func NewMemoryStorage() Storage {
	return memory.New()
}

// ResolveAll computes the status of every requirement in a template.
func ResolveAll(ctx context.Context, store Storage, tenantID, templateID string) ([]Resolution, error) {
	return resolver.ResolveAll(ctx, store, tenantID, templateID, time.Now())
}

// Summarize computes the aggregate compliance summary for a template.
func Summarize(ctx context.Context, store Storage, tenantID, templateID string) (Summary, error) {
	return resolver.SummarizeAll(ctx, store, tenantID, templateID, time.Now())
}

// Reconcile runs one idempotent task synchronization pass.
func Reconcile(ctx context.Context, store Storage, tenantID, templateID, actor string) (*Result, error) {
	return reconcile.NewEngine(store, audit.Nop{}, actor).Reconcile(ctx, tenantID, templateID)
}
