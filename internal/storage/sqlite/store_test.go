package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmdesk/complyd/internal/storage"
	"github.com/farmdesk/complyd/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRequirementRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	days := 90
	reqs := []*types.Requirement{
		{ID: "r2", TemplateID: "tpl", Title: "Second", Required: false, Position: 1},
		{ID: "r1", TemplateID: "tpl", Title: "First", Category: "contracts", Required: true, RecencyDays: &days, Position: 0},
		{ID: "other", TemplateID: "other-tpl", Title: "Elsewhere", Required: true, Position: 0},
	}
	for _, r := range reqs {
		require.NoError(t, store.CreateRequirement(ctx, r))
	}

	got, err := store.ListRequirements(ctx, "tpl")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "r1", got[0].ID, "catalog order follows position")
	require.Equal(t, "contracts", got[0].Category)
	require.True(t, got[0].Required)
	require.NotNil(t, got[0].RecencyDays)
	require.Equal(t, 90, *got[0].RecencyDays)
	require.False(t, got[1].Required)
	require.Nil(t, got[1].RecencyDays)
}

func TestDocumentUpsertAndNullableDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	doc := &types.Document{
		ID: "d1", TenantID: "t1", Name: "contract.pdf",
		Status: types.DocOK, DocDate: &docDate,
	}
	require.NoError(t, store.PutDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "t1", "d1")
	require.NoError(t, err)
	require.Equal(t, types.DocOK, got.Status)
	require.NotNil(t, got.DocDate)
	require.True(t, got.DocDate.Equal(docDate))
	require.Nil(t, got.ExpiresAt)

	// Replacing the document keeps created_at and bumps updated_at.
	doc.Status = types.DocExpired
	doc.DocDate = nil
	require.NoError(t, store.PutDocument(ctx, doc))

	got2, err := store.GetDocument(ctx, "t1", "d1")
	require.NoError(t, err)
	require.Equal(t, types.DocExpired, got2.Status)
	require.Nil(t, got2.DocDate)
	require.True(t, got2.CreatedAt.Equal(got.CreatedAt))

	// Tenant isolation
	_, err = store.GetDocument(ctx, "t2", "d1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	docs, err := store.GetDocuments(ctx, "t1", []string{"d1", "missing"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Contains(t, docs, "d1")
}

func TestLinkUpsertUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	link := &types.Link{TenantID: "t1", RequirementID: "r1", DocumentID: "d1"}
	require.NoError(t, store.UpsertLink(ctx, link))

	links, err := store.GetLinks(ctx, "t1", []string{"r1"})
	require.NoError(t, err)
	createdAt := links["r1"].CreatedAt

	// Relinking replaces the document and override, keeps created_at, and
	// never produces a second row.
	relink := &types.Link{TenantID: "t1", RequirementID: "r1", DocumentID: "d2", Override: types.OverrideSatisfied}
	require.NoError(t, store.UpsertLink(ctx, relink))

	links, err = store.GetLinks(ctx, "t1", []string{"r1"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "d2", links["r1"].DocumentID)
	require.Equal(t, types.OverrideSatisfied, links["r1"].Override)
	require.True(t, links["r1"].CreatedAt.Equal(createdAt))

	require.NoError(t, store.DeleteLink(ctx, "t1", "r1"))
	links, err = store.GetLinks(ctx, "t1", []string{"r1"})
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestLinkRejectsInvalidOverride(t *testing.T) {
	store := newTestStore(t)
	link := &types.Link{TenantID: "t1", RequirementID: "r1", DocumentID: "d1", Override: "maybe"}
	require.Error(t, store.UpsertLink(context.Background(), link))
}

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2026, 6, 22, 12, 0, 0, 0, time.UTC)
	task := &types.Task{
		ID: "task-1", TenantID: "t1", TemplateID: "tpl", RequirementID: "r1",
		Source: types.SourceMissingItem, Title: "Provide evidence",
		Status: types.TaskOpen, Priority: types.PriorityUrgent, DueAt: &due,
	}
	require.NoError(t, store.CreateTask(ctx, task))

	userTask := &types.Task{
		ID: "task-2", TenantID: "t1", TemplateID: "tpl",
		Source: types.SourceUser, Title: "Call the vet",
		Status: types.TaskOpen, Priority: types.PriorityNormal,
	}
	require.NoError(t, store.CreateTask(ctx, userTask))

	// Machine listing excludes user tasks.
	machine, err := store.ListMachineTasks(ctx, "t1", "tpl")
	require.NoError(t, err)
	require.Len(t, machine, 1)
	require.Equal(t, "task-1", machine[0].ID)
	require.NotNil(t, machine[0].DueAt)
	require.True(t, machine[0].DueAt.Equal(due))

	all, err := store.ListTasks(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, all, 2)

	// Complete, then reopen; due_at before/after must be identical.
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateTask(ctx, "task-1", map[string]interface{}{
		"status":       string(types.TaskDone),
		"completed_at": now,
	}))
	got, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, types.TaskDone, got.Status)
	require.NotNil(t, got.CompletedAt)

	require.NoError(t, store.UpdateTask(ctx, "task-1", map[string]interface{}{
		"status":       string(types.TaskOpen),
		"priority":     string(types.PriorityNormal),
		"completed_at": nil,
	}))
	got, err = store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, types.TaskOpen, got.Status)
	require.Nil(t, got.CompletedAt)
	require.NotNil(t, got.DueAt)
	require.True(t, got.DueAt.Equal(due), "due_at must survive complete/reopen")
}

func TestUpdateTaskNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateTask(context.Background(), "ghost", map[string]interface{}{
		"status": string(types.TaskOpen),
	})
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestUpdateTaskRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateTask(context.Background(), "task-1", map[string]interface{}{
		"assignee": "bob",
	})
	require.Error(t, err)
}

func TestInMemoryStore(t *testing.T) {
	store, err := New(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.CreateRequirement(ctx, &types.Requirement{
		ID: "r1", TemplateID: "tpl", Title: "X", Required: true,
	}))
	got, err := store.ListRequirements(ctx, "tpl")
	require.NoError(t, err)
	require.Len(t, got, 1)
}
