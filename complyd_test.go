package complyd_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/farmdesk/complyd"
)

func TestNewSQLiteStorage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := complyd.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	defer store.Close()

	if store == nil {
		t.Error("expected non-nil storage")
	}
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := complyd.NewMemoryStorage()
	defer store.Close()

	err := store.CreateRequirement(ctx, &complyd.Requirement{
		ID: "contract", TemplateID: "manure-2026", Title: "Valid manure contract", Required: true,
	})
	if err != nil {
		t.Fatalf("CreateRequirement failed: %v", err)
	}

	resolutions, err := complyd.ResolveAll(ctx, store, "t1", "manure-2026")
	if err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	if len(resolutions) != 1 || resolutions[0].Status != complyd.StatusMissing {
		t.Fatalf("unexpected resolutions: %+v", resolutions)
	}

	result, err := complyd.Reconcile(ctx, store, "t1", "manure-2026", "tester")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Created != 1 {
		t.Errorf("Created = %d, want 1", result.Created)
	}

	summary, err := complyd.Summarize(ctx, store, "t1", "manure-2026")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.Missing != 1 || summary.Total != 1 {
		t.Errorf("summary = %+v, want missing=1 total=1", summary)
	}
}

// Test that exported constants have correct values
func TestConstants(t *testing.T) {
	if complyd.StatusSatisfied != "satisfied" {
		t.Errorf("StatusSatisfied = %q, want %q", complyd.StatusSatisfied, "satisfied")
	}
	if complyd.StatusMissing != "missing" {
		t.Errorf("StatusMissing = %q, want %q", complyd.StatusMissing, "missing")
	}
	if complyd.StatusExpired != "expired" {
		t.Errorf("StatusExpired = %q, want %q", complyd.StatusExpired, "expired")
	}
	if complyd.StatusNeedsReview != "needs_review" {
		t.Errorf("StatusNeedsReview = %q, want %q", complyd.StatusNeedsReview, "needs_review")
	}
}
