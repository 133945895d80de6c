package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsNil(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config for missing file, got %+v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.DefaultTenant = "farm-42"
	cfg.Actor = "inspector"
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected config")
	}
	if loaded.DefaultTenant != "farm-42" || loaded.Actor != "inspector" {
		t.Errorf("got %+v", loaded)
	}
	if loaded.Database != "complyd.db" {
		t.Errorf("got database %q", loaded.Database)
	}
}

func TestDatabasePathResolution(t *testing.T) {
	cfg := &Config{Database: "complyd.db"}
	got := cfg.DatabasePath("/work")
	if got != filepath.Join("/work", "complyd.db") {
		t.Errorf("got %q", got)
	}

	cfg.Database = ":memory:"
	if cfg.DatabasePath("/work") != ":memory:" {
		t.Error(":memory: should not be joined to the dir")
	}

	cfg.Database = "/abs/path.db"
	if cfg.DatabasePath("/work") != "/abs/path.db" {
		t.Error("absolute paths should pass through")
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yml")
	data := `template: manure-2026
requirements:
  - id: contract
    category: contracts
    title: Valid manure contract
    recency_days: 365
  - id: soil-sample
    title: Soil sample report
    optional: true
`
	if err := os.WriteFile(path, []byte(data), 0o640); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if cat.Template != "manure-2026" || len(cat.Requirements) != 2 {
		t.Fatalf("got %+v", cat)
	}

	reqs := cat.ToRequirements()
	if reqs[0].RecencyDays == nil || *reqs[0].RecencyDays != 365 {
		t.Errorf("got recency %v", reqs[0].RecencyDays)
	}
	if !reqs[0].Required {
		t.Error("non-optional entry should be required")
	}
	if reqs[1].Required {
		t.Error("optional entry should not be required")
	}
	if reqs[0].Position != 0 || reqs[1].Position != 1 {
		t.Error("positions should follow file order")
	}
}

func TestLoadCatalogRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yml")
	data := `template: t
requirements:
  - id: a
`
	if err := os.WriteFile(path, []byte(data), 0o640); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected error for entry without a title")
	}
}
