package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opencivics/civicassist/internal/db"
	"github.com/opencivics/civicassist/pkg/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSeedEmbeddedDefaults(t *testing.T) {
	database := setupTestDB(t)
	catalog := NewCatalog(database)

	if err := catalog.Seed(""); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	services, err := database.ListServices()
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(services) < 10 {
		t.Errorf("Expected at least 10 seeded services, got %d", len(services))
	}

	version, err := database.GetSetting("services_seed_version")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if version != "1" {
		t.Errorf("Seed version = %q, want 1", version)
	}
}

func TestSeedSkipsWhenVersionCurrent(t *testing.T) {
	database := setupTestDB(t)
	catalog := NewCatalog(database)

	if err := catalog.Seed(""); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	// Simulate an admin edit; a reseed at the same version must not
	// clobber it.
	custom := []models.Service{{Name: "Custom Service", Category: "Test", Description: "edited"}}
	if err := database.ReplaceServices(custom); err != nil {
		t.Fatalf("ReplaceServices failed: %v", err)
	}

	if err := catalog.Seed(""); err != nil {
		t.Fatalf("Second seed failed: %v", err)
	}

	services, err := database.ListServices()
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(services) != 1 || services[0].Name != "Custom Service" {
		t.Errorf("Reseed at same version should be a no-op, got %d services", len(services))
	}
}

func TestSeedFromFileUpgradesVersion(t *testing.T) {
	database := setupTestDB(t)
	catalog := NewCatalog(database)

	if err := catalog.Seed(""); err != nil {
		t.Fatalf("Embedded seed failed: %v", err)
	}

	custom := `version: 2
services:
  - name: Dog Licensing
    category: Animals
    description: Licence your dog with the city.
    keywords: [dog, pet, licence]
  - name: Noise Complaints
    category: Environment
    description: Report excessive noise.
    keywords: [noise, complaint]
`
	path := filepath.Join(t.TempDir(), "services.yaml")
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("Failed to write catalog file: %v", err)
	}

	if err := catalog.Seed(path); err != nil {
		t.Fatalf("File seed failed: %v", err)
	}

	services, err := database.ListServices()
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("Expected 2 services from custom catalog, got %d", len(services))
	}

	version, _ := database.GetSetting("services_seed_version")
	if version != "2" {
		t.Errorf("Seed version = %q, want 2", version)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	dir := t.TempDir()

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("services: [unclosed"), 0o644)
	if _, _, err := LoadFromFile(invalid); err == nil {
		t.Error("Expected error for invalid YAML")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("version: 1\nservices: []\n"), 0o644)
	if _, _, err := LoadFromFile(empty); err == nil {
		t.Error("Expected error for empty catalog")
	}

	unnamed := filepath.Join(dir, "unnamed.yaml")
	os.WriteFile(unnamed, []byte("version: 1\nservices:\n  - category: X\n"), 0o644)
	if _, _, err := LoadFromFile(unnamed); err == nil {
		t.Error("Expected error for entry without a name")
	}
}
