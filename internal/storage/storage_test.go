package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kitchen-assistant/internal/kitchen"
)

func TestRecipeStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewRecipeStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create RecipeStore: %v", err)
	}

	updated := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	rec := kitchen.Recipe{
		ID:          "test-recipe-123",
		Title:       "Test Recipe",
		Ingredients: []string{"1 cup of testing"},
		Tags:        []string{"go", "test"},
		UpdatedAt:   updated,
	}

	t.Run("CheckExists-False", func(t *testing.T) {
		if store.Exists(rec.ID, updated) {
			t.Errorf("Expected recipe '%s' to not exist, but it does", rec.ID)
		}
	})

	t.Run("Save", func(t *testing.T) {
		if err := store.Save(rec); err != nil {
			t.Fatalf("Failed to save recipe: %v", err)
		}

		filePath := filepath.Join(tempDir, "test-recipe-123_2024-05-01T10-30-00Z.json")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			t.Errorf("Expected file '%s' to be created, but it wasn't", filePath)
		}
	})

	t.Run("Load", func(t *testing.T) {
		loaded, err := store.Load(rec.ID, updated)
		if err != nil {
			t.Fatalf("Failed to load recipe: %v", err)
		}
		if loaded.Title != rec.Title {
			t.Errorf("Expected title '%s', got '%s'", rec.Title, loaded.Title)
		}
		if len(loaded.Ingredients) != 1 || loaded.Ingredients[0] != "1 cup of testing" {
			t.Errorf("Expected ingredient '1 cup of testing', got %v", loaded.Ingredients)
		}
	})

	t.Run("Load-NotFound", func(t *testing.T) {
		if _, err := store.Load("non-existent-recipe", updated); err == nil {
			t.Fatal("Expected an error for loading non-existent recipe, got nil")
		}
	})
}

func TestExport(t *testing.T) {
	tempDir := t.TempDir()
	store, err := NewRecipeStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create RecipeStore: %v", err)
	}

	v1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	recipes := []kitchen.Recipe{
		{ID: "a", Title: "Soup", UpdatedAt: v1},
		{ID: "b", Title: "Bread", UpdatedAt: v1},
	}

	written, err := store.Export(recipes)
	if err != nil || written != 2 {
		t.Fatalf("Expected 2 files written, got %d (err %v)", written, err)
	}

	written, err = store.Export(recipes)
	if err != nil || written != 0 {
		t.Errorf("Expected unchanged recipes to be skipped, got %d (err %v)", written, err)
	}

	v2 := v1.Add(time.Hour)
	recipes[0].Title = "Better Soup"
	recipes[0].UpdatedAt = v2
	written, err = store.Export(recipes)
	if err != nil || written != 1 {
		t.Fatalf("Expected 1 file written, got %d (err %v)", written, err)
	}

	if store.Exists("a", v1) {
		t.Error("Expected the stale version to be removed")
	}
	loaded, err := store.Load("a", v2)
	if err != nil || loaded.Title != "Better Soup" {
		t.Errorf("Expected the new version, got %+v (err %v)", loaded, err)
	}

	matches, _ := filepath.Glob(filepath.Join(tempDir, "*.json"))
	if len(matches) != 2 {
		t.Errorf("Expected 2 files on disk, got %d", len(matches))
	}
}
