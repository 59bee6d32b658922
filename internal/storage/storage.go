package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kitchen-assistant/internal/kitchen"
)

// RecipeStore keeps a file per saved recipe, named after the recipe id and
// the time it was last updated.
type RecipeStore struct {
	basePath string
}

// NewRecipeStore creates a new RecipeStore and ensures the base directory exists.
func NewRecipeStore(basePath string) (*RecipeStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &RecipeStore{basePath: basePath}, nil
}

// versionOf makes the update time safe for filenames.
func versionOf(updatedAt time.Time) string {
	return strings.ReplaceAll(updatedAt.UTC().Format("2006-01-02T15:04:05Z"), ":", "-")
}

func (s *RecipeStore) versionedPath(id string, updatedAt time.Time) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%s_%s.json", id, versionOf(updatedAt)))
}

// Save writes a recipe to its versioned file.
func (s *RecipeStore) Save(r kitchen.Recipe) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}
	if err := os.WriteFile(s.versionedPath(r.ID, r.UpdatedAt), data, 0644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// Load reads a specific version of a recipe.
func (s *RecipeStore) Load(id string, updatedAt time.Time) (kitchen.Recipe, error) {
	data, err := os.ReadFile(s.versionedPath(id, updatedAt))
	if err != nil {
		return kitchen.Recipe{}, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var r kitchen.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return kitchen.Recipe{}, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return r, nil
}

// Exists checks if a specific version of a recipe file exists.
func (s *RecipeStore) Exists(id string, updatedAt time.Time) bool {
	_, err := os.Stat(s.versionedPath(id, updatedAt))
	return !os.IsNotExist(err)
}

// RemoveStaleVersions removes all files associated with a recipe id.
func (s *RecipeStore) RemoveStaleVersions(id string) error {
	matches, err := filepath.Glob(filepath.Join(s.basePath, id+"_*.json"))
	if err != nil {
		return fmt.Errorf("failed to glob stale files: %w", err)
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to remove stale file %s: %w", match, err)
		}
	}
	return nil
}

// Export writes every recipe whose current version is not on disk yet,
// replacing older versions, and reports how many files were written.
func (s *RecipeStore) Export(recipes []kitchen.Recipe) (int, error) {
	written := 0
	for _, r := range recipes {
		if s.Exists(r.ID, r.UpdatedAt) {
			continue
		}
		if err := s.RemoveStaleVersions(r.ID); err != nil {
			return written, err
		}
		if err := s.Save(r); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
