package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ResponseCache stores generated text by prompt key.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CachedTextGenerator wraps a TextGenerator and serves repeated prompts from
// a cache. Cache hits report zero token usage.
type CachedTextGenerator struct {
	realGen TextGenerator
	cache   ResponseCache
}

// NewCachedTextGenerator creates a new CachedTextGenerator.
func NewCachedTextGenerator(realGen TextGenerator, cache ResponseCache) *CachedTextGenerator {
	return &CachedTextGenerator{realGen: realGen, cache: cache}
}

// GenerateContent checks the cache first. On a miss it calls the real
// generator and stores the result. Cache failures never fail the call.
func (c *CachedTextGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	key := CacheKey(prompt)

	content, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Warning: response cache lookup failed: %v", err)
	} else if ok {
		return ContentResponse{Content: content}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, err
	}

	if err := c.cache.Set(ctx, key, resp.Content); err != nil {
		log.Printf("Warning: failed to store response in cache: %v", err)
	}
	return resp, nil
}

// CacheKey derives a fixed-length cache key from a prompt.
func CacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// FileCache is an in-memory ResponseCache persisted to a JSON file.
type FileCache struct {
	entries       map[string]string
	cacheFilePath string
	mu            sync.Mutex
}

// NewFileCache creates a FileCache, loading existing entries from cacheFilePath.
func NewFileCache(cacheFilePath string) (*FileCache, error) {
	c := &FileCache{
		entries:       make(map[string]string),
		cacheFilePath: cacheFilePath,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Cache file not found, starting with empty cache: %s", cacheFilePath)
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	log.Printf("Loaded %d cached responses from %s", len(c.entries), cacheFilePath)
	return c, nil
}

func (c *FileCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *FileCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// Len returns the number of cached responses.
func (c *FileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save persists the current in-memory cache to the file system.
func (c *FileCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}
	return nil
}
