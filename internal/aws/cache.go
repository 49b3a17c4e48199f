package aws

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores API responses as JSON files that expire after a TTL.
type FileCache struct {
	dir string
	ttl time.Duration
}

// NewFileCache creates a cache in dir. A nil *FileCache is valid and never
// hits, so callers can pass nil when caching is disabled.
func NewFileCache(dir string, ttl time.Duration) *FileCache {
	return &FileCache{dir: dir, ttl: ttl}
}

// DefaultCacheDir returns ~/.ricoverage/cache, or a temp dir when the home
// directory is unknown.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ricoverage-cache")
	}
	return filepath.Join(home, ".ricoverage", "cache")
}

// Get loads a cached value into dest if it exists and has not expired.
func (fc *FileCache) Get(key string, dest any) bool {
	if fc == nil {
		return false
	}
	path := fc.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if time.Since(info.ModTime()) > fc.ttl {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores a value.
func (fc *FileCache) Set(key string, value any) error {
	if fc == nil {
		return nil
	}
	if err := os.MkdirAll(fc.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache value: %w", err)
	}

	if err := os.WriteFile(fc.path(key), data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear removes all cached entries.
func (fc *FileCache) Clear() error {
	if fc == nil {
		return nil
	}
	entries, err := os.ReadDir(fc.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(fc.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

var keyReplacer = strings.NewReplacer("/", "_", " ", "_", "(", "", ")", "", ":", "_")

func (fc *FileCache) path(key string) string {
	return filepath.Join(fc.dir, keyReplacer.Replace(strings.ToLower(key))+".json")
}
