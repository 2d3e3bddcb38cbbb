package checker

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// PathCache memoizes checker executable lookups. Resolution consults the
// user's "paths" setting before PATH; entries are dropped wholesale when the
// paths setting changes.
type PathCache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewPathCache creates an empty executable cache.
func NewPathCache() *PathCache {
	return &PathCache{entries: make(map[string]string)}
}

// Lookup resolves a checker executable, first in searchPaths, then on PATH.
// Hits and misses are both cached until Clear.
func (c *PathCache) Lookup(name string, searchPaths []string) (string, bool) {
	c.mu.Lock()
	cached, ok := c.entries[name]
	c.mu.Unlock()
	if ok {
		return cached, cached != ""
	}

	resolved := resolveExecutable(name, searchPaths)
	c.mu.Lock()
	c.entries[name] = resolved
	c.mu.Unlock()
	return resolved, resolved != ""
}

// Clear drops all cached lookups.
func (c *PathCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()
}

func resolveExecutable(name string, searchPaths []string) string {
	for _, dir := range searchPaths {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}
