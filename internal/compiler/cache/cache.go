// Package cache provides in-memory, content-addressed caching of compile
// results (lowered IR plus diagnostics) for the LSP server, which receives
// repeated didSave/didChange notifications carrying unchanged text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/hand-lang/handc/compiler/errors"
	"github.com/hand-lang/handc/internal/compiler/ir"
)

// HashSource computes the cache key for a source text.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// CachedIR is one cached compile result. Doc is nil when the pipeline
// stopped before lowering; Diagnostics is what the compile produced either
// way.
type CachedIR struct {
	Doc         *ir.IR
	Diagnostics []errors.Diagnostic
	Hash        string
	Path        string
	CachedAt    time.Time
}

// IRCache caches compile results by file path, invalidated by content hash.
type IRCache struct {
	entries map[string]*CachedIR
	mu      sync.RWMutex
}

// NewIRCache creates an empty cache.
func NewIRCache() *IRCache {
	return &IRCache{entries: make(map[string]*CachedIR)}
}

// Get returns the cached result for a path when the content hash still
// matches.
func (c *IRCache) Get(path, source string) (*CachedIR, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || entry.Hash != HashSource(source) {
		return nil, false
	}
	return entry, true
}

// Set stores a compile result for a path.
func (c *IRCache) Set(path, source string, doc *ir.IR, diags []errors.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CachedIR{
		Doc:         doc,
		Diagnostics: diags,
		Hash:        HashSource(source),
		Path:        path,
		CachedAt:    time.Now(),
	}
}

// Delete removes a path from the cache.
func (c *IRCache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Len returns the number of cached entries.
func (c *IRCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
