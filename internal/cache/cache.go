// Package cache stores downloaded tiles as one flat file per tile. Entries
// have no TTL, size limit, or eviction; they live until manually deleted. An
// in-memory LRU sits in front of the files so a tile read once in a run is
// not read from disk again.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultMemoryEntries is the default size of the in-memory LRU layer
const DefaultMemoryEntries = 512

// FileCache is a flat-directory tile cache keyed by file name
type FileCache struct {
	baseDir string
	mem     *lru.Cache[string, []byte]
	logger  *zap.Logger

	hits   int64
	misses int64
}

// New creates a tile cache rooted at baseDir, creating the directory if needed
func New(baseDir string, memoryEntries int, logger *zap.Logger) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if memoryEntries <= 0 {
		memoryEntries = DefaultMemoryEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mem, err := lru.New[string, []byte](memoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &FileCache{
		baseDir: baseDir,
		mem:     mem,
		logger:  logger,
	}, nil
}

// Get retrieves tile bytes by cache file name
func (c *FileCache) Get(name string) ([]byte, bool) {
	if data, ok := c.mem.Get(name); ok {
		atomic.AddInt64(&c.hits, 1)
		return data, true
	}

	data, err := os.ReadFile(filepath.Join(c.baseDir, name))
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	c.mem.Add(name, data)
	return data, true
}

// Put stores tile bytes under the cache file name
func (c *FileCache) Put(name string, data []byte) error {
	path := filepath.Join(c.baseDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	c.mem.Add(name, data)
	return nil
}

// Stats returns entry count and total size on disk
func (c *FileCache) Stats() (entries int, sizeBytes int64, err error) {
	dirEntries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		entries++
		sizeBytes += info.Size()
	}
	return entries, sizeBytes, nil
}

// HitRate returns cache hits and misses recorded this run
func (c *FileCache) HitRate() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Clear removes all cached tiles
func (c *FileCache) Clear() error {
	dirEntries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.baseDir, entry.Name())); err != nil {
			c.logger.Warn("failed to remove cache file", zap.String("file", entry.Name()), zap.Error(err))
		}
	}

	c.mem.Purge()
	return nil
}

// Dir returns the base directory of the cache
func (c *FileCache) Dir() string {
	return c.baseDir
}

// DefaultDir returns the OS-specific cache directory
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()

	switch goruntime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "tilestitch", "tiles")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "tilestitch", "cache", "tiles")
	default: // Linux and others
		cacheHome := os.Getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			cacheHome = filepath.Join(homeDir, ".cache")
		}
		return filepath.Join(cacheHome, "tilestitch", "tiles")
	}
}
