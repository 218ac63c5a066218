package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru/v2"
)

// FileCache reads source files through memory maps and keeps the most
// recently used mappings open.
//
// Entries are keyed by path and revalidated against size and modification
// time on every read, so an edited file is remapped rather than served stale.
// Evicted entries are unmapped. Files that cannot be mapped (empty files,
// special files) fall back to os.ReadFile.
//
// Safe for concurrent use.
type FileCache struct {
	mu     sync.RWMutex
	cache  *lru.Cache[string, *MappedFile]
	logger *slog.Logger

	hits         atomic.Int64
	misses       atomic.Int64
	mmapFailures atomic.Int64
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles bounds the number of open mappings. Zero means 256.
	MaxFiles int
	Logger   *slog.Logger
}

// MappedFile is one cached file.
type MappedFile struct {
	Path    string
	Size    int64
	ModTime time.Time

	data     mmap.MMap
	file     *os.File
	fallback []byte
}

// Bytes returns the file contents. The slice is only valid until the entry
// is evicted; FileCache.ReadFile copies it out.
func (m *MappedFile) Bytes() []byte {
	if m.data != nil {
		return m.data
	}
	return m.fallback
}

func (m *MappedFile) close() error {
	var err error
	if m.data != nil {
		err = m.data.Unmap()
		m.data = nil
	}
	if m.file != nil {
		if cerr := m.file.Close(); err == nil {
			err = cerr
		}
		m.file = nil
	}
	return err
}

// FileCacheStats reports cache effectiveness.
type FileCacheStats struct {
	FilesCached  int
	CacheHits    int64
	CacheMisses  int64
	MmapFailures int64
}

// NewFileCache creates a FileCache.
func NewFileCache(cfg FileCacheConfig) (*FileCache, error) {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	fc := &FileCache{logger: cfg.Logger}
	cache, err := lru.NewWithEvict[string, *MappedFile](cfg.MaxFiles, func(path string, mf *MappedFile) {
		if err := mf.close(); err != nil {
			fc.logger.Warn("failed to unmap file", "path", path, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create file cache: %w", err)
	}
	fc.cache = cache
	return fc, nil
}

// ReadFile returns the contents of path. Errors from os.Stat are wrapped, so
// errors.Is(err, fs.ErrNotExist) holds for missing files.
func (fc *FileCache) ReadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	fc.mu.RLock()
	if mf, ok := fc.cache.Get(path); ok && mf.Size == info.Size() && mf.ModTime.Equal(info.ModTime()) {
		content := string(mf.Bytes())
		fc.mu.RUnlock()
		fc.hits.Add(1)
		return content, nil
	}
	fc.mu.RUnlock()

	fc.misses.Add(1)

	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.cache.Remove(path)
	mf, err := fc.load(path, info)
	if err != nil {
		return "", err
	}
	fc.cache.Add(path, mf)
	return string(mf.Bytes()), nil
}

func (fc *FileCache) load(path string, info os.FileInfo) (*MappedFile, error) {
	mf := &MappedFile{Path: path, Size: info.Size(), ModTime: info.ModTime()}

	if info.Size() > 0 {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		data, err := mmap.Map(f, mmap.RDONLY, 0)
		if err == nil {
			mf.data = data
			mf.file = f
			return mf, nil
		}
		f.Close()
		fc.mmapFailures.Add(1)
		fc.logger.Debug("mmap failed, falling back to read", "path", path, "error", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mf.fallback = data
	return mf, nil
}

// Invalidate drops path from the cache.
func (fc *FileCache) Invalidate(path string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.cache.Remove(path)
}

// Stats returns current counters.
func (fc *FileCache) Stats() FileCacheStats {
	return FileCacheStats{
		FilesCached:  fc.cache.Len(),
		CacheHits:    fc.hits.Load(),
		CacheMisses:  fc.misses.Load(),
		MmapFailures: fc.mmapFailures.Load(),
	}
}

// Close unmaps every cached file.
func (fc *FileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.cache.Purge()
	return nil
}
