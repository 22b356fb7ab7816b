package imaging

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxSourceBytes is the largest image file accepted for upload. The
// annotation service rejects images above this size.
const MaxSourceBytes = 20 << 20

// Source is an image file read into memory for upload.
//
// The content is never decoded; Format is sniffed from the leading bytes
// and only used for logging and reporting.
type Source struct {
	// Path is the path the file was read from.
	Path string `json:"path"`

	// Content holds the raw file bytes.
	Content []byte `json:"-"`

	// Format is the sniffed MIME type, e.g. "image/png". Files that are not
	// recognized as images report "application/octet-stream" and are still
	// sent to the service, which decides whether it can read them.
	Format string `json:"format"`

	// SizeBytes is len(Content).
	SizeBytes int64 `json:"size_bytes"`
}

// ReadSource reads an image file for upload.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is empty or larger than MaxSourceBytes
func ReadSource(path string) (*Source, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("image path %s is a directory", path)
	}
	if stat.Size() > MaxSourceBytes {
		return nil, fmt.Errorf("image %s is %d bytes, limit is %d", path, stat.Size(), MaxSourceBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("image %s is empty", path)
	}

	return &Source{
		Path:      path,
		Content:   content,
		Format:    sniffFormat(path, content),
		SizeBytes: int64(len(content)),
	}, nil
}

// sniffFormat detects the MIME type from content, falling back to the file
// extension for formats the sniffer does not know (e.g. TIFF).
func sniffFormat(path string, content []byte) string {
	format := http.DetectContentType(content)
	if strings.HasPrefix(format, "image/") {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return "image/tiff"
	case ".ico":
		return "image/x-icon"
	case ".raw":
		return "image/raw"
	}
	return "application/octet-stream"
}

// SourceCache provides thread-safe caching of read image sources to avoid
// redundant disk reads.
//
// Sources are keyed by the exact path string passed to Load. Different paths
// to the same file result in separate entries.
type SourceCache struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewSourceCache creates an empty cache ready for concurrent use.
func NewSourceCache() *SourceCache {
	return &SourceCache{
		sources: make(map[string]*Source),
	}
}

// Load returns the cached source for path, reading it from disk on first use.
func (c *SourceCache) Load(path string) (*Source, error) {
	c.mu.RLock()
	if src, ok := c.sources[path]; ok {
		c.mu.RUnlock()
		return src, nil
	}
	c.mu.RUnlock()

	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sources[path] = src
	c.mu.Unlock()

	return src, nil
}

// Evict removes a single path from the cache. Unknown paths are ignored.
func (c *SourceCache) Evict(path string) {
	c.mu.Lock()
	delete(c.sources, path)
	c.mu.Unlock()
}

// Clear removes all cached sources.
func (c *SourceCache) Clear() {
	c.mu.Lock()
	c.sources = make(map[string]*Source)
	c.mu.Unlock()
}

// Len returns the number of cached sources.
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}
