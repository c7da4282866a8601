package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"tsl/internal/types"
)

// current schema version; bump when CachedTemplate changes shape
const cacheSchemaVersion uint16 = 1

// Digest identifies a shader source by content.
type Digest [32]byte

// HashSource computes the cache key of a shader source.
func HashSource(src string) Digest {
	return sha256.Sum256([]byte(src))
}

// CachedArgument is the serialized form of one exposed argument.
type CachedArgument struct {
	Name   string
	Type   int
	Output bool
}

// CachedTemplate stores compile metadata for fast re-listing of a
// template's surface without recompiling. IR is never cached; only
// metadata is.
type CachedTemplate struct {
	Schema       uint16
	Name         string
	RootFunction string
	SourceHash   Digest
	Arguments    []CachedArgument
}

// MetadataCache persists CachedTemplate records under a cache directory,
// one file per source digest. Thread-safe.
type MetadataCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenMetadataCache initializes the cache at the standard location.
func OpenMetadataCache(app string) (*MetadataCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "templates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &MetadataCache{dir: dir}, nil
}

// OpenMetadataCacheAt initializes the cache at an explicit directory.
func OpenMetadataCacheAt(dir string) (*MetadataCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &MetadataCache{dir: dir}, nil
}

func (c *MetadataCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".tpl")
}

// Store writes the record for its source digest.
func (c *MetadataCache) Store(md *CachedTemplate) error {
	md.Schema = cacheSchemaVersion
	blob, err := msgpack.Marshal(md)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tmp := c.pathFor(md.SourceHash) + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.pathFor(md.SourceHash))
}

// Load returns the cached record for a source digest, if present and of
// the current schema.
func (c *MetadataCache) Load(key Digest) (*CachedTemplate, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blob, err := os.ReadFile(c.pathFor(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var md CachedTemplate
	if err := msgpack.Unmarshal(blob, &md); err != nil {
		// treat a corrupt record as a miss; it will be rewritten
		return nil, false, nil
	}
	if md.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &md, true, nil
}

// FromArguments converts a template's exposed arguments for caching.
func FromArguments(args []types.ShaderArgument) []CachedArgument {
	out := make([]CachedArgument, 0, len(args))
	for _, a := range args {
		out = append(out, CachedArgument{
			Name:   a.Name,
			Type:   int(a.Type),
			Output: a.Output,
		})
	}
	return out
}
