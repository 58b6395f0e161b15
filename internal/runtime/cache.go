package runtime

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	appErr "codelab/pkg/errors"
)

const metaSuffix = ".meta.json"

type bundleMeta struct {
	SHA256 string `json:"sha256"`
	ETag   string `json:"etag"`
}

// Cache is the persistent on-disk store for downloaded runtime bundles.
// A bundle is valid when its recorded checksum matches the expected one;
// anything else is treated as a miss and re-downloaded.
type Cache struct {
	rootDir string
}

// NewCache creates the cache directory if needed.
func NewCache(rootDir string) (*Cache, error) {
	if rootDir == "" {
		return nil, appErr.New(appErr.CacheError).WithMessage("cache root is not configured")
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, appErr.Wrapf(err, appErr.CacheError, "create cache dir failed")
	}
	return &Cache{rootDir: rootDir}, nil
}

func (c *Cache) bundlePath(key string) string {
	return filepath.Join(c.rootDir, filepath.Base(key))
}

// Lookup returns the cached bundle path when a valid copy is installed.
func (c *Cache) Lookup(key, sha256hex string) (string, bool) {
	path := c.bundlePath(key)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	data, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		return "", false
	}
	var meta bundleMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", false
	}
	if sha256hex != "" && !strings.EqualFold(meta.SHA256, sha256hex) {
		return "", false
	}
	return path, true
}

// Commit moves a fully-downloaded temp file into place and records its
// metadata. The rename keeps a cancelled or failed download from ever
// appearing as a cached bundle.
func (c *Cache) Commit(key, tempPath, sha256hex, etag string) (string, error) {
	path := c.bundlePath(key)
	if err := os.Rename(tempPath, path); err != nil {
		return "", appErr.Wrapf(err, appErr.CacheError, "install bundle failed")
	}
	meta, err := json.Marshal(bundleMeta{SHA256: sha256hex, ETag: etag})
	if err != nil {
		return "", appErr.Wrapf(err, appErr.CacheError, "encode bundle meta failed")
	}
	if err := os.WriteFile(path+metaSuffix, meta, 0644); err != nil {
		return "", appErr.Wrapf(err, appErr.CacheError, "write bundle meta failed")
	}
	return path, nil
}

// TempPath returns the download scratch path for a bundle key.
func (c *Cache) TempPath(key string) string {
	return c.bundlePath(key) + ".tmp"
}
