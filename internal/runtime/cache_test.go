package runtime

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheMissOnEmptyDir(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if _, hit := c.Lookup("python.wasm", ""); hit {
		t.Fatal("empty cache must miss")
	}
}

func TestCacheCommitThenLookup(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	temp := c.TempPath("python.wasm")
	if err := os.WriteFile(temp, []byte("bundle"), 0644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	path, err := c.Commit("python.wasm", temp, "abc123", "etag-1")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Fatal("temp file must be gone after commit")
	}

	got, hit := c.Lookup("python.wasm", "abc123")
	if !hit || got != path {
		t.Fatalf("lookup after commit: hit=%v path=%q", hit, got)
	}
	// Checksum comparison is case-insensitive hex.
	if _, hit := c.Lookup("python.wasm", "ABC123"); !hit {
		t.Fatal("uppercase checksum must still hit")
	}
	// No expectation means any installed copy is good.
	if _, hit := c.Lookup("python.wasm", ""); !hit {
		t.Fatal("empty expected checksum must hit")
	}
}

func TestCacheChecksumMismatchIsMiss(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	temp := c.TempPath("python.wasm")
	if err := os.WriteFile(temp, []byte("bundle"), 0644); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if _, err := c.Commit("python.wasm", temp, "abc123", ""); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, hit := c.Lookup("python.wasm", "different"); hit {
		t.Fatal("stale checksum must be treated as a miss")
	}
}

func TestCacheBundleWithoutMetaIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "python.wasm"), []byte("orphan"), 0644); err != nil {
		t.Fatalf("write orphan: %v", err)
	}
	if _, hit := c.Lookup("python.wasm", ""); hit {
		t.Fatal("bundle without metadata must miss")
	}
}

func TestCacheRequiresRoot(t *testing.T) {
	if _, err := NewCache(""); err == nil {
		t.Fatal("empty cache root must be rejected")
	}
}

func TestCacheKeyFlattening(t *testing.T) {
	c, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	// Object keys with prefixes map onto flat file names.
	temp := c.TempPath("runtimes/python-3.12.wasm")
	if filepath.Base(temp) != "python-3.12.wasm.tmp" {
		t.Fatalf("temp path wrong: %q", temp)
	}
}
