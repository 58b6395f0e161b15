// Package runtime acquires and caches heavyweight language runtime bundles,
// with staged, cancellable progress reporting and a device memory gate.
package runtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"codelab/internal/execution"
	"codelab/internal/storage"
	appErr "codelab/pkg/errors"
	"codelab/pkg/utils/logger"
)

// BundleSpec identifies one runtime bundle in the object store.
type BundleSpec struct {
	// Key is the object key, e.g. "runtimes/python-3.12.wasm.zst".
	Key string `yaml:"key"`
	// SHA256 is the expected checksum of the stored (compressed) object.
	// Empty skips verification.
	SHA256 string `yaml:"sha256"`
}

// Loader downloads, verifies and caches runtime bundles. Once a bundle has
// been loaded its bytes are memoized, so subsequent loads skip every stage.
// Concurrent first loads of the same bundle are collapsed into one.
type Loader struct {
	store  storage.ObjectStorage
	bucket string
	cache  *Cache

	memCheck func() execution.MemoryCheckResult

	sf singleflight.Group

	mu     sync.Mutex
	loaded map[string][]byte
}

// NewLoader creates a loader over the given bundle store and cache dir.
func NewLoader(store storage.ObjectStorage, bucket, cacheDir string) (*Loader, error) {
	if store == nil {
		return nil, appErr.ValidationError("store", "required")
	}
	if bucket == "" {
		return nil, appErr.ValidationError("bucket", "required")
	}
	cache, err := NewCache(cacheDir)
	if err != nil {
		return nil, err
	}
	return &Loader{
		store:    store,
		bucket:   bucket,
		cache:    cache,
		memCheck: CheckMemory,
		loaded:   make(map[string][]byte),
	}, nil
}

// Load acquires the bundle's decompressed bytes, emitting progress through
// onProgress. Cancelling ctx aborts an in-flight download and leaves no
// partial cache state behind; a later Load starts clean.
func (l *Loader) Load(ctx context.Context, spec BundleSpec, onProgress execution.ProgressFunc) ([]byte, error) {
	if spec.Key == "" {
		return nil, appErr.ValidationError("key", "required")
	}

	emit := newEmitter(onProgress)
	emit(event(execution.StageChecking, 0, "Checking for a cached runtime..."))

	l.mu.Lock()
	if data, ok := l.loaded[spec.Key]; ok {
		l.mu.Unlock()
		emit(event(execution.StageReady, 100, "Runtime ready"))
		return data, nil
	}
	l.mu.Unlock()

	v, err, _ := l.sf.Do(spec.Key, func() (interface{}, error) {
		return l.loadSlow(ctx, spec, emit)
	})
	if err != nil {
		emit(event(execution.StageError, 0, err.Error()))
		return nil, err
	}

	data := v.([]byte)
	emit(event(execution.StageReady, 100, "Runtime ready"))
	return data, nil
}

// MemoryCheck exposes the gate result so callers can warn before starting.
func (l *Loader) MemoryCheck() execution.MemoryCheckResult {
	return l.memCheck()
}

func (l *Loader) loadSlow(ctx context.Context, spec BundleSpec, emit emitFunc) ([]byte, error) {
	path, hit := l.cache.Lookup(spec.Key, spec.SHA256)
	if !hit {
		mc := l.memCheck()
		if !mc.CanLoadRuntime {
			return nil, appErr.New(appErr.MemoryPressureHigh).WithMessage(mc.Warning).
				WithDetail("availableGB", mc.AvailableGB)
		}
		if mc.Warning != "" {
			logger.Warn(ctx, "memory pressure before runtime download", zap.String("warning", mc.Warning))
		}

		downloaded, err := l.download(ctx, spec, emit)
		if err != nil {
			return nil, err
		}
		path = downloaded
	}

	emit(event(execution.StageLoading, 90, "Loading runtime into memory..."))
	data, err := readBundle(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.loaded[spec.Key] = data
	l.mu.Unlock()

	logger.Info(ctx, "runtime bundle loaded",
		zap.String("key", spec.Key),
		zap.Int("size_bytes", len(data)),
		zap.Bool("cache_hit", hit))
	return data, nil
}

func (l *Loader) download(ctx context.Context, spec BundleSpec, emit emitFunc) (string, error) {
	stat, err := l.store.StatObject(ctx, l.bucket, spec.Key)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.DownloadFailed, "stat runtime bundle failed")
	}

	emit(event(execution.StageDownloading, 5, fmt.Sprintf("Downloading runtime (%d MB)...", stat.SizeBytes>>20)))

	reader, err := l.store.GetObject(ctx, l.bucket, spec.Key)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.DownloadFailed, "open runtime bundle failed")
	}
	defer reader.Close()

	tempPath := l.cache.TempPath(spec.Key)
	file, err := os.Create(tempPath)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.CacheError, "create bundle temp file failed")
	}

	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(tempPath)
	}

	hasher := sha256.New()
	pr := &progressReader{
		ctx:   ctx,
		inner: io.TeeReader(reader, hasher),
		total: stat.SizeBytes,
		emit:  emit,
	}
	if _, err := io.Copy(file, pr); err != nil {
		cleanup()
		if ctx.Err() != nil {
			return "", appErr.Wrap(ctx.Err(), appErr.LoaderCancelled)
		}
		return "", appErr.Wrapf(err, appErr.DownloadFailed, "download runtime bundle failed")
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", appErr.Wrapf(err, appErr.CacheError, "flush bundle temp file failed")
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if spec.SHA256 != "" && !strings.EqualFold(actual, spec.SHA256) {
		_ = os.Remove(tempPath)
		return "", appErr.New(appErr.BundleCorrupt).WithMessage("runtime bundle checksum mismatch").
			WithDetail("expected", spec.SHA256).
			WithDetail("actual", actual)
	}

	return l.cache.Commit(spec.Key, tempPath, actual, stat.ETag)
}

// readBundle reads the cached file, decompressing zstd bundles.
func readBundle(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CacheError, "open cached bundle failed")
	}
	defer file.Close()

	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.BundleCorrupt, "create zstd reader failed")
		}
		defer dec.Close()
		data, err := io.ReadAll(dec)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.BundleCorrupt, "decompress bundle failed")
		}
		return data, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CacheError, "read cached bundle failed")
	}
	return data, nil
}

type emitFunc func(p execution.LoadProgress)

// newEmitter wraps the caller's callback, enforcing monotonic stage order
// and tolerating a nil callback.
func newEmitter(onProgress execution.ProgressFunc) emitFunc {
	current := execution.StageChecking
	return func(p execution.LoadProgress) {
		if onProgress == nil {
			return
		}
		if !current.CanTransition(p.Stage) {
			return
		}
		current = p.Stage
		onProgress(p)
	}
}

func event(stage execution.LoadStage, progress int, message string) execution.LoadProgress {
	return execution.LoadProgress{Stage: stage, Progress: progress, Message: message}
}

// progressReader emits download progress with byte counters as it reads.
type progressReader struct {
	ctx   context.Context
	inner io.Reader
	total int64
	read  int64
	emit  emitFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.inner.Read(p)
	if n > 0 {
		r.read += int64(n)
		progress := 5
		if r.total > 0 {
			// Downloading spans 5..85 of the overall bar.
			progress = 5 + int(r.read*80/r.total)
		}
		r.emit(execution.LoadProgress{
			Stage:           execution.StageDownloading,
			Progress:        progress,
			DownloadedBytes: r.read,
			TotalBytes:      r.total,
			Message:         "Downloading runtime...",
		})
	}
	return n, err
}
