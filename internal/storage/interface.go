// Package storage provides the object storage abstraction the runtime
// loader downloads language bundles from.
package storage

import (
	"context"
)

// ObjectStorage defines the minimal operations the runtime loader needs.
// It is intentionally small so we can swap MinIO/AWS-S3 implementations
// without touching the loader.
type ObjectStorage interface {
	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	GetObject(ctx context.Context, bucket, objectKey string) (ObjectReader, error)

	// StatObject returns size and ETag for an object.
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)
}

// ObjectReader is a streaming reader for object data.
type ObjectReader interface {
	Read(p []byte) (int, error)
	Close() error
}

// ObjectStat contains object metadata used for progress and validation.
type ObjectStat struct {
	SizeBytes   int64
	ETag        string
	ContentType string
}
