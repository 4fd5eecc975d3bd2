package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one object in the bucket
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Client is the common interface implemented by every storage backend
type Client interface {
	// Upload stores body under key. With overwrite unset, an existing key fails
	// with ErrAlreadyExists.
	Upload(ctx context.Context, key string, body io.Reader, size int64, overwrite bool) error

	// SignedURL returns a time-limited URL granting read access to key
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// DeleteObject removes key. A missing key fails with ErrNotFound.
	DeleteObject(ctx context.Context, key string) error

	// ListObjects lists the objects under prefix
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// TestConnectivity checks that the endpoint is reachable and the bucket accessible
	TestConnectivity(ctx context.Context) error
}

// StorageType names a backend provider
type StorageType string

const (
	SupabaseStorage StorageType = "supabase"
	S3Storage       StorageType = "s3"
	MinioStorage    StorageType = "minio"
)
