package storage

import (
	"context"
)

// BucketRole names the logical destination of a stored artifact. The
// pipeline addresses buckets by role; physical bucket names are resolved by
// the store from configuration.
type BucketRole string

const (
	BucketOriginal   BucketRole = "original"
	BucketThumbnails BucketRole = "thumbnails"
	BucketCompressed BucketRole = "compressed"
)

// ObjectStore defines the interface for role-addressed object storage.
type ObjectStore interface {
	// Upload stores data under key in the bucket for role and returns the
	// publicly retrievable URL of the object.
	Upload(ctx context.Context, role BucketRole, key string, data []byte, contentType string) (string, error)

	// Delete removes the object stored under key in the bucket for role.
	Delete(ctx context.Context, role BucketRole, key string) error

	// URL returns the public URL an object would be served from.
	URL(role BucketRole, key string) string
}
