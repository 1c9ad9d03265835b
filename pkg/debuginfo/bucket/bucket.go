// Package bucket defines the object storage abstraction the upload
// coordinator streams uploaded debug information bytes into. This is the
// C2 component from the system design.
package bucket

import (
	"context"
	"io"
)

// ObjectBucket stores and retrieves the raw bytes for a completed upload,
// addressed by upload ID.
type ObjectBucket interface {
	// Put stores the bytes read from r under key, returning the number of
	// bytes written. Implementations must not buffer the entire object in
	// memory unless they have no other choice (the memory implementation
	// does, by design, for tests; the S3 implementation does so that
	// PutObject retries can replay the body).
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Get opens a reader for the object stored under key. The caller must
	// close the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error
}
