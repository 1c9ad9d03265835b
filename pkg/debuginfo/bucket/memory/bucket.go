// Package memory implements bucket.ObjectBucket backed by an in-process
// map, for tests and for local evaluation (bucket.type "memory", the
// default in the service configuration).
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/bucket"
)

// Bucket is an in-memory bucket.ObjectBucket.
type Bucket struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates an empty Bucket.
func New() *Bucket {
	return &Bucket{objects: make(map[string][]byte)}
}

var _ bucket.ObjectBucket = (*Bucket)(nil)

// Put implements bucket.ObjectBucket.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()

	return int64(len(data)), nil
}

// Get implements bucket.ObjectBucket.
func (b *Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	data, ok := b.objects[key]
	b.mu.RUnlock()

	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Exists implements bucket.ObjectBucket.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.RLock()
	_, ok := b.objects[key]
	b.mu.RUnlock()
	return ok, nil
}

// Delete implements bucket.ObjectBucket.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}
