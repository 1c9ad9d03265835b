// Package memory implements store.MetadataStore as an in-memory map guarded
// by a single RWMutex, in the style of dittofs's
// pkg/metadata/store/memory package: every method checks ctx.Err() first,
// takes the lock only for the map access itself, and returns copies rather
// than internal pointers.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/store"
)

// Store is an in-memory, process-lifetime store.MetadataStore.
type Store struct {
	mu      sync.RWMutex
	records map[store.Key]*debuginfo.Record

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		records: make(map[store.Key]*debuginfo.Record),
		now:     time.Now,
	}
}

var _ store.MetadataStore = (*Store)(nil)

// Get implements store.MetadataStore.
func (s *Store) Get(ctx context.Context, key store.Key) (*debuginfo.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// Put implements store.MetadataStore.
func (s *Store) Put(ctx context.Context, key store.Key, record *debuginfo.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = cloneRecord(record)
	return nil
}

// MarkAsUploading implements store.MetadataStore.
func (s *Store) MarkAsUploading(ctx context.Context, key store.Key, uploadID, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if ok && rec.Upload != nil && rec.Upload.State == debuginfo.UploadStateUploaded && rec.Upload.Hash == hash {
		return debuginfo.NewAlreadyExistsError(key.BuildID, "equivalent debug information already uploaded")
	}
	if !ok {
		rec = &debuginfo.Record{
			BuildID: key.BuildID,
			Kind:    key.Kind,
			Source:  debuginfo.SourceUpload,
		}
	}
	rec.Source = debuginfo.SourceUpload
	rec.Upload = &debuginfo.Upload{
		ID:        uploadID,
		Hash:      hash,
		State:     debuginfo.UploadStateUploading,
		StartedAt: s.now(),
	}
	s.records[key] = rec
	return nil
}

// MarkAsUploaded implements store.MetadataStore.
func (s *Store) MarkAsUploaded(ctx context.Context, key store.Key, uploadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.Upload == nil || rec.Upload.ID != uploadID {
		return debuginfo.NewFailedPreconditionError(key.BuildID, "no matching in-progress upload")
	}
	rec.Upload.State = debuginfo.UploadStateUploaded
	rec.Upload.FinishedAt = s.now()
	// The upload is assumed valid ELF until something other than the
	// uploading client itself says otherwise; nothing in this package
	// does that today.
	rec.Quality = &debuginfo.Quality{NotValidELF: false}
	return nil
}

// MarkAsDebuginfodSource implements store.MetadataStore.
func (s *Store) MarkAsDebuginfodSource(ctx context.Context, key store.Key, buildIDType debuginfo.BuildIDType, sourceURL string, valid bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = &debuginfo.Record{
		BuildID:     key.BuildID,
		BuildIDType: buildIDType,
		Kind:        key.Kind,
		Source:      debuginfo.SourceDebuginfod,
		SourceURL:   sourceURL,
		Quality:     &debuginfo.Quality{NotValidELF: !valid},
	}
	return nil
}

// cloneRecord returns a deep-enough copy of rec so that callers mutating
// the result cannot corrupt store state.
func cloneRecord(rec *debuginfo.Record) *debuginfo.Record {
	if rec == nil {
		return nil
	}
	clone := *rec
	if rec.Quality != nil {
		q := *rec.Quality
		clone.Quality = &q
	}
	if rec.Upload != nil {
		u := *rec.Upload
		clone.Upload = &u
	}
	return &clone
}
