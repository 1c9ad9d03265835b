package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/store"
)

func testKey() store.Key {
	return store.Key{BuildID: "deadbeefcafef00d", Kind: debuginfo.KindDebuginfo}
}

func TestStoreGetMissing(t *testing.T) {
	s := New()
	rec, err := s.Get(context.Background(), testKey())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStorePutAndGet(t *testing.T) {
	s := New()
	key := testKey()

	err := s.Put(context.Background(), key, &debuginfo.Record{
		BuildID: key.BuildID,
		Kind:    key.Kind,
		Source:  debuginfo.SourceDebuginfod,
	})
	require.NoError(t, err)

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, debuginfo.SourceDebuginfod, rec.Source)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := New()
	key := testKey()
	require.NoError(t, s.Put(context.Background(), key, &debuginfo.Record{
		BuildID: key.BuildID,
		Kind:    key.Kind,
		Quality: &debuginfo.Quality{NotValidELF: false},
	}))

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	rec.Quality.NotValidELF = true

	rec2, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, rec2.Quality.NotValidELF, "mutating a returned record must not affect store state")
}

func TestStoreMarkAsUploadingCreatesRecord(t *testing.T) {
	s := New()
	key := testKey()

	err := s.MarkAsUploading(context.Background(), key, "upload-1", "somehash")
	require.NoError(t, err)

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, rec.Upload)
	assert.Equal(t, "upload-1", rec.Upload.ID)
	assert.Equal(t, debuginfo.UploadStateUploading, rec.Upload.State)
	assert.False(t, rec.Upload.StartedAt.IsZero())
}

func TestStoreMarkAsUploadingOverwritesRacingUpload(t *testing.T) {
	s := New()
	key := testKey()

	require.NoError(t, s.MarkAsUploading(context.Background(), key, "upload-1", "hash-a"))
	require.NoError(t, s.MarkAsUploading(context.Background(), key, "upload-2", "hash-b"))

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "upload-2", rec.Upload.ID, "last writer wins on racing initiations")
}

func TestStoreMarkAsUploadedRequiresMatchingUploadID(t *testing.T) {
	s := New()
	key := testKey()
	require.NoError(t, s.MarkAsUploading(context.Background(), key, "upload-1", "hash-a"))

	err := s.MarkAsUploaded(context.Background(), key, "wrong-id")
	require.Error(t, err)
	assert.True(t, debuginfo.IsFailedPreconditionError(err))
}

func TestStoreMarkAsUploadedTransitionsState(t *testing.T) {
	s := New()
	key := testKey()
	require.NoError(t, s.MarkAsUploading(context.Background(), key, "upload-1", "hash-a"))

	err := s.MarkAsUploaded(context.Background(), key, "upload-1")
	require.NoError(t, err)

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, debuginfo.UploadStateUploaded, rec.Upload.State)
	assert.False(t, rec.Upload.FinishedAt.IsZero())
	assert.True(t, rec.IsValidELF(), "an upload is assumed valid until something other than the client says otherwise")
}

func TestStoreMarkAsUploadingFailsWhenEquivalentAlreadyUploaded(t *testing.T) {
	s := New()
	key := testKey()
	ctx := context.Background()

	require.NoError(t, s.MarkAsUploading(ctx, key, "upload-1", "hash-a"))
	require.NoError(t, s.MarkAsUploaded(ctx, key, "upload-1"))

	err := s.MarkAsUploading(ctx, key, "upload-2", "hash-a")
	require.Error(t, err)
	assert.True(t, debuginfo.IsAlreadyExistsError(err))
}

func TestStoreMarkAsUploadingAllowsDifferentHashAfterUploaded(t *testing.T) {
	s := New()
	key := testKey()
	ctx := context.Background()

	require.NoError(t, s.MarkAsUploading(ctx, key, "upload-1", "hash-a"))
	require.NoError(t, s.MarkAsUploaded(ctx, key, "upload-1"))

	err := s.MarkAsUploading(ctx, key, "upload-2", "hash-b")
	require.NoError(t, err)

	rec, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "upload-2", rec.Upload.ID)
	assert.Equal(t, debuginfo.UploadStateUploading, rec.Upload.State)
}

func TestStoreMarkAsDebuginfodSource(t *testing.T) {
	s := New()
	key := testKey()

	err := s.MarkAsDebuginfodSource(context.Background(), key, debuginfo.BuildIDTypeGNU, "https://debuginfod.example.com/buildid/deadbeefcafef00d/debuginfo", true)
	require.NoError(t, err)

	rec, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, debuginfo.SourceDebuginfod, rec.Source)
	assert.Equal(t, "https://debuginfod.example.com/buildid/deadbeefcafef00d/debuginfo", rec.SourceURL)
	assert.Nil(t, rec.Upload)
	assert.True(t, rec.IsValidELF())
}

func TestStoreRespectsCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, testKey())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUploadIsStale(t *testing.T) {
	now := time.Now()
	maxDuration := 15 * time.Minute

	fresh := &debuginfo.Upload{StartedAt: now.Add(-5 * time.Minute)}
	assert.False(t, fresh.IsStale(now, maxDuration))

	justUnderGrace := &debuginfo.Upload{StartedAt: now.Add(-(maxDuration + 90*time.Second))}
	assert.False(t, justUnderGrace.IsStale(now, maxDuration))

	stale := &debuginfo.Upload{StartedAt: now.Add(-(maxDuration + 3*time.Minute))}
	assert.True(t, stale.IsStale(now, maxDuration))

	var neverStarted *debuginfo.Upload
	assert.False(t, neverStarted.IsStale(now, maxDuration))
}
