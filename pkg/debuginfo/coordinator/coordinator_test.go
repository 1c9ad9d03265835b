package coordinator

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
	bucketmem "github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/bucket/memory"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/debuginfod"
	storemem "github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/store/memory"
)

const testBuildID = debuginfo.BuildID("deadbeefcafef00d")

func newTestCoordinator(t *testing.T, debuginfodFound bool) *Coordinator {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if debuginfodFound {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := debuginfod.New(debuginfod.DefaultConfig(srv.URL))

	return New(storemem.New(), bucketmem.New(), client, DefaultConfig(), nil)
}

// S1: a brand new build ID with no debuginfod presence should initiate.
func TestScenarioFirstTimeSeen(t *testing.T) {
	c := newTestCoordinator(t, false)
	resp, err := c.ShouldInitiateUpload(context.Background(), ShouldInitiateRequest{
		BuildID:     testBuildID,
		BuildIDType: debuginfo.BuildIDTypeGNU,
	})
	require.NoError(t, err)
	assert.True(t, resp.ShouldInitiate)
	assert.Equal(t, debuginfo.ReasonFirstTimeSeen, resp.Reason)
}

// S2: a brand new build ID already on debuginfod should not initiate, and
// a later lookup must reflect it was marked as a debuginfod source.
func TestScenarioInDebuginfod(t *testing.T) {
	c := newTestCoordinator(t, true)
	ctx := context.Background()

	resp, err := c.ShouldInitiateUpload(ctx, ShouldInitiateRequest{
		BuildID:     testBuildID,
		BuildIDType: debuginfo.BuildIDTypeGNU,
	})
	require.NoError(t, err)
	assert.False(t, resp.ShouldInitiate)
	assert.Equal(t, debuginfo.ReasonInDebuginfod, resp.Reason)

	resp2, err := c.ShouldInitiateUpload(ctx, ShouldInitiateRequest{
		BuildID:     testBuildID,
		BuildIDType: debuginfo.BuildIDTypeGNU,
	})
	require.NoError(t, err)
	assert.True(t, resp2.ShouldInitiate, "debuginfod-sourced records always allow initiation")
}

// S3: full happy path, InitiateUpload -> Upload -> MarkUploadFinished.
func TestScenarioFullUploadLifecycle(t *testing.T) {
	c := newTestCoordinator(t, false)
	ctx := context.Background()

	initResp, err := c.InitiateUpload(ctx, InitiateRequest{
		BuildID:     testBuildID,
		BuildIDType: debuginfo.BuildIDTypeGNU,
		Hash:        "somehash",
		Size:        42,
	})
	require.NoError(t, err)
	require.NotEmpty(t, initResp.UploadID)

	uploadResp, err := c.Upload(ctx, UploadInfo{
		BuildID:  testBuildID,
		UploadID: initResp.UploadID,
		Kind:     debuginfo.KindDebuginfo,
	}, strings.NewReader("some debug bytes"))
	require.NoError(t, err)
	assert.EqualValues(t, len("some debug bytes"), uploadResp.Size)

	err = c.MarkUploadFinished(ctx, MarkFinishedRequest{
		BuildID:  testBuildID,
		UploadID: initResp.UploadID,
	})
	require.NoError(t, err)

	should, err := c.ShouldInitiateUpload(ctx, ShouldInitiateRequest{BuildID: testBuildID, Hash: "somehash"})
	require.NoError(t, err)
	assert.False(t, should.ShouldInitiate)
	assert.Equal(t, debuginfo.ReasonDebuginfoEqual, should.Reason)
}

// S4: InitiateUpload for equal debuginfo maps to AlreadyExists, not FailedPrecondition.
func TestScenarioInitiateWhenDebuginfoEqualIsAlreadyExists(t *testing.T) {
	c := newTestCoordinator(t, false)
	ctx := context.Background()

	initResp, err := c.InitiateUpload(ctx, InitiateRequest{BuildID: testBuildID, Hash: "h", Size: 1})
	require.NoError(t, err)
	_, err = c.Upload(ctx, UploadInfo{BuildID: testBuildID, UploadID: initResp.UploadID}, bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	require.NoError(t, c.MarkUploadFinished(ctx, MarkFinishedRequest{BuildID: testBuildID, UploadID: initResp.UploadID}))

	_, err = c.InitiateUpload(ctx, InitiateRequest{BuildID: testBuildID, Hash: "h", Size: 1})
	require.Error(t, err)
	assert.True(t, debuginfo.IsAlreadyExistsError(err))
}

// S5: a second InitiateUpload while one is in progress is FailedPrecondition.
func TestScenarioInitiateWhileInProgress(t *testing.T) {
	c := newTestCoordinator(t, false)
	ctx := context.Background()

	_, err := c.InitiateUpload(ctx, InitiateRequest{BuildID: testBuildID, Hash: "h1", Size: 1})
	require.NoError(t, err)

	_, err = c.InitiateUpload(ctx, InitiateRequest{BuildID: testBuildID, Hash: "h2", Size: 1})
	require.Error(t, err)
	assert.True(t, debuginfo.IsFailedPreconditionError(err))
}

// S6: a stale in-progress upload may be re-initiated.
func TestScenarioInitiateAfterStaleUpload(t *testing.T) {
	c := newTestCoordinator(t, false)
	ctx := context.Background()

	_, err := c.InitiateUpload(ctx, InitiateRequest{BuildID: testBuildID, Hash: "h1", Size: 1})
	require.NoError(t, err)

	c.now = func() time.Time { return time.Now().Add(20 * time.Minute) }

	resp, err := c.InitiateUpload(ctx, InitiateRequest{BuildID: testBuildID, Hash: "h2", Size: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.UploadID)
}

// S7: InitiateUpload rejects oversized declarations.
func TestScenarioInitiateRejectsOversizedUpload(t *testing.T) {
	c := newTestCoordinator(t, false)
	cfg := DefaultConfig()
	cfg.MaxUploadSize = 10
	c.cfg = cfg

	_, err := c.InitiateUpload(context.Background(), InitiateRequest{BuildID: testBuildID, Hash: "h", Size: 1000})
	require.Error(t, err)
	ce, ok := err.(*debuginfo.CoordinatorError)
	require.True(t, ok)
	assert.Equal(t, debuginfo.ErrInvalidArgument, ce.Code)
}

// S8: Upload rejects a frame whose upload ID does not match the record on file.
func TestScenarioUploadRejectsMismatchedUploadID(t *testing.T) {
	c := newTestCoordinator(t, false)
	ctx := context.Background()

	_, err := c.InitiateUpload(ctx, InitiateRequest{BuildID: testBuildID, Hash: "h", Size: 1})
	require.NoError(t, err)

	_, err = c.Upload(ctx, UploadInfo{BuildID: testBuildID, UploadID: "not-the-right-id"}, strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, debuginfo.IsFailedPreconditionError(err))
}

func TestValidateBuildIDRejectsShortInput(t *testing.T) {
	c := newTestCoordinator(t, false)
	_, err := c.ShouldInitiateUpload(context.Background(), ShouldInitiateRequest{BuildID: "ab"})
	require.Error(t, err)
	ce, ok := err.(*debuginfo.CoordinatorError)
	require.True(t, ok)
	assert.Equal(t, debuginfo.ErrInvalidArgument, ce.Code)
}

func TestInitiateUploadRejectsEmptyHash(t *testing.T) {
	c := newTestCoordinator(t, false)
	_, err := c.InitiateUpload(context.Background(), InitiateRequest{BuildID: testBuildID, Hash: "", Size: 1})
	require.Error(t, err)
}

func TestInitiateUploadRejectsZeroSize(t *testing.T) {
	c := newTestCoordinator(t, false)
	_, err := c.InitiateUpload(context.Background(), InitiateRequest{BuildID: testBuildID, Hash: "h", Size: 0})
	require.Error(t, err)
}
