// Package coordinator implements the C4 component: the upload
// coordinator that decides whether a client needs to upload debug
// information, mints and tracks upload attempts, and streams uploaded
// bytes into the object bucket.
package coordinator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/parca-dev/debuginfo-ingest/internal/logger"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/bucket"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/debuginfod"
	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo/store"
	"github.com/parca-dev/debuginfo-ingest/pkg/metrics"
)

// minBuildIDLength is the length a build ID must exceed to be accepted. The
// reference implementation rejects anything of length <= 2 as "unexpectedly
// short input".
const minBuildIDLength = 2

// Config controls coordinator behavior.
type Config struct {
	// MaxUploadDuration is how long an Uploading upload may run before it
	// is considered abandoned (see Upload.IsStale).
	MaxUploadDuration time.Duration

	// MaxUploadSize rejects InitiateUpload requests that declare a size
	// larger than this, in bytes.
	MaxUploadSize int64
}

// DefaultConfig mirrors the reference implementation's defaults: a 15
// minute upload window and a ~1GB size cap.
func DefaultConfig() Config {
	return Config{
		MaxUploadDuration: 15 * time.Minute,
		MaxUploadSize:     1_000_000_000,
	}
}

// Coordinator implements the four RPCs of the upload coordination core.
type Coordinator struct {
	metadata   store.MetadataStore
	bucket     bucket.ObjectBucket
	debuginfod *debuginfod.Client
	cfg        Config
	metrics    metrics.CoordinatorMetrics

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
	// newUploadID is overridable in tests; defaults to a UUIDv7 generator.
	newUploadID func() (string, error)
}

// New creates a Coordinator.
func New(metadataStore store.MetadataStore, objectBucket bucket.ObjectBucket, debuginfodClient *debuginfod.Client, cfg Config, m metrics.CoordinatorMetrics) *Coordinator {
	if m == nil {
		m = metrics.NoopCoordinatorMetrics{}
	}
	return &Coordinator{
		metadata:   metadataStore,
		bucket:     objectBucket,
		debuginfod: debuginfodClient,
		cfg:        cfg,
		metrics:    m,
		now:        time.Now,
		newUploadID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

// ShouldInitiateRequest is the input to ShouldInitiateUpload.
type ShouldInitiateRequest struct {
	BuildID     debuginfo.BuildID
	BuildIDType debuginfo.BuildIDType
	Kind        debuginfo.Kind
	Hash        string
	Force       bool
}

// ShouldInitiateResponse is the output of ShouldInitiateUpload.
type ShouldInitiateResponse struct {
	ShouldInitiate bool
	Reason         debuginfo.Reason
}

// ShouldInitiateUpload answers whether a client should proceed to
// InitiateUpload for the given build ID, without reserving anything.
func (c *Coordinator) ShouldInitiateUpload(ctx context.Context, req ShouldInitiateRequest) (resp *ShouldInitiateResponse, err error) {
	defer func() { c.observeRPCError("ShouldInitiateUpload", err) }()

	if err = validateBuildID(req.BuildID); err != nil {
		return nil, err
	}

	shouldInitiate, reason, err := c.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveDecision(string(reason), shouldInitiate)
	return &ShouldInitiateResponse{ShouldInitiate: shouldInitiate, Reason: reason}, nil
}

// InitiateRequest is the input to InitiateUpload.
type InitiateRequest struct {
	BuildID     debuginfo.BuildID
	BuildIDType debuginfo.BuildIDType
	Kind        debuginfo.Kind
	Hash        string
	Size        int64
	Force       bool
}

// InitiateResponse is the output of InitiateUpload, the instructions a
// client follows to stream its bytes.
type InitiateResponse struct {
	UploadID    string
	BuildID     debuginfo.BuildID
	Kind        debuginfo.Kind
}

// InitiateUpload validates the request, re-runs the should-initiate
// decision to defend against a race with a concurrent caller (the TOCTOU
// defense described in the design notes), and if initiation is still
// warranted, mints an upload ID and records it as in progress.
func (c *Coordinator) InitiateUpload(ctx context.Context, req InitiateRequest) (resp *InitiateResponse, err error) {
	defer func() { c.observeRPCError("InitiateUpload", err) }()

	if err = validateBuildID(req.BuildID); err != nil {
		return nil, err
	}
	if req.Hash == "" {
		return nil, debuginfo.NewInvalidArgumentError(req.BuildID, "hash must not be empty")
	}
	if req.Size == 0 {
		return nil, debuginfo.NewInvalidArgumentError(req.BuildID, "size must not be zero")
	}

	shouldInitiate, reason, err := c.evaluate(ctx, ShouldInitiateRequest{
		BuildID:     req.BuildID,
		BuildIDType: req.BuildIDType,
		Kind:        req.Kind,
		Hash:        req.Hash,
		Force:       req.Force,
	})
	if err != nil {
		return nil, err
	}

	if !shouldInitiate {
		if reason.EqualFold(debuginfo.ReasonDebuginfoEqual) {
			return nil, debuginfo.NewAlreadyExistsError(req.BuildID, string(reason))
		}
		return nil, debuginfo.NewFailedPreconditionError(req.BuildID, string(reason))
	}

	if req.Size > c.cfg.MaxUploadSize {
		return nil, debuginfo.NewInvalidArgumentError(req.BuildID, fmt.Sprintf("size %d exceeds maximum upload size %d", req.Size, c.cfg.MaxUploadSize))
	}

	uploadID, err := c.newUploadID()
	if err != nil {
		return nil, debuginfo.NewInternalError(req.BuildID, "failed to mint upload id")
	}

	key := store.Key{BuildID: req.BuildID, Kind: req.Kind}
	if err = c.metadata.MarkAsUploading(ctx, key, uploadID, req.Hash); err != nil {
		if _, ok := err.(*debuginfo.CoordinatorError); ok {
			return nil, err
		}
		return nil, debuginfo.NewInternalError(req.BuildID, "failed to record upload start")
	}

	logger.InfoCtx(ctx, "upload initiated", logger.BuildID(string(req.BuildID)), logger.UploadID(uploadID), logger.Size(req.Size))

	return &InitiateResponse{UploadID: uploadID, BuildID: req.BuildID, Kind: req.Kind}, nil
}

// UploadInfo is the first frame of the Upload streaming RPC.
type UploadInfo struct {
	BuildID  debuginfo.BuildID
	UploadID string
	Kind     debuginfo.Kind
}

// UploadResult is returned once the streamed bytes have been fully written
// to the object bucket.
type UploadResult struct {
	BuildID debuginfo.BuildID
	Size    int64
}

// Upload validates that info matches the in-progress upload on record,
// streams r's bytes into the object bucket under the upload ID, and
// returns the number of bytes written. It does not mark the upload
// finished; the caller must call MarkUploadFinished afterward.
func (c *Coordinator) Upload(ctx context.Context, info UploadInfo, r io.Reader) (resp *UploadResult, err error) {
	defer func() { c.observeRPCError("Upload", err) }()

	start := c.now()

	if err = validateBuildID(info.BuildID); err != nil {
		c.metrics.ObserveUpload("invalid_argument", 0, 0)
		return nil, err
	}

	key := store.Key{BuildID: info.BuildID, Kind: info.Kind}
	rec, err := c.metadata.Get(ctx, key)
	if err != nil {
		c.metrics.ObserveUpload("internal", 0, 0)
		return nil, debuginfo.NewInternalError(info.BuildID, "failed to read upload state")
	}
	if rec == nil || rec.Upload == nil || rec.Upload.ID != info.UploadID {
		c.metrics.ObserveUpload("failed_precondition", 0, 0)
		return nil, debuginfo.NewFailedPreconditionError(info.BuildID, "no matching in-progress upload")
	}

	size, err := c.bucket.Put(ctx, info.UploadID, r)
	if err != nil {
		c.metrics.ObserveUpload("internal", 0, 0)
		return nil, debuginfo.NewInternalError(info.BuildID, "failed to store upload bytes")
	}

	c.metrics.ObserveUpload("ok", size, c.now().Sub(start))
	logger.InfoCtx(ctx, "upload bytes stored", logger.BuildID(string(info.BuildID)), logger.UploadID(info.UploadID), logger.Size(size))

	return &UploadResult{BuildID: info.BuildID, Size: size}, nil
}

// MarkFinishedRequest is the input to MarkUploadFinished.
type MarkFinishedRequest struct {
	BuildID  debuginfo.BuildID
	Kind     debuginfo.Kind
	UploadID string
}

// MarkUploadFinished transitions an in-progress upload to Uploaded. It
// does not record ELF validity: the uploading client is not a trustworthy
// source for that judgment. The store records every finished upload as
// valid; nothing in this service inspects the uploaded bytes afterwards.
func (c *Coordinator) MarkUploadFinished(ctx context.Context, req MarkFinishedRequest) (err error) {
	defer func() { c.observeRPCError("MarkUploadFinished", err) }()

	if err = validateBuildID(req.BuildID); err != nil {
		return err
	}

	key := store.Key{BuildID: req.BuildID, Kind: req.Kind}
	if err = c.metadata.MarkAsUploaded(ctx, key, req.UploadID); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "upload finished", logger.BuildID(string(req.BuildID)), logger.UploadID(req.UploadID))
	return nil
}

// observeRPCError records err against procedure in the RPC error metric, a
// no-op when err is nil. Non-CoordinatorError failures are reported under
// the internal code, the same bucket WriteCoordinatorError falls back to.
func (c *Coordinator) observeRPCError(procedure string, err error) {
	if err == nil {
		return
	}
	ce, ok := err.(*debuginfo.CoordinatorError)
	if !ok {
		c.metrics.ObserveRPCError(procedure, debuginfo.ErrInternal.String())
		return
	}
	c.metrics.ObserveRPCError(procedure, ce.Code.String())
}

// evaluate loads the current record (if any) and runs the pure decision
// function against it. ShouldInitiateUpload and InitiateUpload share this
// so that InitiateUpload's re-check sees exactly the same logic.
func (c *Coordinator) evaluate(ctx context.Context, req ShouldInitiateRequest) (bool, debuginfo.Reason, error) {
	key := store.Key{BuildID: req.BuildID, Kind: req.Kind}
	rec, err := c.metadata.Get(ctx, key)
	if err != nil {
		return false, "", debuginfo.NewInternalError(req.BuildID, "failed to read record")
	}

	in := decisionInput{
		existing:          rec,
		buildIDType:       req.BuildIDType,
		hash:              req.Hash,
		force:             req.Force,
		now:               c.now(),
		maxUploadDuration: c.cfg.MaxUploadDuration,
		debuginfodExists: func() (string, error) {
			if c.debuginfod == nil {
				return "", nil
			}
			sourceURL, err := c.debuginfod.Exists(ctx, req.BuildID)
			if err != nil {
				return "", err
			}
			if sourceURL != "" {
				logger.InfoCtx(ctx, "found on debuginfod mirror", logger.BuildID(string(req.BuildID)), logger.SourceURL(sourceURL))
				if markErr := c.metadata.MarkAsDebuginfodSource(ctx, key, req.BuildIDType, sourceURL, true); markErr != nil {
					return "", markErr
				}
			}
			return sourceURL, nil
		},
	}

	return decide(in)
}

// validateBuildID rejects build IDs no longer than minBuildIDLength, the
// same check the reference implementation performs before anything else.
func validateBuildID(buildID debuginfo.BuildID) error {
	if len(buildID) <= minBuildIDLength {
		return debuginfo.NewInvalidArgumentError(buildID, "unexpectedly short input")
	}
	return nil
}
