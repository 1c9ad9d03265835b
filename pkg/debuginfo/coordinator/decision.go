package coordinator

import (
	"time"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
)

// decisionInput is everything the pure decision function needs. It is
// built from a store snapshot plus the caller's request, with no I/O of
// its own, so ShouldInitiate and Initiate can share the exact same logic
// (the TOCTOU defense described in the design notes: Initiate re-runs this
// decision immediately before minting an upload ID).
type decisionInput struct {
	existing          *debuginfo.Record
	buildIDType       debuginfo.BuildIDType
	hash              string
	force             bool
	now               time.Time
	maxUploadDuration time.Duration

	// debuginfodExists reports the mirror URL the debuginfod client found
	// this build ID at, or the empty string if it did not, consulted only
	// when existing is nil and buildIDType is debuginfod-eligible.
	debuginfodExists func() (string, error)
}

// decide implements the should-initiate-upload decision table from the
// system design, exactly mirroring the branch structure of the reference
// implementation this service supersedes (handle_new_build_id /
// handle_existing_debuginfo / handle_upload_source / handle_debuginfod_source).
func decide(in decisionInput) (bool, debuginfo.Reason, error) {
	if in.existing == nil {
		return handleNewBuildID(in)
	}
	return handleExistingDebuginfo(in.existing, in)
}

func handleNewBuildID(in decisionInput) (bool, debuginfo.Reason, error) {
	if !in.buildIDType.usesDebuginfod() {
		return true, debuginfo.ReasonFirstTimeSeen, nil
	}

	sourceURL, err := in.debuginfodExists()
	if err != nil {
		return false, "", err
	}
	if sourceURL != "" {
		return false, debuginfo.ReasonInDebuginfod, nil
	}
	return true, debuginfo.ReasonFirstTimeSeen, nil
}

func handleExistingDebuginfo(rec *debuginfo.Record, in decisionInput) (bool, debuginfo.Reason, error) {
	switch rec.Source {
	case debuginfo.SourceDebuginfod:
		return handleDebuginfodSource(rec)
	case debuginfo.SourceUpload:
		return handleUploadSource(rec, in)
	default:
		return false, "", debuginfo.NewInternalError(rec.BuildID, "unknown source")
	}
}

// handleDebuginfodSource always allows initiation (we never block an
// upload for something debuginfod already serves, but we never need one
// either), swapping ReasonDebuginfodSource/ReasonDebuginfodInvalid exactly
// as the reference implementation does. See pkg/debuginfo/reasons.go.
func handleDebuginfodSource(rec *debuginfo.Record) (bool, debuginfo.Reason, error) {
	if !rec.IsValidELF() {
		return true, debuginfo.ReasonDebuginfodSource, nil
	}
	return true, debuginfo.ReasonDebuginfodInvalid, nil
}

func handleUploadSource(rec *debuginfo.Record, in decisionInput) (bool, debuginfo.Reason, error) {
	if rec.Upload == nil {
		return false, "", debuginfo.NewInternalError(rec.BuildID, "upload source with no upload record")
	}

	switch rec.Upload.State {
	case debuginfo.UploadStateUploading:
		return handleUploadingState(rec.Upload, in)
	case debuginfo.UploadStateUploaded:
		return handleUploadedState(rec, in)
	default:
		return false, "", debuginfo.NewInternalError(rec.BuildID, "unknown upload state")
	}
}

func handleUploadingState(upload *debuginfo.Upload, in decisionInput) (bool, debuginfo.Reason, error) {
	if upload.IsStale(in.now, in.maxUploadDuration) {
		return true, debuginfo.ReasonUploadStale, nil
	}
	return false, debuginfo.ReasonUploadInProgress, nil
}

func handleUploadedState(rec *debuginfo.Record, in decisionInput) (bool, debuginfo.Reason, error) {
	if !rec.IsValidELF() {
		return handleInvalidELF(in.force)
	}
	if rec.Upload.Hash == "" {
		return true, debuginfo.ReasonDebuginfoInvalid, nil
	}
	return compareHash(rec.Upload, in.hash)
}

func handleInvalidELF(force bool) (bool, debuginfo.Reason, error) {
	if force {
		return true, debuginfo.ReasonDebuginfoAlreadyExistsButForced, nil
	}
	return false, debuginfo.ReasonDebuginfoAlreadyExists, nil
}

func compareHash(upload *debuginfo.Upload, requestHash string) (bool, debuginfo.Reason, error) {
	if upload == nil {
		return true, debuginfo.ReasonDebuginfoInvalid, nil
	}
	if upload.Hash == requestHash {
		return false, debuginfo.ReasonDebuginfoEqual, nil
	}
	return true, debuginfo.ReasonDebuginfoNotEqual, nil
}
