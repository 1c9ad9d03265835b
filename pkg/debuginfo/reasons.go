package debuginfo

import "strings"

// Reason is a machine-comparable explanation attached to every
// should-initiate decision. Transport layers compare reasons
// case-insensitively (InitiateUpload treats ReasonDebuginfoEqual the same
// regardless of caller casing), so Reason values are compared via
// EqualFold rather than direct string equality in coordinator code.
type Reason string

const (
	// ReasonInDebuginfod is returned alongside should_initiate=false when a
	// first-seen GNU/unspecified build ID already resolves on the
	// debuginfod mirror.
	ReasonInDebuginfod Reason = "Debuginfo already exists in debuginfod"

	// ReasonFirstTimeSeen is returned alongside should_initiate=true the
	// first time a build ID is seen and it did not resolve on debuginfod
	// (or is not a debuginfod-eligible build ID type).
	ReasonFirstTimeSeen Reason = "First time we see this Build ID"

	// ReasonUploadStale is returned alongside should_initiate=true when a
	// previous upload has been "uploading" past its deadline.
	ReasonUploadStale Reason = "A previous upload was not finished and is stale"

	// ReasonUploadInProgress is returned alongside should_initiate=false
	// when another upload is actively in progress and not yet stale.
	ReasonUploadInProgress Reason = "A previous upload is still in progress"

	// ReasonDebuginfoAlreadyExists is returned alongside should_initiate=false
	// when a completed upload's debug information is known invalid and the
	// caller did not request a forced re-upload.
	ReasonDebuginfoAlreadyExists Reason = "Debuginfo already exists"

	// ReasonDebuginfoAlreadyExistsButForced is returned alongside
	// should_initiate=true in the same situation as ReasonDebuginfoAlreadyExists,
	// when the caller did request a forced re-upload.
	ReasonDebuginfoAlreadyExistsButForced Reason = "Debuginfo already exists, but force was requested"

	// ReasonDebuginfoInvalid is returned alongside should_initiate=true when
	// a completed, ELF-valid upload has no hash on record. (An upload-sourced
	// record with no upload sub-record is an Internal error, not this reason.)
	ReasonDebuginfoInvalid Reason = "Debuginfo is invalid"

	// ReasonDebuginfoEqual is returned alongside should_initiate=false when
	// the caller's declared hash matches the already-uploaded hash.
	// InitiateUpload maps this specific reason to AlreadyExists rather than
	// FailedPrecondition.
	ReasonDebuginfoEqual Reason = "Debuginfo is equal"

	// ReasonDebuginfoNotEqual is returned alongside should_initiate=true
	// when the caller's declared hash differs from the already-uploaded hash.
	ReasonDebuginfoNotEqual Reason = "Debuginfo is not equal"

	// ReasonDebuginfodSource and ReasonDebuginfodInvalid cover records whose
	// Source is SourceDebuginfod. should_initiate is always true for these
	// (a client that reaches this branch is always told to upload; a record
	// served by debuginfod never blocks one), and the original implementation swaps which
	// reason accompanies which validity state:
	//
	//   record known INVALID on debuginfod -> ReasonDebuginfodSource
	//   record known VALID on debuginfod   -> ReasonDebuginfodInvalid
	//
	// This reads backwards but is preserved exactly as the system this
	// service replaces behaves, since external callers may already key
	// off these exact strings. See the design notes for the decision to
	// keep rather than "fix" it.
	ReasonDebuginfodSource  Reason = "Debuginfo is a debuginfod source"
	ReasonDebuginfodInvalid Reason = "Debuginfo is invalid (debuginfod source)"
)

// EqualFold reports whether r and other are the same reason, ignoring case.
// InitiateUpload uses this instead of == to decide whether a ShouldInitiate
// refusal maps to AlreadyExists (for ReasonDebuginfoEqual) or to
// FailedPrecondition (everything else).
func (r Reason) EqualFold(other Reason) bool {
	return strings.EqualFold(string(r), string(other))
}
