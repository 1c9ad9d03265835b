// Package store defines the metadata store abstraction the upload
// coordinator uses to read and write per-build-ID debug information
// records. Metadata is process-lifetime state; no implementation in this
// package is required to persist across restarts.
package store

import (
	"context"

	"github.com/parca-dev/debuginfo-ingest/pkg/debuginfo"
)

// Key identifies a single tracked record.
type Key struct {
	BuildID debuginfo.BuildID
	Kind    debuginfo.Kind
}

// MetadataStore is the C3 component from the system design: a coarse-lock,
// snapshot-read store of debug information records keyed by (BuildID, Kind).
//
// Implementations must take no I/O-bound locks while holding their
// internal mutex, and Get must return a defensive copy so that callers
// mutating the returned *debuginfo.Record cannot corrupt store state
// without going through Put.
type MetadataStore interface {
	// Get returns the record for key, or (nil, nil) if none is tracked yet.
	Get(ctx context.Context, key Key) (*debuginfo.Record, error)

	// Put stores record, overwriting whatever was previously tracked for
	// its (BuildID, Kind). Racing Puts resolve last-writer-wins; callers
	// that need compare-and-swap semantics must re-check MarkAsUploading's
	// return value instead of relying on Put's ordering.
	Put(ctx context.Context, key Key, record *debuginfo.Record) error

	// MarkAsUploading transitions key's record into an Uploading upload
	// sub-record with the given upload ID and hash, creating the record if
	// it did not already exist. Racing calls resolve last-writer-wins,
	// except MarkAsUploading fails with AlreadyExists if key's record is
	// already in state Uploaded with a matching hash — equivalent debug
	// information is already tracked and no new upload is warranted.
	MarkAsUploading(ctx context.Context, key Key, uploadID, hash string) error

	// MarkAsUploaded transitions the named upload to Uploaded. It carries
	// no quality input: the uploading client is not a trustworthy source
	// for its own validity, so the record starts out assumed valid and is
	// only ever marked invalid by a mechanism other than MarkAsUploaded
	// (no such mechanism exists in this service). It fails with
	// FailedPrecondition if no record is tracked for key or the record's
	// upload ID differs from uploadID.
	MarkAsUploaded(ctx context.Context, key Key, uploadID string) error

	// MarkAsDebuginfodSource overwrites key's record to reflect that its
	// bytes are known to exist at sourceURL on a debuginfod mirror rather
	// than having been uploaded to us.
	MarkAsDebuginfodSource(ctx context.Context, key Key, buildIDType debuginfo.BuildIDType, sourceURL string, valid bool) error
}
