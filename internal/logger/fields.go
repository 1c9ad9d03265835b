package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the ingest daemon.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// RPC & Operation
	// ========================================================================
	KeyProcedure = "procedure" // RPC name: ShouldInitiateUpload, InitiateUpload, Upload, MarkUploadFinished
	KeyStatus    = "status"    // HTTP status code of the RPC response
	KeyStatusMsg = "status_msg"

	// ========================================================================
	// Debuginfo domain
	// ========================================================================
	KeyBuildID   = "build_id"   // Debug info build ID
	KeyBuildType = "build_type" // Build ID type: gnu, unknown_unspecified, other
	KeyKind      = "kind"       // Debuginfo kind
	KeyUploadID  = "upload_id"  // Upload sub-record identifier
	KeyHash      = "hash"       // Content hash carried by an upload
	KeyReason    = "reason"     // Reason code returned by the coordinator decision
	KeyForce     = "force"      // Whether the caller requested a forced re-upload
	KeySize      = "size"       // Payload size in bytes
	KeySourceURL = "source_url" // Debuginfod mirror URL a build ID was found at

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP   = "client_ip"
	KeyRequestID  = "request_id"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"

	// ========================================================================
	// Storage Backend (Object Bucket)
	// ========================================================================
	KeyStoreType = "store_type" // Bucket backend: memory, s3
	KeyBucket    = "bucket"
	KeyRegion    = "region"
	KeyKey       = "key"

	// ========================================================================
	// Debuginfod Client
	// ========================================================================
	KeyCacheHit = "cache_hit"
	KeyEndpoint = "endpoint"
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Procedure returns a slog.Attr for RPC name
func Procedure(name string) slog.Attr {
	return slog.String(KeyProcedure, name)
}

// Status returns a slog.Attr for HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for a human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// BuildID returns a slog.Attr for a debug info build ID
func BuildID(id string) slog.Attr {
	return slog.String(KeyBuildID, id)
}

// BuildType returns a slog.Attr for the build ID type
func BuildType(t string) slog.Attr {
	return slog.String(KeyBuildType, t)
}

// Kind returns a slog.Attr for the debuginfo kind
func Kind(k string) slog.Attr {
	return slog.String(KeyKind, k)
}

// UploadID returns a slog.Attr for the upload sub-record identifier
func UploadID(id string) slog.Attr {
	return slog.String(KeyUploadID, id)
}

// Hash returns a slog.Attr for a content hash
func Hash(h string) slog.Attr {
	return slog.String(KeyHash, h)
}

// Reason returns a slog.Attr for the coordinator decision reason code
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}

// Force returns a slog.Attr for the forced-upload flag
func Force(f bool) slog.Attr {
	return slog.Bool(KeyForce, f)
}

// Size returns a slog.Attr for a payload size in bytes
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// SourceURL returns a slog.Attr for the debuginfod mirror URL a build ID was found at
func SourceURL(url string) slog.Attr {
	return slog.String(KeySourceURL, url)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// RequestIDStr returns a slog.Attr for request ID as string
func RequestIDStr(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// StoreType returns a slog.Attr for the bucket backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for the bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Region returns a slog.Attr for cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Key returns a slog.Attr for an object key in cloud storage
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// CacheHit returns a slog.Attr for cache hit indicator
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// Endpoint returns a slog.Attr for an upstream endpoint URL
func Endpoint(url string) slog.Attr {
	return slog.String(KeyEndpoint, url)
}
