package s3

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

type fakeAPIError struct {
	code string
}

func (e *fakeAPIError) Error() string       { return e.code }
func (e *fakeAPIError) ErrorCode() string   { return e.code }
func (e *fakeAPIError) ErrorMessage() string { return e.code }
func (e *fakeAPIError) ErrorFault() smithy.ErrorFault {
	return smithy.FaultUnknown
}

func TestIsRetryableErrorNil(t *testing.T) {
	assert.False(t, isRetryableError(nil))
}

func TestIsRetryableErrorContextCancelled(t *testing.T) {
	assert.False(t, isRetryableError(context.Canceled))
}

func TestIsRetryableErrorThrottling(t *testing.T) {
	assert.True(t, isRetryableError(&fakeAPIError{code: "Throttling"}))
	assert.True(t, isRetryableError(&fakeAPIError{code: "SlowDown"}))
}

func TestIsRetryableErrorServerError(t *testing.T) {
	assert.True(t, isRetryableError(&fakeAPIError{code: "InternalError"}))
	assert.True(t, isRetryableError(&fakeAPIError{code: "ServiceUnavailable"}))
}

func TestIsRetryableErrorNotFoundIsNotRetryable(t *testing.T) {
	assert.False(t, isRetryableError(&fakeAPIError{code: "NoSuchKey"}))
	assert.False(t, isRetryableError(&fakeAPIError{code: "AccessDenied"}))
}

func TestIsRetryableErrorMessageFallback(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("connection reset by peer")))
	assert.False(t, isRetryableError(errors.New("some unrelated failure")))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, isNotFoundError(&fakeAPIError{code: "NoSuchKey"}))
	assert.False(t, isNotFoundError(&fakeAPIError{code: "AccessDenied"}))
	assert.False(t, isNotFoundError(nil))
}
