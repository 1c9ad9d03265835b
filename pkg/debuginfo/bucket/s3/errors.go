package s3

import (
	"bytes"
	"errors"
	"io"
)

var errObjectNotFound = errors.New("object not found")

// newBytesReader wraps data in an io.ReadSeeker, which the AWS SDK needs to
// safely retry PutObject.
func newBytesReader(data []byte) io.ReadSeeker {
	return bytes.NewReader(data)
}
