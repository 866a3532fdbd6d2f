package stretch

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRegion     = errors.New("invalid source region")
	ErrInvalidDimensions = errors.New("invalid destination dimensions")
	ErrBufferTooSmall    = errors.New("destination buffer too small")
)

// ResampleError reports a rejected Stretch call. The destination is never
// written when one is returned.
type ResampleError struct {
	Kind   error
	Detail string
}

func (e *ResampleError) Error() string {
	return fmt.Sprintf("stretch: %v: %s", e.Kind, e.Detail)
}

func (e *ResampleError) Unwrap() error {
	return e.Kind
}
