package gifdec

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHeader      = errors.New("invalid header")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrTruncatedData      = errors.New("truncated data")
	ErrInvalidColorTable  = errors.New("invalid color table")
	ErrInvalidLZWCode     = errors.New("invalid LZW code")
	ErrDimensionOverflow  = errors.New("dimension overflow")
)

// DecodeError reports why a GIF could not be decoded. Kind is one of the Err*
// sentinels above and is what errors.Is matches against.
type DecodeError struct {
	Kind   error
	Offset int // byte offset in the input where the problem was found
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gif: %v at offset %d", e.Kind, e.Offset)
	}
	return fmt.Sprintf("gif: %v at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func decodeErr(kind error, offset int, format string, args ...any) *DecodeError {
	return &DecodeError{
		Kind:   kind,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
	}
}
