package reemesh

import (
	"errors"
	"fmt"
)

var (
	ErrFormat   = errors.New("reemesh: invalid format")
	ErrBounds   = errors.New("reemesh: read out of bounds")
	ErrEncoding = errors.New("reemesh: invalid text encoding")
)

// FormatError reports a structurally invalid file: bad magic, an unknown
// enum tag or counts that contradict each other.
type FormatError struct {
	Structure string
	Offset    uint64
	Reason    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("reemesh: invalid %s at 0x%x: %s", e.Structure, e.Offset, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErrorf(structure string, offset uint64, format string, args ...interface{}) error {
	return &FormatError{Structure: structure, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// BoundsError reports a read of Size bytes at Offset that does not fit in a
// buffer of Len bytes.
type BoundsError struct {
	Offset uint64
	Size   uint64
	Len    int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("reemesh: read of %d bytes at 0x%x exceeds buffer length %d", e.Size, e.Offset, e.Len)
}

func (e *BoundsError) Is(target error) bool {
	return target == ErrBounds
}

// EncodingError reports string bytes that are not valid for their encoding.
type EncodingError struct {
	Offset   uint64
	Encoding string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("reemesh: invalid %s string at 0x%x", e.Encoding, e.Offset)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}
