package symcore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a barcode is not found in the image.
	ErrNotFound = errors.New("barcode not found")

	// ErrChecksum is returned when a barcode was located but its
	// error-correction or check-digit verification failed.
	ErrChecksum = errors.New("checksum error")

	// ErrFormat is returned when a barcode was located but its bit stream
	// could not be parsed into a valid payload.
	ErrFormat = errors.New("format error")

	// ErrIllegalArgument is returned when caller-supplied input (contents,
	// dimensions, hints) is invalid. Surfaces immediately, never retried.
	ErrIllegalArgument = errors.New("illegal argument")

	// ErrIllegalState indicates an internal invariant was violated. At
	// component boundaries, bit-stream related occurrences are converted
	// to ErrFormat; true invariant violations propagate as-is.
	ErrIllegalState = errors.New("illegal state")

	// ErrArithmetic is returned by Galois field operations on divide-by-zero
	// or other undefined arithmetic (e.g. inverse of the zero element).
	ErrArithmetic = errors.New("arithmetic error")

	// ErrWriter is returned when a barcode cannot be encoded. It wraps
	// ErrIllegalArgument, since writer failures are always caused by
	// contents that exceed capacity or hint combinations that don't apply.
	ErrWriter = fmt.Errorf("writer error: %w", ErrIllegalArgument)
)
