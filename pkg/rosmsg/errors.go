package rosmsg

import (
	"errors"
	"fmt"
)

// Decode errors. All of them are local and recoverable: the caller decides
// whether to skip the message or give up, and a failed decode never yields
// a partial result.
var (
	// ErrMalformedLength means a fixed-format message had the wrong total size.
	ErrMalformedLength = errors.New("rosmsg: malformed message length")

	// ErrInvalidOffset means a computed field offset fell outside the buffer.
	ErrInvalidOffset = errors.New("rosmsg: computed offset outside buffer bounds")

	// ErrInsufficientPayload means the declared or reconciled image dimensions
	// need more pixel bytes than the buffer contains.
	ErrInsufficientPayload = errors.New("rosmsg: pixel payload shorter than dimensions require")
)

// MarkerNotFoundError means an expected literal substring was absent from
// the buffer, which indicates an unrecognized or corrupted wire format.
type MarkerNotFoundError struct {
	Field  string // which field's marker was being looked for
	Marker string // the literal that was expected
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("rosmsg: marker %q for field %s not found", e.Marker, e.Field)
}

// IsMarkerNotFound reports whether err is a MarkerNotFoundError for the
// given field. An empty field matches any marker error.
func IsMarkerNotFound(err error, field string) bool {
	var me *MarkerNotFoundError
	if !errors.As(err, &me) {
		return false
	}
	return field == "" || me.Field == field
}
